// Package metrics defines the Prometheus instrumentation for the DDP LED
// receiver service: packet and frame counters, rejection counters by cause,
// and HTTP API request metrics.
package metrics

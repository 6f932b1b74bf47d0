// Package server implements the UDP listener that feeds the DDP receiver
// state machine and the HTTP API for monitoring. Packets are processed
// run-to-completion on a single goroutine; the framebuffer is never touched
// concurrently.
package server

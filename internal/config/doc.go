// Package config provides configuration loading and validation for the DDP
// LED receiver service. It handles YAML-based configuration with per-section
// validation: UDP server, HTTP API, display geometry, device identity, and
// logging.
package config

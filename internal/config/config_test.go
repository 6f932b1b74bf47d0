package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skypro1111/ddp-led-service/internal/protocol"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  udp_port: 4048
  bind_address: "0.0.0.0"
  buffer_size: 2048
http:
  enabled: true
  address: "127.0.0.1"
  port: 8000
display:
  led_count: 60
  color_model: rgbw
  bits_per_channel: 8
  destination_id: 1
  accept_broadcast: true
  channel_order: GRBW
  brightness: 0.8
device:
  manufacturer: acme
  model: strip-60
  version: "2.1"
logging:
  level: debug
  format: json
  output: stderr
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Display.LEDCount != 60 {
		t.Errorf("LEDCount = %d, want 60", cfg.Display.LEDCount)
	}
	if cfg.Display.ColorModel != "rgbw" {
		t.Errorf("ColorModel = %q, want rgbw", cfg.Display.ColorModel)
	}
	if !cfg.Display.AcceptBroadcast {
		t.Error("AcceptBroadcast not parsed")
	}
	if got := cfg.Display.FrameBytes(); got != 240 {
		t.Errorf("FrameBytes() = %d, want 240", got)
	}
	if cfg.Device.Manufacturer != "acme" {
		t.Errorf("Manufacturer = %q, want acme", cfg.Device.Manufacturer)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	// a minimal file keeps every default except what it overrides
	path := writeConfig(t, `
display:
  led_count: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.UDPPort != protocol.DefaultPort {
		t.Errorf("UDPPort = %d, want default %d", cfg.Server.UDPPort, protocol.DefaultPort)
	}
	if cfg.Display.LEDCount != 10 {
		t.Errorf("LEDCount = %d, want 10", cfg.Display.LEDCount)
	}
	if cfg.Display.ColorModel != "rgb" {
		t.Errorf("ColorModel = %q, want default rgb", cfg.Display.ColorModel)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "display: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero led count",
			mutate:  func(c *Config) { c.Display.LEDCount = 0 },
			wantErr: "led_count",
		},
		{
			name:    "unknown color model",
			mutate:  func(c *Config) { c.Display.ColorModel = "cmyk" },
			wantErr: "color model",
		},
		{
			name:    "bad channel width",
			mutate:  func(c *Config) { c.Display.BitsPerChannel = 12 },
			wantErr: "channel width",
		},
		{
			name:    "4-bit non-grayscale",
			mutate:  func(c *Config) { c.Display.BitsPerChannel = 4 },
			wantErr: "grayscale",
		},
		{
			name:    "broadcast destination",
			mutate:  func(c *Config) { c.Display.DestinationID = 255 },
			wantErr: "broadcast",
		},
		{
			name:    "destination zero",
			mutate:  func(c *Config) { c.Display.DestinationID = 0 },
			wantErr: "destination_id",
		},
		{
			name:    "bad channel order",
			mutate:  func(c *Config) { c.Display.ChannelOrder = "RGBX" },
			wantErr: "channel order",
		},
		{
			name:    "brightness out of range",
			mutate:  func(c *Config) { c.Display.Brightness = 1.5 },
			wantErr: "brightness",
		},
		{
			name:    "udp port out of range",
			mutate:  func(c *Config) { c.Server.UDPPort = 70000 },
			wantErr: "udp_port",
		},
		{
			name:    "buffer too small for a datagram",
			mutate:  func(c *Config) { c.Server.BufferSize = 512 },
			wantErr: "buffer_size",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "level",
		},
		{
			name:    "http enabled without address",
			mutate:  func(c *Config) { c.HTTP.Address = "" },
			wantErr: "address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}

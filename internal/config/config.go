package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skypro1111/ddp-led-service/internal/pixel"
	"github.com/skypro1111/ddp-led-service/internal/protocol"
)

// Config represents the complete service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	HTTP    HTTPConfig    `yaml:"http"`
	Display DisplayConfig `yaml:"display"`
	Device  DeviceConfig  `yaml:"device"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains UDP server configuration
type ServerConfig struct {
	UDPPort     int    `yaml:"udp_port"`
	BindAddress string `yaml:"bind_address"`
	BufferSize  int    `yaml:"buffer_size"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// DisplayConfig describes the attached LED strip and how packets map onto it.
// All fields are immutable for the process lifetime.
type DisplayConfig struct {
	LEDCount        int     `yaml:"led_count"`
	ColorModel      string  `yaml:"color_model"`      // rgb, hsl, rgbw, grayscale
	BitsPerChannel  int     `yaml:"bits_per_channel"` // 4 (grayscale only), 8, 16, 24, 32
	DestinationID   int     `yaml:"destination_id"`   // logical output served, default 1
	AcceptBroadcast bool    `yaml:"accept_broadcast"` // treat destination 255 as ours
	ChannelOrder    string  `yaml:"channel_order"`    // native strip order, e.g. GRB
	Brightness      float64 `yaml:"brightness"`       // 0-1 output scale
}

// DeviceConfig carries the identity strings reported in DDP status replies.
type DeviceConfig struct {
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
	Version      string `yaml:"version"`
	MAC          string `yaml:"mac"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns a configuration for a 30-pixel RGB strip on the standard
// DDP port, matching the reference sketch hardware.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			UDPPort:     protocol.DefaultPort,
			BindAddress: "0.0.0.0",
			BufferSize:  2048,
		},
		HTTP: HTTPConfig{
			Port:    8000,
			Address: "0.0.0.0",
			Enabled: true,
		},
		Display: DisplayConfig{
			LEDCount:       30,
			ColorModel:     "rgb",
			BitsPerChannel: 8,
			DestinationID:  protocol.DestDisplay,
			ChannelOrder:   "RGB",
			Brightness:     1.0,
		},
		Device: DeviceConfig{
			Manufacturer: "skypro1111",
			Model:        "ddp-led-service",
			Version:      "1.0.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Display.Validate(); err != nil {
		return fmt.Errorf("display config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.UDPPort < 1 || s.UDPPort > 65535 {
		return fmt.Errorf("udp_port must be between 1 and 65535, got %d", s.UDPPort)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.BufferSize < protocol.HeaderSize+protocol.TimecodeSize+protocol.MaxDataLength {
		return fmt.Errorf("buffer_size must hold a full DDP datagram (%d bytes), got %d",
			protocol.HeaderSize+protocol.TimecodeSize+protocol.MaxDataLength, s.BufferSize)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates display configuration
func (d *DisplayConfig) Validate() error {
	if d.LEDCount < 1 {
		return fmt.Errorf("led_count must be at least 1, got %d", d.LEDCount)
	}

	format, err := d.Format()
	if err != nil {
		return err
	}
	if err := format.Validate(); err != nil {
		return err
	}

	if d.DestinationID < 1 || d.DestinationID > 255 {
		return fmt.Errorf("destination_id must be between 1 and 255, got %d", d.DestinationID)
	}
	if d.DestinationID == protocol.DestBroadcast {
		return fmt.Errorf("destination_id %d is the broadcast address; use accept_broadcast instead", d.DestinationID)
	}

	if err := pixel.ValidateOrder(d.ChannelOrder); err != nil {
		return err
	}

	if d.Brightness < 0 || d.Brightness > 1 {
		return fmt.Errorf("brightness must be between 0 and 1, got %f", d.Brightness)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// output may be stdout, stderr, or a file path
	return nil
}

// Format returns the wire pixel format the display is configured for.
func (d *DisplayConfig) Format() (pixel.Format, error) {
	color, err := pixel.ParseColor(d.ColorModel)
	if err != nil {
		return pixel.Format{}, err
	}
	return pixel.Format{Color: color, BitsPerChannel: uint8(d.BitsPerChannel)}, nil
}

// FrameBytes returns the wire framebuffer capacity the display needs.
func (d *DisplayConfig) FrameBytes() int {
	format, err := d.Format()
	if err != nil {
		return 0
	}
	return format.FrameBytes(d.LEDCount)
}

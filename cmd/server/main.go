package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skypro1111/ddp-led-service/internal/config"
	"github.com/skypro1111/ddp-led-service/internal/display"
	"github.com/skypro1111/ddp-led-service/internal/metrics"
	"github.com/skypro1111/ddp-led-service/internal/receiver"
	"github.com/skypro1111/ddp-led-service/internal/server"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "ddp-led-service"
	serviceVersion    = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("udp_port", cfg.Server.UDPPort),
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("led_count", cfg.Display.LEDCount),
		slog.String("color_model", cfg.Display.ColorModel),
		slog.Int("bits_per_channel", cfg.Display.BitsPerChannel),
		slog.Int("destination_id", cfg.Display.DestinationID),
		slog.String("channel_order", cfg.Display.ChannelOrder),
		slog.String("log_level", cfg.Logging.Level),
	)

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	format, err := cfg.Display.Format()
	if err != nil {
		logger.Error("Invalid display format", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// the snapshot driver feeds the HTTP grid view; a physical strip driver
	// would wrap it here
	snapshot := display.NewSnapshot()

	rx, err := receiver.New(receiver.Config{
		Pixels:          cfg.Display.LEDCount,
		Format:          format,
		ChannelOrder:    cfg.Display.ChannelOrder,
		Brightness:      cfg.Display.Brightness,
		Destination:     uint8(cfg.Display.DestinationID),
		AcceptBroadcast: cfg.Display.AcceptBroadcast,
		Device: receiver.DeviceInfo{
			Manufacturer: cfg.Device.Manufacturer,
			Model:        cfg.Device.Model,
			Version:      cfg.Device.Version,
			MAC:          cfg.Device.MAC,
		},
	}, logger, snapshot)
	if err != nil {
		logger.Error("Failed to create receiver", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Receiver initialized",
		slog.Int("framebuffer_capacity", rx.Capacity()),
	)

	udpServer := server.NewUDPServer(&cfg.Server, logger, rx, appMetrics)

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg, logger, rx, udpServer, snapshot, appMetrics)
	}

	if err := udpServer.Start(); err != nil {
		logger.Error("Failed to start UDP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if httpServer != nil {
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("udp_address", fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.UDPPort)),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := udpServer.Stop(); err != nil {
		logger.Error("Error stopping UDP server", slog.String("error", err.Error()))
	}

	if err := snapshot.Close(); err != nil {
		logger.Error("Error closing display driver", slog.String("error", err.Error()))
	}

	stats := rx.Stats()
	logger.Info("Final receiver statistics",
		slog.Uint64("packets_applied", stats.PacketsApplied),
		slog.Uint64("frames_pushed", stats.FramesPushed),
		slog.Uint64("sequence_gaps", stats.SequenceGaps),
		slog.Uint64("queries_answered", stats.QueriesAnswered),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

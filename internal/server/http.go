package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skypro1111/ddp-led-service/internal/config"
	"github.com/skypro1111/ddp-led-service/internal/display"
	"github.com/skypro1111/ddp-led-service/internal/metrics"
	"github.com/skypro1111/ddp-led-service/internal/pixel"
	"github.com/skypro1111/ddp-led-service/internal/receiver"
)

// HTTPServer provides monitoring endpoints and a live LED grid view backed
// by the snapshot display driver.
type HTTPServer struct {
	server    *http.Server
	logger    *slog.Logger
	config    *config.Config
	rx        *receiver.Receiver
	udpServer *UDPServer
	snapshot  *display.Snapshot
	m         *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg *config.Config, logger *slog.Logger, rx *receiver.Receiver,
	udpServer *UDPServer, snapshot *display.Snapshot, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    cfg,
		rx:        rx,
		udpServer: udpServer,
		snapshot:  snapshot,
		m:         m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	// no WriteTimeout: /events holds long-lived SSE streams
	h.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))
	mux.HandleFunc("/frame", h.withMetrics("/frame", h.handleFrame))
	mux.HandleFunc("/events", h.handleEvents)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", h.withMetrics("/", h.handleGrid))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		h.m.RecordHTTPRequest(r.Method, endpoint, fmt.Sprintf("%d", ww.statusCode), duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.m.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start begins serving HTTP requests
func (h *HTTPServer) Start() error {
	go func() {
		h.logger.Info("HTTP server started", slog.String("address", h.server.Addr))
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP server...")
	return h.server.Shutdown(ctx)
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"status":         "ok",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"server":   h.udpServer.Statistics(),
		"receiver": h.rx.Stats(),
		"frames":   h.snapshot.Frames(),
	})
}

func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"display": h.config.Display,
		"server": map[string]any{
			"udp_port":     h.config.Server.UDPPort,
			"bind_address": h.config.Server.BindAddress,
		},
		"device": h.config.Device,
	})
}

// handleFrame returns the current frame as a JSON color array.
func (h *HTTPServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"colors": h.frameColors(h.snapshot.Frame()),
	})
}

// handleEvents streams presented frames as server-sent events.
func (h *HTTPServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	frames, cancel := h.snapshot.Subscribe()
	defer cancel()

	// send the current frame immediately so the grid is populated on load
	if err := h.sendColors(w, h.snapshot.Frame()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame := <-frames:
			if err := h.sendColors(w, frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *HTTPServer) sendColors(w http.ResponseWriter, frame []byte) error {
	data, err := json.Marshal(h.frameColors(frame))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func (h *HTTPServer) frameColors(frame []byte) []string {
	colors := pixel.FrameColors(frame, h.config.Display.ChannelOrder)
	for len(colors) < h.config.Display.LEDCount {
		colors = append(colors, "#000000")
	}
	return colors
}

func (h *HTTPServer) handleGrid(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, gridPage)
}

func (h *HTTPServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}

// gridPage renders the live LED grid; it subscribes to /events and paints
// one cell per pixel.
const gridPage = `<!DOCTYPE html>
<html>
<head>
<title>DDP LED Grid</title>
<style>
body { background: #111; color: #ddd; font-family: monospace; }
#grid { display: flex; flex-wrap: wrap; gap: 4px; max-width: 640px; margin: 2em auto; }
.led { width: 28px; height: 28px; border-radius: 50%; background: #000; border: 1px solid #333; }
</style>
</head>
<body>
<h3 style="text-align:center">DDP LED Grid</h3>
<div id="grid"></div>
<script>
const grid = document.getElementById("grid");
const source = new EventSource("/events");
source.onmessage = (event) => {
  const colors = JSON.parse(event.data);
  while (grid.children.length < colors.length) {
    const cell = document.createElement("div");
    cell.className = "led";
    grid.appendChild(cell);
  }
  colors.forEach((color, i) => { grid.children[i].style.background = color; });
};
</script>
</body>
</html>
`

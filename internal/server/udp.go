package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/skypro1111/ddp-led-service/internal/config"
	"github.com/skypro1111/ddp-led-service/internal/metrics"
	"github.com/skypro1111/ddp-led-service/internal/protocol"
	"github.com/skypro1111/ddp-led-service/internal/receiver"
)

// UDPServer listens for DDP datagrams and drives the receiver state machine.
// Each datagram is decoded and applied synchronously before the next read;
// a corrupt or adversarial packet is dropped and logged, never fatal.
type UDPServer struct {
	conn   *net.UDPConn
	config *config.ServerConfig
	logger *slog.Logger
	rx     *receiver.Receiver
	m      *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu               sync.RWMutex
	packetsReceived  uint64
	packetsProcessed uint64
	decodeErrors     uint64
	applyErrors      uint64
	repliesSent      uint64
}

// NewUDPServer creates a new UDP server instance
func NewUDPServer(cfg *config.ServerConfig, logger *slog.Logger, rx *receiver.Receiver, m *metrics.Metrics) *UDPServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &UDPServer{
		config: cfg,
		logger: logger,
		rx:     rx,
		m:      m,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins listening for UDP packets
func (s *UDPServer) Start() error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.UDPPort))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP: %w", err)
	}

	s.conn = conn

	if err := s.conn.SetReadBuffer(s.config.BufferSize); err != nil {
		s.logger.Warn("Failed to set UDP read buffer size",
			slog.Int("buffer_size", s.config.BufferSize),
			slog.String("error", err.Error()),
		)
	}

	s.m.FramebufferCapacity.Set(float64(s.rx.Capacity()))

	s.logger.Info("UDP server started",
		slog.String("address", addr.String()),
		slog.Int("framebuffer_capacity", s.rx.Capacity()),
	)

	s.wg.Add(1)
	go s.receiveLoop()

	return nil
}

// Stop gracefully stops the UDP server
func (s *UDPServer) Stop() error {
	s.logger.Info("Stopping UDP server...")

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("Error closing UDP connection", slog.String("error", err.Error()))
		}
	}

	s.wg.Wait()

	stats := s.Statistics()
	s.logger.Info("UDP server stopped",
		slog.Uint64("packets_received", stats.PacketsReceived),
		slog.Uint64("packets_processed", stats.PacketsProcessed),
		slog.Uint64("decode_errors", stats.DecodeErrors),
	)

	return nil
}

// receiveLoop reads datagrams and processes each one to completion before
// the next read. This is the only goroutine that touches the receiver.
func (s *UDPServer) receiveLoop() {
	defer s.wg.Done()

	buffer := make([]byte, s.config.BufferSize)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Receive loop stopping due to context cancellation")
			return
		default:
		}

		// deadline so context cancellation is noticed between datagrams
		if err := s.conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
			s.logger.Error("Failed to set read deadline", slog.String("error", err.Error()))
			continue
		}

		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}

			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("Failed to read UDP packet", slog.String("error", err.Error()))
				continue
			}
		}

		s.count(func() { s.packetsReceived++ })
		s.m.PacketsReceived.Inc()
		s.m.DatagramSize.Observe(float64(n))

		s.handleDatagram(buffer[:n], remoteAddr)
	}
}

// handleDatagram runs decode and apply for one datagram. All errors are
// handled locally by dropping the packet; nothing propagates to the sender.
func (s *UDPServer) handleDatagram(data []byte, remoteAddr *net.UDPAddr) {
	pkt, err := protocol.Decode(data)
	if err != nil {
		s.count(func() { s.decodeErrors++ })
		s.m.RecordDecodeError(decodeErrorCause(err))

		s.logger.Debug("Dropped undecodable datagram",
			slog.String("remote_addr", remoteAddr.String()),
			slog.Int("size", len(data)),
			slog.String("error", err.Error()),
		)
		return
	}

	applyStart := time.Now()
	result, err := s.rx.Apply(pkt)
	if err != nil {
		s.count(func() { s.applyErrors++ })
		s.m.RecordApplyRejection(applyErrorCause(err))

		s.logger.Warn("Dropped packet",
			slog.String("remote_addr", remoteAddr.String()),
			slog.String("header", pkt.Header.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	s.count(func() { s.packetsProcessed++ })
	if result.Ignored {
		s.m.PacketsIgnored.Inc()
		return
	}

	if result.Reply != nil {
		s.sendReply(*result.Reply, remoteAddr)
	}
	if result.Written > 0 {
		s.m.PacketsApplied.Inc()
		s.m.BytesWritten.Add(float64(result.Written))
	}
	if result.Gap {
		s.m.SequenceGaps.Inc()
	}
	if result.Pushed {
		s.m.FramesPushed.Inc()
		s.m.PresentDuration.Observe(time.Since(applyStart).Seconds())
		s.logger.Debug("Frame presented",
			slog.String("remote_addr", remoteAddr.String()),
			slog.Int("written", result.Written),
		)
	}
}

// sendReply answers a query on the same socket, addressed to the sender.
func (s *UDPServer) sendReply(reply protocol.Packet, remoteAddr *net.UDPAddr) {
	s.m.QueriesAnswered.Inc()

	if _, err := s.conn.WriteToUDP(protocol.Encode(reply), remoteAddr); err != nil {
		s.logger.Warn("Failed to send query reply",
			slog.String("remote_addr", remoteAddr.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	s.count(func() { s.repliesSent++ })
	s.logger.Debug("Query reply sent",
		slog.String("remote_addr", remoteAddr.String()),
		slog.Int("payload_size", len(reply.Payload)),
	)
}

func decodeErrorCause(err error) string {
	switch {
	case errors.Is(err, protocol.ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, protocol.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, protocol.ErrTruncatedPayload):
		return "truncated_payload"
	default:
		return "other"
	}
}

func applyErrorCause(err error) string {
	switch {
	case errors.Is(err, receiver.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, receiver.ErrUnsupportedDataType):
		return "unsupported_data_type"
	default:
		return "other"
	}
}

// Statistics is a snapshot of UDP server counters.
type Statistics struct {
	PacketsReceived  uint64 `json:"packets_received"`
	PacketsProcessed uint64 `json:"packets_processed"`
	DecodeErrors     uint64 `json:"decode_errors"`
	ApplyErrors      uint64 `json:"apply_errors"`
	RepliesSent      uint64 `json:"replies_sent"`
}

// Statistics returns current server statistics
func (s *UDPServer) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Statistics{
		PacketsReceived:  s.packetsReceived,
		PacketsProcessed: s.packetsProcessed,
		DecodeErrors:     s.decodeErrors,
		ApplyErrors:      s.applyErrors,
		RepliesSent:      s.repliesSent,
	}
}

func (s *UDPServer) count(update func()) {
	s.mu.Lock()
	update()
	s.mu.Unlock()
}

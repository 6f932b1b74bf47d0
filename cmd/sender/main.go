// Command sender is a small DDP test sender. It pushes random RGB frames to
// a receiver at a fixed interval, optionally fragmenting each frame across
// several packets to exercise offset-based reassembly.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/skypro1111/ddp-led-service/internal/protocol"
)

func main() {
	target := flag.String("target", fmt.Sprintf("127.0.0.1:%d", protocol.DefaultPort), "Receiver address")
	pixels := flag.Int("pixels", 30, "Number of RGB pixels per frame")
	interval := flag.Duration("interval", 500*time.Millisecond, "Delay between frames")
	fragments := flag.Int("fragments", 1, "Packets to split each frame across")
	count := flag.Int("count", 0, "Frames to send before exiting (0 = forever)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *pixels < 1 || *fragments < 1 {
		logger.Error("pixels and fragments must be positive")
		os.Exit(1)
	}

	addr, err := net.ResolveUDPAddr("udp", *target)
	if err != nil {
		logger.Error("Failed to resolve target", slog.String("error", err.Error()))
		os.Exit(1)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		logger.Error("Failed to dial target", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer conn.Close()

	logger.Info("Sending frames",
		slog.String("target", *target),
		slog.Int("pixels", *pixels),
		slog.Int("fragments", *fragments),
	)

	seq := uint8(1)
	for sent := 0; *count == 0 || sent < *count; sent++ {
		frame := randomFrame(*pixels)

		for _, pkt := range fragmentFrame(frame, *fragments, &seq) {
			if _, err := conn.Write(protocol.Encode(pkt)); err != nil {
				logger.Error("Send failed", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}

		time.Sleep(*interval)
	}
}

func randomFrame(pixels int) []byte {
	frame := make([]byte, pixels*3)
	for i := range frame {
		frame[i] = byte(rand.Intn(256))
	}
	return frame
}

// fragmentFrame splits a frame into n offset-addressed packets; only the
// last one carries the push flag.
func fragmentFrame(frame []byte, n int, seq *uint8) []protocol.Packet {
	if n > len(frame) {
		n = len(frame)
	}

	packets := make([]protocol.Packet, 0, n)
	chunk := (len(frame) + n - 1) / n
	for offset := 0; offset < len(frame); offset += chunk {
		end := offset + chunk
		if end > len(frame) {
			end = len(frame)
		}

		flags := protocol.FlagsVersion1
		if end == len(frame) {
			flags |= protocol.FlagPush
		}

		packets = append(packets, protocol.Packet{
			Header: protocol.Header{
				Flags:       flags,
				Sequence:    *seq,
				DataType:    protocol.MakeDataType(protocol.ColorRGB, 8),
				Destination: protocol.DestDisplay,
				Offset:      uint32(offset),
				Length:      uint16(end - offset),
			},
			Payload: frame[offset:end],
		})
		*seq = *seq%15 + 1
	}
	return packets
}

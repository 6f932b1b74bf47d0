package receiver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skypro1111/ddp-led-service/internal/display"
	"github.com/skypro1111/ddp-led-service/internal/pixel"
	"github.com/skypro1111/ddp-led-service/internal/protocol"
)

// ErrUnsupportedDataType reports a declared data type that does not match
// the configured wire format. The packet is dropped without touching the
// framebuffer.
var ErrUnsupportedDataType = errors.New("unsupported data type")

// State is the receiver's position in the frame assembly cycle. FrameReady
// is transient: a push resolves synchronously inside Apply, so observers
// only ever see Idle or Accumulating.
type State int

const (
	StateIdle         State = iota // no pending partial frame
	StateAccumulating              // payload written since the last push
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// DeviceInfo describes this device in query replies, following the DDP
// status JSON schema.
type DeviceInfo struct {
	Manufacturer string `json:"man"`
	Model        string `json:"mod"`
	Version      string `json:"ver"`
	MAC          string `json:"mac,omitempty"`
	Push         bool   `json:"push"`
}

// Config holds the immutable receiver parameters fixed at startup.
type Config struct {
	Pixels          int          // LED count
	Format          pixel.Format // configured wire color model and depth
	ChannelOrder    string       // native strip channel order, e.g. "GRB"
	Brightness      float64      // 0-1 output scale
	Destination     uint8        // the one destination this device serves
	AcceptBroadcast bool         // whether destination 255 addresses us too
	Device          DeviceInfo   // status reply content
}

// Result reports what Apply did with a packet, for logging and metrics.
type Result struct {
	Written int              // payload bytes copied into the framebuffer
	Pushed  bool             // frame handed to the display driver
	Gap     bool             // sequence gap observed
	Ignored bool             // packet was for another destination or a reply
	Reply   *protocol.Packet // response to send back, set for queries
}

// Stats is a snapshot of receiver counters.
type Stats struct {
	State           string `json:"state"`
	Capacity        int    `json:"framebuffer_capacity"`
	PacketsApplied  uint64 `json:"packets_applied"`
	PacketsIgnored  uint64 `json:"packets_ignored"`
	BytesWritten    uint64 `json:"bytes_written"`
	FramesPushed    uint64 `json:"frames_pushed"`
	SequenceGaps    uint64 `json:"sequence_gaps"`
	BoundsDrops     uint64 `json:"bounds_drops"`
	DataTypeDrops   uint64 `json:"data_type_drops"`
	QueriesAnswered uint64 `json:"queries_answered"`
}

// Receiver is the DDP receiver state machine. It is driven by a single
// goroutine calling Apply per decoded packet (run-to-completion, no packet
// overlaps another); Stats may be read concurrently.
type Receiver struct {
	cfg    Config
	logger *slog.Logger
	driver display.Driver

	frame  *Framebuffer     // wire-form frame as received
	native []byte           // converted frame in strip channel order
	conv   *pixel.Converter // wire range -> native range
	seq    SequenceTracker
	state  State
	status []byte // prebuilt status JSON for query replies

	mu    sync.RWMutex // guards counters read by Stats
	stats Stats
}

// New builds a receiver with a framebuffer sized from the configuration.
func New(cfg Config, logger *slog.Logger, driver display.Driver) (*Receiver, error) {
	conv, err := pixel.NewConverter(cfg.Format, cfg.Pixels, cfg.ChannelOrder, cfg.Brightness)
	if err != nil {
		return nil, err
	}
	if cfg.Destination == 0 {
		return nil, fmt.Errorf("destination must be nonzero")
	}

	cfg.Device.Push = true
	status, err := json.Marshal(map[string]DeviceInfo{"status": cfg.Device})
	if err != nil {
		return nil, fmt.Errorf("failed to build status document: %w", err)
	}

	return &Receiver{
		cfg:    cfg,
		logger: logger,
		driver: driver,
		frame:  NewFramebuffer(cfg.Format.FrameBytes(cfg.Pixels)),
		native: make([]byte, conv.NativeFrameBytes()),
		conv:   conv,
		status: status,
	}, nil
}

// Capacity returns the wire framebuffer capacity in bytes.
func (r *Receiver) Capacity() int {
	return r.frame.Capacity()
}

// State returns the current state.
func (r *Receiver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Apply processes one decoded packet. Errors mean the packet was dropped
// with the framebuffer unchanged; they are never fatal to the receive loop.
func (r *Receiver) Apply(pkt protocol.Packet) (Result, error) {
	h := pkt.Header

	// replies circulating on the wire are other receivers' business
	if h.Flags.Has(protocol.FlagReply) {
		r.count(func(s *Stats) { s.PacketsIgnored++ })
		return Result{Ignored: true}, nil
	}

	if h.Flags.Has(protocol.FlagQuery) {
		return r.handleQuery(h), nil
	}

	// storage writes target non-volatile config space, which this device
	// does not expose
	if h.Flags.Has(protocol.FlagStorage) {
		r.count(func(s *Stats) { s.PacketsIgnored++ })
		return Result{Ignored: true}, nil
	}

	if !r.forUs(h.Destination) {
		r.count(func(s *Stats) { s.PacketsIgnored++ })
		return Result{Ignored: true}, nil
	}

	if int64(h.Offset)+int64(len(pkt.Payload)) > int64(r.frame.Capacity()) {
		r.count(func(s *Stats) { s.BoundsDrops++ })
		return Result{}, fmt.Errorf("%w: offset %d + length %d exceeds capacity %d",
			ErrOutOfBounds, h.Offset, len(pkt.Payload), r.frame.Capacity())
	}

	if !r.cfg.Format.Matches(h.DataType) {
		r.count(func(s *Stats) { s.DataTypeDrops++ })
		return Result{}, fmt.Errorf("%w: packet declares %s, device is %s",
			ErrUnsupportedDataType, h.DataType, r.cfg.Format)
	}

	var result Result
	if result.Gap = r.seq.Observe(h.Sequence); result.Gap {
		r.logger.Debug("Sequence gap detected",
			slog.Int("sequence", int(h.Sequence)),
			slog.Uint64("total_gaps", r.seq.Gaps()),
		)
	}

	if len(pkt.Payload) > 0 {
		if err := r.frame.Write(h.Offset, pkt.Payload); err != nil {
			return Result{}, err
		}
		r.conv.ConvertRange(r.native, r.frame.Bytes(), int(h.Offset), len(pkt.Payload))
		result.Written = len(pkt.Payload)
		r.setState(StateAccumulating)
	}

	r.count(func(s *Stats) {
		s.PacketsApplied++
		s.BytesWritten += uint64(result.Written)
		if result.Gap {
			s.SequenceGaps++
		}
	})

	if h.Flags.Has(protocol.FlagPush) {
		if err := r.push(pkt); err != nil {
			return result, err
		}
		result.Pushed = true
	}

	return result, nil
}

// push hands the display driver a private copy of the native frame and
// resets the cycle. The driver call completes before Apply returns, so no
// packet can mutate the frame during presentation.
func (r *Receiver) push(pkt protocol.Packet) error {
	frame := make([]byte, len(r.native))
	copy(frame, r.native)

	var timecode *uint32
	if pkt.Header.Flags.Has(protocol.FlagTimecode) {
		tc := pkt.Timecode
		timecode = &tc
	}

	if err := r.driver.Present(frame, timecode); err != nil {
		return fmt.Errorf("display driver rejected frame: %w", err)
	}

	r.count(func(s *Stats) { s.FramesPushed++ })
	r.setState(StateIdle)
	return nil
}

func (r *Receiver) handleQuery(h protocol.Header) Result {
	var reply protocol.Packet
	if h.Destination == protocol.DestStatus {
		reply = protocol.NewReply(h.Destination, r.status)
	} else {
		reply = protocol.NewReply(h.Destination, nil)
	}

	r.count(func(s *Stats) { s.QueriesAnswered++ })
	return Result{Reply: &reply}
}

func (r *Receiver) forUs(destination uint8) bool {
	if destination == r.cfg.Destination {
		return true
	}
	return r.cfg.AcceptBroadcast && destination == protocol.DestBroadcast
}

// Stats returns a snapshot of the receiver counters.
func (r *Receiver) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := r.stats
	stats.State = r.state.String()
	stats.Capacity = r.frame.Capacity()
	return stats
}

func (r *Receiver) count(update func(*Stats)) {
	r.mu.Lock()
	update(&r.stats)
	r.mu.Unlock()
}

func (r *Receiver) setState(state State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

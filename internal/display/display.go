package display

import "sync"

// Driver presents a finished frame on a push signal. Present is called
// exactly once per push with a private copy of the native framebuffer, so
// implementations may retain the slice. timecode is nil unless the packet
// carried one. Present completes before further packets are processed; slow
// drivers should enqueue internally.
type Driver interface {
	Present(frame []byte, timecode *uint32) error
	Close() error
}

// Null discards every frame. Useful for benchmarks and headless tests.
type Null struct{}

func (Null) Present(frame []byte, timecode *uint32) error { return nil }
func (Null) Close() error                                 { return nil }

// Snapshot retains the most recent frame and broadcasts pushes to
// subscribers. It backs the HTTP live view; a physical strip driver would
// replace or wrap it in deployment.
type Snapshot struct {
	mu     sync.RWMutex
	frame  []byte
	frames uint64
	subs   map[chan []byte]struct{}
	closed bool
}

// NewSnapshot creates an empty snapshot driver.
func NewSnapshot() *Snapshot {
	return &Snapshot{subs: make(map[chan []byte]struct{})}
}

// Present stores the frame and notifies subscribers. Subscribers that are
// not keeping up miss intermediate frames rather than blocking the receiver.
func (s *Snapshot) Present(frame []byte, timecode *uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	s.frame = frame
	s.frames++
	for sub := range s.subs {
		select {
		case sub <- frame:
		default:
		}
	}
	return nil
}

// Frame returns a copy of the most recent frame, or nil before the first push.
func (s *Snapshot) Frame() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return nil
	}
	frame := make([]byte, len(s.frame))
	copy(frame, s.frame)
	return frame
}

// Frames returns the number of frames presented so far.
func (s *Snapshot) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// Subscribe registers a listener for presented frames. The returned cancel
// function must be called to release the subscription.
func (s *Snapshot) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 4)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close drops all subscriptions; subsequent Present calls are no-ops.
func (s *Snapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for sub := range s.subs {
		delete(s.subs, sub)
	}
	return nil
}

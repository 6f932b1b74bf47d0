package receiver

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds reports a write that would exceed the framebuffer capacity.
// The framebuffer is left unchanged; there are no partial writes.
var ErrOutOfBounds = errors.New("write out of bounds")

// Framebuffer is a fixed-capacity byte buffer holding the logical frame in
// wire form. Capacity is set at construction and never changes. Between
// pushes the buffer may hold a partially updated frame; the contents are
// only presented downstream on a push signal.
type Framebuffer struct {
	data []byte
}

// NewFramebuffer allocates a zeroed buffer of the given capacity.
func NewFramebuffer(capacity int) *Framebuffer {
	return &Framebuffer{data: make([]byte, capacity)}
}

// Capacity returns the fixed buffer size in bytes.
func (f *Framebuffer) Capacity() int {
	return len(f.data)
}

// Write copies payload into the buffer starting at offset. Bytes outside
// the written range are untouched, which is what lets fragmented frames
// compose across packets. A write extending past the capacity fails with
// ErrOutOfBounds before any byte is copied.
func (f *Framebuffer) Write(offset uint32, payload []byte) error {
	end := int64(offset) + int64(len(payload))
	if end > int64(len(f.data)) {
		return fmt.Errorf("%w: offset %d + length %d exceeds capacity %d",
			ErrOutOfBounds, offset, len(payload), len(f.data))
	}
	copy(f.data[offset:end], payload)
	return nil
}

// Bytes exposes the underlying buffer. The receiver state machine is the
// only writer; readers take copies via Snapshot.
func (f *Framebuffer) Bytes() []byte {
	return f.data
}

// Snapshot returns a copy of the current contents.
func (f *Framebuffer) Snapshot() []byte {
	snapshot := make([]byte, len(f.data))
	copy(snapshot, f.data)
	return snapshot
}

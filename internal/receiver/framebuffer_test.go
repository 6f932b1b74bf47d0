package receiver

import (
	"bytes"
	"errors"
	"testing"
)

func TestFramebufferWrite(t *testing.T) {
	fb := NewFramebuffer(6)

	if err := fb.Write(2, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := []byte{0, 0, 1, 2, 3, 0}
	if !bytes.Equal(fb.Bytes(), want) {
		t.Errorf("Bytes() = %v, want %v", fb.Bytes(), want)
	}

	// write up to the final byte is legal
	if err := fb.Write(3, []byte{9, 9, 9}); err != nil {
		t.Fatalf("Write to capacity failed: %v", err)
	}
}

func TestFramebufferWriteOutOfBounds(t *testing.T) {
	fb := NewFramebuffer(4)
	if err := fb.Write(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	before := fb.Snapshot()

	err := fb.Write(2, []byte{5, 6, 7})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Expected ErrOutOfBounds, got %v", err)
	}
	if !bytes.Equal(before, fb.Bytes()) {
		t.Error("Rejected write modified the buffer")
	}
}

func TestFramebufferSnapshotIsACopy(t *testing.T) {
	fb := NewFramebuffer(2)
	snap := fb.Snapshot()
	snap[0] = 0xFF

	if fb.Bytes()[0] != 0 {
		t.Error("Snapshot aliases the buffer")
	}
}

func TestSequenceTracker(t *testing.T) {
	tests := []struct {
		name string
		seqs []uint8
		gaps uint64
	}{
		{"in order", []uint8{1, 2, 3, 4}, 0},
		{"one skip", []uint8{1, 2, 4}, 1},
		{"two skips", []uint8{1, 3, 5}, 2},
		{"wrap without gap", []uint8{14, 15, 1, 2}, 0},
		{"zero never counts", []uint8{1, 0, 0, 2}, 0},
		{"zero only", []uint8{0, 0, 0}, 0},
		{"restart counts once", []uint8{5, 6, 1}, 1},
		{"first observation never a gap", []uint8{9}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tracker SequenceTracker
			for _, seq := range tt.seqs {
				tracker.Observe(seq)
			}
			if got := tracker.Gaps(); got != tt.gaps {
				t.Errorf("Gaps() = %d, want %d", got, tt.gaps)
			}
		})
	}
}

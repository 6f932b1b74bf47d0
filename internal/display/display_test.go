package display

import (
	"bytes"
	"testing"
)

func TestSnapshotRetainsLatestFrame(t *testing.T) {
	s := NewSnapshot()

	if s.Frame() != nil {
		t.Error("Expected nil frame before first push")
	}

	if err := s.Present([]byte{1, 2, 3}, nil); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if err := s.Present([]byte{4, 5, 6}, nil); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	if got := s.Frame(); !bytes.Equal(got, []byte{4, 5, 6}) {
		t.Errorf("Frame() = %v, want [4 5 6]", got)
	}
	if got := s.Frames(); got != 2 {
		t.Errorf("Frames() = %d, want 2", got)
	}
}

func TestSnapshotFrameIsACopy(t *testing.T) {
	s := NewSnapshot()
	if err := s.Present([]byte{9, 9, 9}, nil); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	frame := s.Frame()
	frame[0] = 0

	if got := s.Frame(); got[0] != 9 {
		t.Error("Mutating a returned frame leaked into the snapshot")
	}
}

func TestSnapshotSubscribe(t *testing.T) {
	s := NewSnapshot()
	ch, cancel := s.Subscribe()
	defer cancel()

	if err := s.Present([]byte{7}, nil); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	select {
	case frame := <-ch:
		if !bytes.Equal(frame, []byte{7}) {
			t.Errorf("Received frame %v, want [7]", frame)
		}
	default:
		t.Fatal("Expected a frame on the subscription channel")
	}
}

func TestSnapshotSlowSubscriberDoesNotBlock(t *testing.T) {
	s := NewSnapshot()
	_, cancel := s.Subscribe()
	defer cancel()

	// channel capacity is 4; further pushes must not block
	for i := 0; i < 10; i++ {
		if err := s.Present([]byte{byte(i)}, nil); err != nil {
			t.Fatalf("Present %d failed: %v", i, err)
		}
	}
	if got := s.Frames(); got != 10 {
		t.Errorf("Frames() = %d, want 10", got)
	}
}

func TestSnapshotClose(t *testing.T) {
	s := NewSnapshot()
	ch, cancel := s.Subscribe()
	defer cancel()

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Present([]byte{1}, nil); err != nil {
		t.Fatalf("Present after close failed: %v", err)
	}

	select {
	case <-ch:
		t.Error("Expected no frames after Close")
	default:
	}
}

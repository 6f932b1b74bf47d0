package receiver

// SequenceTracker detects gaps in the 4-bit DDP sequence numbering.
// Sequence numbers run 1-15 and wrap back to 1; zero means the sender does
// not use sequencing and never participates in gap detection. Gaps are
// counted for observability only; the protocol is best-effort and the
// tracker never triggers reordering or retransmission.
type SequenceTracker struct {
	last   uint8
	primed bool
	gaps   uint64
}

// next returns the successor of a nonzero sequence number, wrapping 15 -> 1.
func next(seq uint8) uint8 {
	return seq%15 + 1
}

// Observe records a sequence number and reports whether it revealed a gap.
func (t *SequenceTracker) Observe(seq uint8) bool {
	if seq == 0 {
		return false
	}

	gap := t.primed && seq != next(t.last)
	t.last = seq
	t.primed = true
	if gap {
		t.gaps++
	}
	return gap
}

// Gaps returns the number of gaps observed so far.
func (t *SequenceTracker) Gaps() uint64 {
	return t.gaps
}

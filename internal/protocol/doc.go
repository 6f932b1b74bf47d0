// Package protocol implements the DDP (Distributed Display Protocol) wire codec.
// It handles the 10-byte big-endian packet header, the optional timecode field,
// and payload extraction, with strict version and length validation.
package protocol

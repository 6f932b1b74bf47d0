// Package receiver implements the DDP receiver state machine. It owns the
// wire framebuffer, applies decoded packets to it with bounds and data-type
// validation, tracks sequence continuity, converts updated ranges to the
// strip's native pixel layout, and hands finished frames to the display
// driver when a packet carries the push flag.
package receiver

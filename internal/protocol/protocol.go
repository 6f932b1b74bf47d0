package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Protocol constants from the DDP specification
const (
	// DefaultPort is the registered DDP UDP port.
	DefaultPort = 4048

	// Packet structure sizes
	HeaderSize   = 10 // 1 + 1 + 1 + 1 + 4 + 2 bytes
	TimecodeSize = 4  // optional, present iff FlagTimecode is set

	// MaxDataLength is the conventional payload ceiling (480 RGB pixels),
	// keeping packets inside a single non-fragmented UDP datagram.
	MaxDataLength = 480 * 3

	// SupportedVersion is the protocol version this codec accepts.
	SupportedVersion = 1
)

// Flags is the first header byte: two version bits plus five feature bits.
type Flags byte

const (
	FlagPush     Flags = 0x01 // render the framebuffer after applying this packet
	FlagQuery    Flags = 0x02 // status request, no payload expected
	FlagReply    Flags = 0x04 // packet is a response to a query
	FlagStorage  Flags = 0x08 // destination is non-display storage
	FlagTimecode Flags = 0x10 // 4-byte timecode follows the header

	versionMask  Flags = 0xC0
	versionShift       = 6

	// FlagsVersion1 is the version field preset for outgoing packets.
	FlagsVersion1 Flags = SupportedVersion << versionShift
)

// Version extracts the 2-bit protocol version from the flags byte.
func (f Flags) Version() uint8 {
	return uint8(f&versionMask) >> versionShift
}

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// Destination identifiers from the DDP specification.
const (
	DestDisplay   = 1   // default display output
	DestConfig    = 250 // device configuration channel
	DestStatus    = 251 // status/query channel
	DestBroadcast = 255 // all outputs
)

// ColorType encodes the color model carried in the data type byte.
type ColorType uint8

const (
	ColorUndefined ColorType = iota
	ColorRGB
	ColorHSL
	ColorRGBW
	ColorGrayscale
)

// DataType is the third header byte.
// Layout: [CustomerDefined:1][Reserved:1][ColorType:3][SizeCode:3]
type DataType byte

// size codes from the DDP specification; 0, 1 and 7 are undefined/reserved
var sizeCodeBits = [8]uint8{0, 0, 4, 8, 16, 24, 32, 0}

// MakeDataType builds a data type byte from a color model and channel width.
// Unsupported widths yield a zero (undeclared) data type.
func MakeDataType(color ColorType, bitsPerChannel uint8) DataType {
	var code byte
	switch bitsPerChannel {
	case 4:
		code = 2
	case 8:
		code = 3
	case 16:
		code = 4
	case 24:
		code = 5
	case 32:
		code = 6
	default:
		return 0
	}
	return DataType(byte(color)<<3 | code)
}

// Color extracts the 3-bit color model field.
func (d DataType) Color() ColorType {
	return ColorType((d >> 3) & 0x07)
}

// BitsPerChannel returns the declared channel width. The second return is
// false when the size code is undefined or reserved.
func (d DataType) BitsPerChannel() (uint8, bool) {
	bits := sizeCodeBits[d&0x07]
	return bits, bits != 0
}

// CustomerDefined reports whether the customer-defined bit is set.
func (d DataType) CustomerDefined() bool {
	return d&0x80 != 0
}

// IsZero reports whether the sender left the data type undeclared. Most DDP
// senders transmit 0x00 here and rely on the receiver's configured model.
func (d DataType) IsZero() bool {
	return d == 0
}

// Header represents the fixed 10-byte DDP packet header
// Layout: [Flags:1][Sequence:1][DataType:1][Destination:1][Offset:4][Length:2]
type Header struct {
	Flags       Flags    // version bits + push/query/reply/storage/timecode
	Sequence    uint8    // 4-bit sequence number, 0 = sequencing unused
	DataType    DataType // declared color model and channel width
	Destination uint8    // logical output identifier
	Offset      uint32   // byte offset into the destination framebuffer
	Length      uint16   // payload byte count
}

// Packet represents a fully parsed DDP packet.
type Packet struct {
	Header   Header
	Timecode uint32 // valid only when FlagTimecode is set
	Payload  []byte // exactly Header.Length bytes
}

// Codec error taxonomy. Decode errors wrap one of these sentinels.
var (
	ErrMalformedHeader    = errors.New("malformed header")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrTruncatedPayload   = errors.New("truncated payload")
)

// Decode parses a raw datagram into a Packet. The payload is copied, so the
// caller may reuse data immediately. Trailing bytes beyond the declared
// length are ignored (datagram padding).
func Decode(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, fmt.Errorf("%w: got %d bytes, need %d", ErrMalformedHeader, len(data), HeaderSize)
	}

	header := Header{
		Flags:       Flags(data[0]),
		Sequence:    data[1] & 0x0F,
		DataType:    DataType(data[2]),
		Destination: data[3],
		Offset:      binary.BigEndian.Uint32(data[4:8]),
		Length:      binary.BigEndian.Uint16(data[8:10]),
	}

	if v := header.Flags.Version(); v != SupportedVersion {
		return Packet{}, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, v, SupportedVersion)
	}

	headerLen := HeaderSize
	if header.Flags.Has(FlagTimecode) {
		headerLen += TimecodeSize
	}

	if len(data) < headerLen+int(header.Length) {
		return Packet{}, fmt.Errorf("%w: header declares %d payload bytes, %d available",
			ErrTruncatedPayload, header.Length, len(data)-headerLen)
	}

	packet := Packet{Header: header}
	if header.Flags.Has(FlagTimecode) {
		packet.Timecode = binary.BigEndian.Uint32(data[HeaderSize:headerLen])
	}
	if header.Length > 0 {
		packet.Payload = make([]byte, header.Length)
		copy(packet.Payload, data[headerLen:headerLen+int(header.Length)])
	}

	return packet, nil
}

// Encode serializes a Packet into wire form. The length field is derived
// from the payload, so Encode and Decode round-trip for any valid packet.
func Encode(p Packet) []byte {
	size := HeaderSize + len(p.Payload)
	if p.Header.Flags.Has(FlagTimecode) {
		size += TimecodeSize
	}

	buf := make([]byte, size)
	buf[0] = byte(p.Header.Flags)
	buf[1] = p.Header.Sequence & 0x0F
	buf[2] = byte(p.Header.DataType)
	buf[3] = p.Header.Destination
	binary.BigEndian.PutUint32(buf[4:8], p.Header.Offset)
	binary.BigEndian.PutUint16(buf[8:10], uint16(len(p.Payload)))

	body := buf[HeaderSize:]
	if p.Header.Flags.Has(FlagTimecode) {
		binary.BigEndian.PutUint32(body[:TimecodeSize], p.Timecode)
		body = body[TimecodeSize:]
	}
	copy(body, p.Payload)

	return buf
}

// NewReply builds a query response addressed to the given destination.
// Replies carry version 1 plus the reply and push bits, matching the flag
// combination DDP controllers expect on status responses.
func NewReply(destination uint8, payload []byte) Packet {
	return Packet{
		Header: Header{
			Flags:       FlagsVersion1 | FlagReply | FlagPush,
			Destination: destination,
			Length:      uint16(len(payload)),
		},
		Payload: payload,
	}
}

// String returns a human-readable representation of the header
func (h Header) String() string {
	return fmt.Sprintf("Header{Flags:%s, Seq:%d, Type:%s, Dest:%d, Offset:%d, Length:%d}",
		h.Flags, h.Sequence, h.DataType, h.Destination, h.Offset, h.Length)
}

// String returns the set flag names, e.g. "v1|PUSH|TIMECODE".
func (f Flags) String() string {
	s := fmt.Sprintf("v%d", f.Version())
	for _, bit := range []struct {
		mask Flags
		name string
	}{
		{FlagPush, "PUSH"},
		{FlagQuery, "QUERY"},
		{FlagReply, "REPLY"},
		{FlagStorage, "STORAGE"},
		{FlagTimecode, "TIMECODE"},
	} {
		if f.Has(bit.mask) {
			s += "|" + bit.name
		}
	}
	return s
}

// String returns a human-readable representation of the data type byte.
func (d DataType) String() string {
	if d.IsZero() {
		return "undeclared"
	}

	var color string
	switch d.Color() {
	case ColorUndefined:
		color = "undefined"
	case ColorRGB:
		color = "RGB"
	case ColorHSL:
		color = "HSL"
	case ColorRGBW:
		color = "RGBW"
	case ColorGrayscale:
		color = "grayscale"
	default:
		color = fmt.Sprintf("reserved(%d)", d.Color())
	}

	bits, ok := d.BitsPerChannel()
	if !ok {
		return fmt.Sprintf("%s/invalid-size(0x%02x)", color, byte(d)&0x07)
	}
	return fmt.Sprintf("%s/%d-bit", color, bits)
}

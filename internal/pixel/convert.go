package pixel

import (
	"fmt"
	"strings"

	"github.com/skypro1111/ddp-led-service/internal/protocol"
)

// Converter re-packs wire pixel data into the 8-bit channel layout of the
// physical strip. It is a pure mapping parameterized at construction; the
// receiver state machine applies it to updated byte ranges only.
type Converter struct {
	format     Format
	order      string // native channel order, e.g. "GRB" or "GRBW"
	brightness uint8  // 0-255 output scale
	pixels     int
}

// ValidateOrder checks a native channel order string: 3 or 4 channels drawn
// from R, G, B, W without repetition.
func ValidateOrder(order string) error {
	order = strings.ToUpper(order)
	if len(order) != 3 && len(order) != 4 {
		return fmt.Errorf("channel order %q must name 3 or 4 channels", order)
	}
	seen := map[byte]bool{}
	for i := 0; i < len(order); i++ {
		c := order[i]
		if c != 'R' && c != 'G' && c != 'B' && c != 'W' {
			return fmt.Errorf("channel order %q contains unknown channel %q", order, string(c))
		}
		if seen[c] {
			return fmt.Errorf("channel order %q repeats channel %q", order, string(c))
		}
		seen[c] = true
	}
	return nil
}

// NewConverter builds a converter for the given wire format, native channel
// order, and brightness in [0, 1].
func NewConverter(format Format, pixels int, order string, brightness float64) (*Converter, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid wire format: %w", err)
	}
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}
	if brightness < 0 || brightness > 1 {
		return nil, fmt.Errorf("brightness %f out of range [0, 1]", brightness)
	}
	if pixels < 1 {
		return nil, fmt.Errorf("pixel count must be positive, got %d", pixels)
	}

	return &Converter{
		format:     format,
		order:      strings.ToUpper(order),
		brightness: uint8(brightness*255 + 0.5),
		pixels:     pixels,
	}, nil
}

// NativeBytesPerPixel returns the per-pixel size of the native buffer.
func (c *Converter) NativeBytesPerPixel() int {
	return len(c.order)
}

// NativeFrameBytes returns the size of the native buffer for the whole strip.
func (c *Converter) NativeFrameBytes() int {
	return c.pixels * len(c.order)
}

// ConvertRange decodes the wire bytes covering [offset, offset+length) from
// wire into 8-bit native channels in native. The range is widened to whole
// pixels; bytes outside the widened range are left untouched.
func (c *Converter) ConvertRange(native, wire []byte, offset, length int) {
	if length <= 0 {
		return
	}

	if c.format.BitsPerChannel == 4 {
		// grayscale only: two pixels per wire byte, high nibble first
		first := offset * 2
		last := (offset + length) * 2
		for p := first; p < last && p < c.pixels; p++ {
			nibble := wire[p/2]
			if p%2 == 0 {
				nibble >>= 4
			}
			gray := (nibble & 0x0F) * 0x11
			c.writePixel(native, p, gray, gray, gray, gray)
		}
		return
	}

	bpc := int(c.format.BitsPerChannel) / 8
	wireBPP := c.format.Channels() * bpc

	first := offset / wireBPP
	last := (offset + length + wireBPP - 1) / wireBPP
	for p := first; p < last && p < c.pixels; p++ {
		base := p * wireBPP
		// multi-byte channels are big-endian; the high byte carries the
		// displayable value
		ch := func(i int) uint8 { return wire[base+i*bpc] }

		var r, g, b, w uint8
		switch c.format.Color {
		case protocol.ColorRGBW:
			r, g, b, w = ch(0), ch(1), ch(2), ch(3)
		case protocol.ColorGrayscale:
			gray := ch(0)
			r, g, b, w = gray, gray, gray, gray
		case protocol.ColorHSL:
			r, g, b = hslToRGB(ch(0), ch(1), ch(2))
		default: // RGB
			r, g, b = ch(0), ch(1), ch(2)
		}
		c.writePixel(native, p, r, g, b, w)
	}
}

func (c *Converter) writePixel(native []byte, pixel int, r, g, b, w uint8) {
	base := pixel * len(c.order)
	for i := 0; i < len(c.order); i++ {
		var v uint8
		switch c.order[i] {
		case 'R':
			v = r
		case 'G':
			v = g
		case 'B':
			v = b
		case 'W':
			v = w
		}
		native[base+i] = c.scale(v)
	}
}

func (c *Converter) scale(v uint8) uint8 {
	return uint8(uint16(v) * uint16(c.brightness) / 255)
}

// hslToRGB converts 8-bit hue/saturation/lightness channels to RGB. The hue
// byte spans the full color wheel (0-255 maps to 0-360 degrees).
func hslToRGB(h, s, l uint8) (uint8, uint8, uint8) {
	hf := float64(h) / 255 * 360
	sf := float64(s) / 255
	lf := float64(l) / 255

	chroma := (1 - abs(2*lf-1)) * sf
	hp := hf / 60
	x := chroma * (1 - abs(mod2(hp)-1))

	var rf, gf, bf float64
	switch {
	case hp < 1:
		rf, gf, bf = chroma, x, 0
	case hp < 2:
		rf, gf, bf = x, chroma, 0
	case hp < 3:
		rf, gf, bf = 0, chroma, x
	case hp < 4:
		rf, gf, bf = 0, x, chroma
	case hp < 5:
		rf, gf, bf = x, 0, chroma
	default:
		rf, gf, bf = chroma, 0, x
	}

	m := lf - chroma/2
	return round255(rf + m), round255(gf + m), round255(bf + m)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func mod2(v float64) float64 {
	for v >= 2 {
		v -= 2
	}
	return v
}

func round255(v float64) uint8 {
	scaled := v*255 + 0.5
	if scaled <= 0 {
		return 0
	}
	if scaled >= 255 {
		return 255
	}
	return uint8(scaled)
}

// FrameColors renders a native frame as "#rrggbb" strings for the web grid
// view. Channels missing from the order render as zero.
func FrameColors(frame []byte, order string) []string {
	order = strings.ToUpper(order)
	bpp := len(order)
	if bpp == 0 {
		return nil
	}

	colors := make([]string, 0, len(frame)/bpp)
	for base := 0; base+bpp <= len(frame); base += bpp {
		var r, g, b uint8
		for i := 0; i < bpp; i++ {
			switch order[i] {
			case 'R':
				r = frame[base+i]
			case 'G':
				g = frame[base+i]
			case 'B':
				b = frame[base+i]
			}
		}
		colors = append(colors, fmt.Sprintf("#%02x%02x%02x", r, g, b))
	}
	return colors
}

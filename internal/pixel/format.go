package pixel

import (
	"fmt"

	"github.com/skypro1111/ddp-led-service/internal/protocol"
)

// Format describes the wire pixel encoding a display is configured for.
type Format struct {
	Color          protocol.ColorType
	BitsPerChannel uint8
}

// ParseColor maps a configuration string to a wire color type.
func ParseColor(name string) (protocol.ColorType, error) {
	switch name {
	case "rgb":
		return protocol.ColorRGB, nil
	case "hsl":
		return protocol.ColorHSL, nil
	case "rgbw":
		return protocol.ColorRGBW, nil
	case "grayscale", "gray":
		return protocol.ColorGrayscale, nil
	default:
		return protocol.ColorUndefined, fmt.Errorf("unknown color model %q", name)
	}
}

// Channels returns the number of channels the color model carries per pixel.
func (f Format) Channels() int {
	switch f.Color {
	case protocol.ColorRGBW:
		return 4
	case protocol.ColorGrayscale:
		return 1
	default: // RGB, HSL
		return 3
	}
}

// Validate checks that the format is a supported model/depth combination.
// 4-bit channels are only meaningful for grayscale, where two pixels pack
// into one byte; every other model requires byte-aligned channels.
func (f Format) Validate() error {
	switch f.Color {
	case protocol.ColorRGB, protocol.ColorHSL, protocol.ColorRGBW, protocol.ColorGrayscale:
	default:
		return fmt.Errorf("unsupported color model %d", f.Color)
	}

	switch f.BitsPerChannel {
	case 8, 16, 24, 32:
		return nil
	case 4:
		if f.Color != protocol.ColorGrayscale {
			return fmt.Errorf("4-bit channels are only supported for grayscale")
		}
		return nil
	default:
		return fmt.Errorf("unsupported channel width %d bits", f.BitsPerChannel)
	}
}

// FrameBytes returns the wire framebuffer size for the given pixel count.
func (f Format) FrameBytes(pixels int) int {
	return (pixels*f.Channels()*int(f.BitsPerChannel) + 7) / 8
}

// DataType returns the wire data type byte senders should declare for this
// format.
func (f Format) DataType() protocol.DataType {
	return protocol.MakeDataType(f.Color, f.BitsPerChannel)
}

// Matches reports whether a declared data type is acceptable for this format.
// An undeclared (zero) data type always matches: the original DDP receivers
// never inspect the byte and most senders leave it empty.
func (f Format) Matches(dt protocol.DataType) bool {
	if dt.IsZero() {
		return true
	}
	bits, ok := dt.BitsPerChannel()
	if !ok {
		return false
	}
	if dt.Color() == protocol.ColorUndefined {
		return bits == f.BitsPerChannel
	}
	return dt.Color() == f.Color && bits == f.BitsPerChannel
}

// String returns a configuration-style name like "rgb/8-bit".
func (f Format) String() string {
	var color string
	switch f.Color {
	case protocol.ColorRGB:
		color = "rgb"
	case protocol.ColorHSL:
		color = "hsl"
	case protocol.ColorRGBW:
		color = "rgbw"
	case protocol.ColorGrayscale:
		color = "grayscale"
	default:
		color = "undefined"
	}
	return fmt.Sprintf("%s/%d-bit", color, f.BitsPerChannel)
}

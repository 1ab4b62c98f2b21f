package utils

import "fmt"

// RGBA8 is a packed 32-bit rgba8888 color as stored in skel streams.
type RGBA8 uint32

func (c RGBA8) R() uint8 { return uint8(c >> 24) }
func (c RGBA8) G() uint8 { return uint8(c >> 16) }
func (c RGBA8) B() uint8 { return uint8(c >> 8) }
func (c RGBA8) A() uint8 { return uint8(c) }

// HexUpper renders all four channels, the casing used by structural colors.
func (c RGBA8) HexUpper() string {
	return fmt.Sprintf("%08X", uint32(c))
}

// HexLower is the casing used by slot timeline colors.
func (c RGBA8) HexLower() string {
	return fmt.Sprintf("%08x", uint32(c))
}

// RGBHexUpper drops the alpha channel (dark tint colors carry none).
func (c RGBA8) RGBHexUpper() string {
	return fmt.Sprintf("%06X", uint32(c)>>8)
}

func (c RGBA8) RGBHexLower() string {
	return fmt.Sprintf("%06x", uint32(c)>>8)
}

// PackRGBA builds a color from separate channel bytes, used by timelines
// that store channels individually.
func PackRGBA(r, g, b, a uint8) RGBA8 {
	return RGBA8(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

// PackRGB builds an alpha-less color left-aligned in the same packing.
func PackRGB(r, g, b uint8) RGBA8 {
	return RGBA8(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8)
}

type ColorFloat [4]float32

func NewColorFloat(c RGBA8) ColorFloat {
	return ColorFloat{
		float32(c.R()) / 0xFF,
		float32(c.G()) / 0xFF,
		float32(c.B()) / 0xFF,
		float32(c.A()) / 0xFF,
	}
}

// ParseHex accepts the 8-digit rgba hex strings the document model carries,
// in either casing.
func ParseHex(hex string) (RGBA8, bool) {
	if len(hex) != 8 {
		return 0, false
	}
	var v uint32
	if _, err := fmt.Sscanf(hex, "%08x", &v); err != nil {
		return 0, false
	}
	return RGBA8(v), true
}

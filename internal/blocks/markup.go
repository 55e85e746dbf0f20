package blocks

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Font Awesome glyphs.
const (
	glyphBatteryFull    = "\uf240"
	glyphBatteryThree   = "\uf241"
	glyphBatteryHalf    = "\uf242"
	glyphBatteryQuarter = "\uf243"
	glyphBatteryEmpty   = "\uf244"
	glyphPlug           = "\uf1e6"
	glyphCPU            = "\uf2db"
	glyphMemory         = "\uf538"
	glyphVolume         = "\uf028"
	glyphMute           = "\uf6a9"
	glyphBrightness     = "\uf185"
	glyphDown           = "\uf063"
	glyphUp             = "\uf062"
)

var (
	colourEmpty = colorful.Color{R: 1}
	colourHalf  = colorful.Color{R: 1, G: 1}
	colourFull  = colorful.Color{G: 1}
)

// wrapInColour wraps s in a pango span coloured on a red to green gradient
// by fraction (0 = red, 0.5 = yellow, 1 = green).
func wrapInColour(s string, fraction float64) string {
	fraction = max(0, min(1, fraction))

	var c colorful.Color
	if fraction > 0.5 {
		c = colourHalf.BlendRgb(colourFull, 2*(fraction-0.5))
	} else {
		c = colourEmpty.BlendRgb(colourHalf, 2*fraction)
	}

	return fmt.Sprintf("<span foreground='%s'>%s</span>", c.Clamped().Hex(), s)
}

func dischargeSymbol(fraction float64) string {
	switch {
	case fraction > 0.90:
		return glyphBatteryFull
	case fraction > 0.60:
		return glyphBatteryThree
	case fraction > 0.40:
		return glyphBatteryHalf
	case fraction > 0.10:
		return glyphBatteryQuarter
	default:
		return glyphBatteryEmpty
	}
}

package scene

import "math"

// Color profile identifiers understood by the remote renderer. The profile
// tells the remote side how to interpret channel values and is a required
// part of every color payload, not a cosmetic annotation.
const (
	ColorProfileSRGB   = "sRGB"
	ColorProfileLinear = "linear"
)

// Color is an RGBA value tagged with its color-space profile.
type Color struct {
	R       float64 `json:"r"`
	G       float64 `json:"g"`
	B       float64 `json:"b"`
	A       float64 `json:"a"`
	Profile string  `json:"profile"`
}

// NewHueColor converts a hue in [0,1) at full saturation and value into an
// opaque sRGB color.
func NewHueColor(hue float64) Color {
	r, g, b := hsvToRGB(hue, 1, 1)
	return Color{R: r, G: g, B: b, A: 1, Profile: ColorProfileSRGB}
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = h - math.Floor(h)
	sector := h * 6
	i := math.Floor(sector)
	f := sector - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

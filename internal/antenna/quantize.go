package antenna

import (
	"fmt"
	"math"
	"strings"
)

// Quantize maps an arbitrary azimuth to the nearest supported direction.
//
// The circle is split into NumDirections equal sectors, each centered on its
// canonical azimuth. A midpoint between two directions rounds to the
// clockwise (higher-azimuth) neighbor, so 22.5 resolves to NE and 337.5
// wraps to N on the full profile. 360 is the same as 0.
func (p *Profile) Quantize(angle float64) Direction {
	n := float64(p.NumDirections())
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	width := 360 / n
	return Direction(int(math.Floor(a/width+0.5)) % p.NumDirections())
}

// QuantizeDegrees is Quantize for whole-degree azimuths, the common case on
// the wire.
func (p *Profile) QuantizeDegrees(angle int) Direction {
	return p.Quantize(float64(angle))
}

// ByName resolves a compass name to a direction, case-insensitively.
func (p *Profile) ByName(text string) (Direction, error) {
	for i, name := range p.names {
		if strings.EqualFold(strings.TrimSpace(text), name) {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q for profile %s (use %s)",
		text, p.name, strings.Join(p.names, ", "))
}

package antenna

// Antenna profiles: the closed set of supported phased-array topologies.
//
// A profile fixes how many directions exist, the canonical azimuth of each,
// and which relay pattern energizes the elements for it. The profile is
// chosen once at node start and never changes for the life of the process.

import (
	"fmt"
	"strings"
)

// Direction indexes a profile's direction table. Valid range is
// [0, Profile.NumDirections()).
type Direction int

// RelayVector is the state of the six relay outputs for one direction.
// Index order matches the wiring harness: R1, R2, R3, R4, R5/6, R7/8.
type RelayVector [6]bool

// String renders the vector as six 0/1 characters, harness order.
func (v RelayVector) String() string {
	var b strings.Builder
	for _, on := range v {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Profile is an immutable antenna topology description.
type Profile struct {
	name     string
	names    []string
	azimuths []int
	relays   []RelayVector
}

// Full is the 8-direction phased-array profile (RemoteQTH-style switch box).
var Full = &Profile{
	name:     "full",
	names:    []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"},
	azimuths: []int{0, 45, 90, 135, 180, 225, 270, 315},
	relays: []RelayVector{
		{false, false, false, false, false, false}, // N
		{false, false, true, true, false, true},    // NE
		{true, true, true, true, true, true},       // E
		{false, true, true, false, false, true},    // SE
		{false, false, false, false, true, true},   // S
		{true, true, false, false, false, true},    // SW
		{true, true, true, true, false, false},     // W
		{true, false, false, true, false, false},   // NW
	},
}

// Quadrant is the 4-direction profile (Comtek-style box, two active relays).
var Quadrant = &Profile{
	name:     "quadrant",
	names:    []string{"N", "E", "S", "W"},
	azimuths: []int{0, 90, 180, 270},
	relays: []RelayVector{
		{false, false, false, false, false, false}, // N
		{true, false, false, false, false, false},  // E
		{false, true, false, false, false, false},  // S
		{true, true, false, false, false, false},   // W
	},
}

// ByProfileName returns the profile for a configuration name.
func ByProfileName(name string) (*Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "full", "remoteqth":
		return Full, nil
	case "quadrant", "comtek":
		return Quadrant, nil
	}
	return nil, fmt.Errorf("unknown antenna profile %q (use \"full\" or \"quadrant\")", name)
}

// Name returns the profile's configuration name.
func (p *Profile) Name() string { return p.name }

// NumDirections returns the number of selectable directions.
func (p *Profile) NumDirections() int { return len(p.names) }

// Valid reports whether d indexes a direction of this profile.
func (p *Profile) Valid(d Direction) bool {
	return d >= 0 && int(d) < len(p.names)
}

// DirectionName returns the compass name for d ("NE").
func (p *Profile) DirectionName(d Direction) string {
	if !p.Valid(d) {
		return "?"
	}
	return p.names[d]
}

// Azimuth returns the canonical pointing angle for d in degrees.
func (p *Profile) Azimuth(d Direction) int {
	if !p.Valid(d) {
		return 0
	}
	return p.azimuths[d]
}

// Relays returns the relay pattern that selects d.
func (p *Profile) Relays(d Direction) RelayVector {
	if !p.Valid(d) {
		return RelayVector{}
	}
	return p.relays[d]
}

package sensor

// Telemetry sources for the phaser node.
//
// The protocol layer consumes samples; the electronics behind them (INA
// bus monitor, reverse-power ADC) live outside this repo. Source is the
// boundary, plus two host-side implementations for bench work.

import (
	"math/rand"
	"sync"
)

// Sample is one telemetry reading.
type Sample struct {
	BusMV         int     // bus voltage, millivolts
	BusMA         int     // bus current, milliamps
	MCUMV         int     // MCU supply voltage, millivolts
	ReversePowerW float64 // reverse power, watts
	RSSIdBm       int     // signal strength of the last received frame
}

// Source produces telemetry samples. Sample is called synchronously while
// a reply is being built, so implementations should be fast.
type Source interface {
	Sample() (Sample, error)
}

// Fixed returns the same sample on every call.
type Fixed struct {
	Value Sample
}

func (f *Fixed) Sample() (Sample, error) {
	return f.Value, nil
}

// Simulated produces samples jittered around nominal field values: a 13.8V
// bus, a few hundred milliamps, a 3.3V MCU rail and a low reverse-power
// floor. Useful for bench runs without the field hardware.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated source. seed fixes the jitter sequence;
// pass 0 for a varied one.
func NewSimulated(seed int64) *Simulated {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Simulated{rng: rand.New(rand.NewSource(seed))}
}

func (s *Simulated) Sample() (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Sample{
		BusMV:         13800 + s.rng.Intn(200) - 100,
		BusMA:         450 + s.rng.Intn(100),
		MCUMV:         3300 + s.rng.Intn(60) - 30,
		ReversePowerW: float64(s.rng.Intn(80)) / 10,
		RSSIdBm:       -95 + s.rng.Intn(20),
	}, nil
}

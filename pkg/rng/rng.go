// Package rng implements the per-pixel hash generator that drives sampling.
//
// A State is a plain 32-bit value. Every function that consumes randomness
// takes a State and returns the advanced one, so a pixel's sample sequence is
// a pure function of its seed and no generator is ever shared between
// workers.
package rng

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// State is the generator state for a single worker.
type State uint32

// Advance mixes s through a PCG-style multiply-xorshift-multiply hash.
// Dense sequential seeds map to well-scattered outputs.
func (s State) Advance() State {
	x := uint32(s)*747796405 + 2891336453
	x = ((x >> ((x >> 28) + 4)) ^ x) * 277803737
	return State((x >> 22) ^ x)
}

// Uniform maps the state onto [0, 1). It does not advance.
func (s State) Uniform() float64 {
	return float64(s) / 4294967296.0
}

// Normal returns a standard normal deviate via Box-Muller together with the
// state advanced past both uniforms it consumed. The caller must not reuse
// the input state for another draw.
func (s State) Normal() (float64, State) {
	s1 := s.Advance()
	s2 := s1.Advance()
	// 1-u keeps the logarithm argument in (0, 1].
	u1 := 1 - s1.Uniform()
	u2 := s2.Uniform()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2), s2
}

// Direction returns a unit vector uniformly distributed on the sphere. Three
// normal deviates that are all exactly zero are redrawn instead of
// normalized.
func (s State) Direction() (math3d.Vec3, State) {
	for {
		var x, y, z float64
		x, s = s.Normal()
		y, s = s.Normal()
		z, s = s.Normal()
		v := math3d.V3(x, y, z)
		if l := v.Len(); l > 0 {
			return v.Div(l), s
		}
	}
}

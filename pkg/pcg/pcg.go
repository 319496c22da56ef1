// Package pcg implements the stateless PCG hash used as the tracer's only
// source of randomness. Every draw advances a uint32 seed by hashing it, so
// a render is fully determined by its starting seeds.
package pcg

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Hash applies one round of the PCG output permutation to in.
// All arithmetic wraps modulo 2^32.
func Hash(in uint32) uint32 {
	state := in*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// Float advances seed and returns a value in [0, 1].
func Float(seed *uint32) float64 {
	*seed = Hash(*seed)
	return float64(*seed) / math.MaxUint32
}

// Vec3 returns a vector with each component drawn from Float, in X, Y, Z
// order.
func Vec3(seed *uint32) math3d.Vec3 {
	x := Float(seed)
	y := Float(seed)
	z := Float(seed)
	return math3d.V3(x, y, z)
}

// Normal returns a standard normal deviate using the Box-Muller transform.
func Normal(seed *uint32) float64 {
	theta := 2 * math.Pi * Float(seed)
	u := Float(seed)
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	rho := math.Sqrt(-2 * math.Log(u))
	return rho * math.Cos(theta)
}

// Direction returns a uniformly distributed unit vector.
func Direction(seed *uint32) math3d.Vec3 {
	x := Normal(seed)
	y := Normal(seed)
	z := Normal(seed)
	d := math3d.V3(x, y, z)
	if d.LenSq() == 0 {
		return math3d.Up()
	}
	return d.Normalize()
}

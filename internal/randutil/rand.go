// Package randutil centralises how RNGs are seeded so all call sites get
// reproducible sequences.
package randutil

import rand "math/rand/v2"

var goldenRatio64 uint64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The two 64-bit seeds required by rand/v2 are derived with a splitmix
// finalizer so nearby seeds still produce independent streams.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Worker returns the RNG for worker i of a run seeded with seed. Each worker
// gets an independent stream.
func Worker(seed int64, i int) *rand.Rand {
	return New(seed + int64(i)*int64(goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

package types

const floatCmpEpsilon float32 = 1e-12

// Return the smallest power of two that is >= v. Values <= 1 map to 1.
func NextPowerOfTwo(v int) int {
	out := 1
	for out < v {
		out <<= 1
	}
	return out
}

package amm

import (
	"math/big"
	"math/bits"
)

// mulDiv computes floor(a * b / d) with a 128-bit intermediate. ok is
// false when d is zero or the quotient does not fit in 64 bits.
func mulDiv(a, b, d uint64) (uint64, bool) {
	if d == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, true
}

// sqrtProduct computes floor(sqrt(a * b)). The product can exceed 64
// bits, so the intermediate runs through big.Int; the root always fits.
func sqrtProduct(a, b uint64) uint64 {
	z := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	return z.Sqrt(z).Uint64()
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

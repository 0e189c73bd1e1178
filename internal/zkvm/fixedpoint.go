package zkvm

import (
	"math"
	"math/big"

	"github.com/pkg/errors"
)

const (
	// FracBits: внутри схемы каждое значение хранится как целое число единиц 2^-64.
	FracBits = 64
	// mantBits is the float32 significand width including the implicit bit.
	mantBits = 24

	// MaxMagnitude bounds every value the policy touches, inputs and intermediates alike,
	// so products of two values stay far below the BN254 scalar field modulus.
	MaxMagnitude = 1e8
	// MaxTolerance bounds epsilon/factor for the same reason.
	MaxTolerance = 100
)

// MinMagnitude is the smallest non-zero magnitude accepted. From 2^-41 up a float32
// has an ulp of at least one circuit unit, so it converts exactly.
var MinMagnitude = math.Ldexp(1, mantBits-1-FracBits)

var unitOne = new(big.Int).Lsh(big.NewInt(1), FracBits)

// ToUnits converts a float32 to circuit units without rounding.
func ToUnits(v float32) (*big.Int, error) {
	f := float64(v)
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return nil, errors.Wrapf(ErrOutOfRange, "non-finite value %g", f)
	case math.Abs(f) > MaxMagnitude:
		return nil, errors.Wrapf(ErrOutOfRange, "|%g| > %g", f, float64(MaxMagnitude))
	case f != 0 && math.Abs(f) < MinMagnitude:
		return nil, errors.Wrapf(ErrOutOfRange, "|%g| < %g", f, MinMagnitude)
	}

	u, acc := new(big.Float).SetMantExp(big.NewFloat(f), FracBits).Int(nil)
	if acc != big.Exact {
		return nil, errors.Wrapf(ErrOutOfRange, "%g is not a whole number of units", f)
	}
	return u, nil
}

// FromUnits converts circuit units back to float32. Values produced by ToUnits
// come back bit for bit, except that -0 becomes +0.
func FromUnits(u *big.Int) float32 {
	f, _ := new(big.Float).SetMantExp(new(big.Float).SetInt(u), -FracBits).Float32()
	return f
}

func toleranceUnits(v float32) (*big.Int, error) {
	if v < 0 || v > MaxTolerance {
		return nil, errors.Wrapf(ErrOutOfRange, "tolerance %g not in [0, %d]", v, MaxTolerance)
	}
	return ToUnits(v)
}

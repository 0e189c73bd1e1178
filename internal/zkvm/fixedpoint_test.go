package zkvm

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float32
		want *big.Int
	}{
		{"zero", 0, big.NewInt(0)},
		{"one", 1, unitOne},
		{"negative integer", -20, new(big.Int).Mul(big.NewInt(-20), unitOne)},
		{"half", 0.5, new(big.Int).Rsh(unitOne, 1)},
		{"smallest accepted", float32(MinMagnitude), big.NewInt(1 << 23)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ToUnits(tt.in)
			require.NoError(t, err)
			assert.Zero(t, tt.want.Cmp(got), "got %s", got)
		})
	}
}

func TestToUnits_RoundTripIsExact(t *testing.T) {
	t.Parallel()

	for _, v := range []float32{0.15, 0.0001, 1333.3335, -5454.545, 12.345678, 99_999_999, 3e-12} {
		u, err := ToUnits(v)
		require.NoError(t, err, "value %g", v)
		assert.Equal(t, math.Float32bits(v), math.Float32bits(FromUnits(u)), "value %g", v)
	}
}

func TestToUnits_OutOfRange(t *testing.T) {
	t.Parallel()

	for _, v := range []float32{float32(math.NaN()), float32(math.Inf(-1)), 2e8, -1e9, 1e-13, -1e-20} {
		_, err := ToUnits(v)
		assert.ErrorIs(t, err, ErrOutOfRange, "value %g", v)
	}
}

func TestToleranceUnits(t *testing.T) {
	t.Parallel()

	v, err := toleranceUnits(0.15)
	require.NoError(t, err)
	assert.Equal(t, float32(0.15), FromUnits(v))

	_, err = toleranceUnits(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = toleranceUnits(1000)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

package journal

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnl_prover/internal/models"
)

func TestNumericRoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []float32{20, -20, 100, 0, 1e-7, 12345.678, float32(math.SmallestNonzeroFloat32)} {
		payload, err := Encode(models.Committed(v), models.CommitNumeric)
		require.NoError(t, err)
		require.Len(t, payload, 4)

		got, err := Decode(payload, models.CommitNumeric)
		require.NoError(t, err)
		require.NotNil(t, got.PnL)
		assert.Equal(t, math.Float32bits(v), math.Float32bits(*got.PnL))
		assert.True(t, got.Accepted)
	}
}

func TestBooleanHidesValue(t *testing.T) {
	t.Parallel()

	a, err := Encode(models.Committed(20), models.CommitBoolean)
	require.NoError(t, err)
	b, err := Encode(models.Committed(100), models.CommitBoolean)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, []byte{1, 0, 0, 0}, a)

	got, err := Decode(a, models.CommitBoolean)
	require.NoError(t, err)
	assert.True(t, got.Accepted)
	assert.Nil(t, got.PnL)
	assert.Equal(t, "accepted=true", got.String())
}

func TestEncodeAborted(t *testing.T) {
	t.Parallel()

	_, err := Encode(models.Aborted(models.AbortReason{Provided: 1}), models.CommitNumeric)
	assert.ErrorIs(t, err, ErrAborted)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte{1, 0, 0}, models.CommitBoolean)
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = Decode([]byte{0, 0, 0, 0}, models.CommitBoolean)
	assert.ErrorIs(t, err, ErrNotAccepted)

	_, err = Decode([]byte{2, 0, 0, 0}, models.CommitBoolean)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode([]byte{1, 0, 0, 0}, models.CommitMode("hex"))
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = Encode(models.Committed(1), models.CommitMode("hex"))
	assert.ErrorIs(t, err, ErrUnknownMode)
}

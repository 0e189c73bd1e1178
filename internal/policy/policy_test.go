package policy

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnl_prover/internal/models"
)

func exactCfg(lev bool) models.PolicyConfig {
	return models.PolicyConfig{Name: "t-exact", Leverage: lev, Tolerance: models.Exact(0.0001), Commit: models.CommitNumeric}
}

func relativeCfg(lev bool) models.PolicyConfig {
	return models.PolicyConfig{Name: "t-rel", Leverage: lev, Tolerance: models.Relative(0.15), Commit: models.CommitBoolean}
}

func TestPnL_Formula(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		entry, current, lev float32
		want                float64
	}{
		{"gain", 100, 120, 1, 20},
		{"loss", 100, 80, 1, -20},
		{"leveraged", 100, 150, 2, 100},
		{"fractional", 2.5, 2.75, 10, 100},
		{"flat", 42, 42, 5, 0},
		{"short-ish leverage", 200, 190, 0.5, -2.5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := PnL(tt.entry, tt.current, tt.lev)
			want := float64((tt.current-tt.entry)/tt.entry) * 100 * float64(tt.lev)
			assert.InDelta(t, tt.want, float64(got), 1e-4)
			assert.InDelta(t, want, float64(got), 1e-4)
		})
	}
}

func TestPnL_BitReproducible(t *testing.T) {
	t.Parallel()

	first := PnL(123.456, 130.01, 3)
	for i := 0; i < 100; i++ {
		assert.Equal(t, math.Float32bits(first), math.Float32bits(PnL(123.456, 130.01, 3)))
	}
}

func TestTrace(t *testing.T) {
	t.Parallel()

	s := Trace(models.Relative(0.15), 100, 150, 95, 2)
	assert.Equal(t, float32(50), s.Delta)
	assert.Equal(t, float32(0.5), s.Ratio)
	assert.Equal(t, float32(50), s.Percent)
	assert.Equal(t, float32(100), s.PnL)
	assert.Equal(t, float32(-5), s.Diff)
	assert.Equal(t, Bound(models.Relative(0.15), 95), s.Bound)
	assert.Equal(t, PnL(100, 150, 2), s.PnL)
}

func TestPnL_NegativeZeroFolded(t *testing.T) {
	t.Parallel()

	// 0 / -100 is -0 in float32
	assert.Equal(t, uint32(0), math.Float32bits(PnL(-100, -100, 1)))
}

func TestBound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, float32(0.0001), Bound(models.Exact(0.0001), 20))
	assert.Equal(t, float32(0.0001), Bound(models.Exact(0.0001), -5000))
	assert.InDelta(t, 14.25, float64(Bound(models.Relative(0.15), 95)), 1e-5)
	assert.InDelta(t, 14.25, float64(Bound(models.Relative(0.15), -95)), 1e-5)
	assert.Equal(t, float32(0), Bound(models.Relative(0.15), 0))
}

func TestEvaluate_ScenarioA(t *testing.T) {
	t.Parallel()

	out, err := Evaluate(exactCfg(false), models.NewPosition(100, 120, 20))
	require.NoError(t, err)
	require.True(t, out.IsCommitted())
	assert.Equal(t, float32(20), out.Value)
	assert.Nil(t, out.Reason)
}

func TestEvaluate_ScenarioB(t *testing.T) {
	t.Parallel()

	out, err := Evaluate(exactCfg(false), models.NewPosition(100, 120, 20.5))
	require.NoError(t, err)
	require.True(t, out.IsAborted())
	require.NotNil(t, out.Reason)
	assert.Equal(t, float32(20.5), out.Reason.Provided)
	assert.Equal(t, float32(20), out.Reason.Calculated)
	assert.InDelta(t, 0.5, float64(out.Reason.Diff), 1e-6)
	assert.Equal(t, float32(0.0001), out.Reason.Bound)
	assert.Contains(t, out.Reason.String(), "provided = 20.500000")
}

func TestEvaluate_ScenarioC(t *testing.T) {
	t.Parallel()

	out, err := Evaluate(relativeCfg(true), models.NewPosition(100, 150, 95).WithLeverage(2))
	require.NoError(t, err)
	require.True(t, out.IsCommitted())
	assert.Equal(t, float32(100), out.Value)
}

func TestEvaluate_LeverageIgnoredWhenDisabled(t *testing.T) {
	t.Parallel()

	out, err := Evaluate(exactCfg(false), models.NewPosition(100, 120, 20).WithLeverage(10))
	require.NoError(t, err)
	require.True(t, out.IsCommitted())
	assert.Equal(t, float32(20), out.Value)
}

func TestEvaluate_ExactBoundIndependentOfClaim(t *testing.T) {
	t.Parallel()

	// 1% off a large claim would pass a relative policy but not an exact one.
	pos := models.NewPosition(100, 1100, 990)
	out, err := Evaluate(exactCfg(false), pos)
	require.NoError(t, err)
	assert.True(t, out.IsAborted())

	out, err = Evaluate(relativeCfg(false), pos)
	require.NoError(t, err)
	assert.True(t, out.IsCommitted())
}

func TestEvaluate_BoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	cfg := models.PolicyConfig{Name: "edge", Tolerance: models.Exact(0.5), Commit: models.CommitNumeric}
	out, err := Evaluate(cfg, models.NewPosition(100, 120, 20.5))
	require.NoError(t, err)
	assert.True(t, out.IsCommitted())
}

func TestEvaluate_InvalidPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cfg   models.PolicyConfig
		pos   models.Position
		field string
	}{
		{"zero entry", exactCfg(false), models.NewPosition(0, 120, 20), "entry_price"},
		{"zero leverage", exactCfg(true), models.Position{EntryPrice: 100, CurrentPrice: 120, ClaimedPnL: 20}, "leverage"},
		{"negative leverage", relativeCfg(true), models.NewPosition(100, 120, 20).WithLeverage(-2), "leverage"},
		{"nan price", exactCfg(false), models.NewPosition(100, float32(math.NaN()), 20), "current_price"},
		{"inf claim", exactCfg(false), models.NewPosition(100, 120, float32(math.Inf(1))), "claimed_pnl"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Evaluate(tt.cfg, tt.pos)
			var perr *InvalidPositionError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestEvaluateVector_Arity(t *testing.T) {
	t.Parallel()

	_, err := EvaluateVector(relativeCfg(true), InputVector{100, 150, 95})
	var aerr *InputArityError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, 4, aerr.Want)
	assert.Equal(t, 3, aerr.Got)

	_, err = EvaluateVector(exactCfg(false), InputVector{100})
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, 3, aerr.Want)

	out, err := EvaluateVector(relativeCfg(true), InputVector{100, 150, 95, 2})
	require.NoError(t, err)
	assert.True(t, out.IsCommitted())
}

func TestMarshal_Order(t *testing.T) {
	t.Parallel()

	pos := models.NewPosition(100, 150, 95).WithLeverage(2)
	assert.Equal(t, InputVector{100, 150, 95}, Marshal(exactCfg(false), pos))
	assert.Equal(t, InputVector{100, 150, 95, 2}, Marshal(exactCfg(true), pos))

	back, err := Unmarshal(exactCfg(true), Marshal(exactCfg(true), pos))
	require.NoError(t, err)
	assert.Equal(t, pos, back)
}

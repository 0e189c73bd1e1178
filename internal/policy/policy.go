package policy

import (
	"math"

	"pnl_prover/internal/models"
)

// Steps are the rounded intermediates of one evaluation, in the order they are computed.
type Steps struct {
	Delta   float32 // current - entry
	Ratio   float32 // Delta / entry
	Percent float32 // Ratio * 100
	PnL     float32 // Percent * leverage
	Diff    float32 // claimed - PnL, signed
	Bound   float32
}

// Trace считает ((current - entry) / entry) * 100 * leverage во float32.
// Каждая операция явно приводится к float32, чтобы компилятор не склеивал их в FMA:
// результат должен совпадать бит в бит на любой платформе.
func Trace(t models.ToleranceSpec, entry, current, claimed, leverage float32) Steps {
	var s Steps
	s.Delta = float32(current - entry)
	s.Ratio = float32(s.Delta / entry)
	s.Percent = float32(s.Ratio * 100)
	s.PnL = float32(s.Percent * leverage)
	if s.PnL == 0 {
		// -0 и +0 дают один и тот же журнал
		s.PnL = 0
	}
	s.Diff = float32(claimed - s.PnL)
	s.Bound = Bound(t, claimed)
	return s
}

// PnL returns the float32 PnL percentage of a position.
func PnL(entry, current, leverage float32) float32 {
	return Trace(models.Exact(0), entry, current, 0, leverage).PnL
}

// Bound returns the active tolerance for a claimed value.
func Bound(t models.ToleranceSpec, claimed float32) float32 {
	if t.Mode == models.ToleranceRelative {
		return float32(t.Value * abs32(claimed))
	}
	return t.Value
}

// Evaluate applies the policy to a position. Without leverage enabled the position's
// leverage is ignored and 1x is used.
func Evaluate(cfg models.PolicyConfig, p models.Position) (models.Outcome, error) {
	lev := models.DefaultLeverage
	if cfg.Leverage {
		lev = p.Leverage
	}
	p.Leverage = lev
	if err := ValidatePosition(p); err != nil {
		return models.Outcome{}, err
	}

	steps := Trace(cfg.Tolerance, p.EntryPrice, p.CurrentPrice, p.ClaimedPnL, lev)
	calculated := steps.PnL
	diff := abs32(steps.Diff)
	bound := steps.Bound

	if diff > bound || math.IsNaN(float64(diff)) {
		return models.Aborted(models.AbortReason{
			Provided:   p.ClaimedPnL,
			Calculated: calculated,
			Diff:       diff,
			Bound:      bound,
		}), nil
	}
	return models.Committed(calculated), nil
}

// EvaluateVector reads the position out of an input vector and evaluates it.
func EvaluateVector(cfg models.PolicyConfig, v InputVector) (models.Outcome, error) {
	p, err := Unmarshal(cfg, v)
	if err != nil {
		return models.Outcome{}, err
	}
	return Evaluate(cfg, p)
}

func abs32(v float32) float32 {
	return math.Float32frombits(math.Float32bits(v) &^ (1 << 31))
}

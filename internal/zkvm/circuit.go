package zkvm

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/pkg/errors"

	"pnl_prover/internal/models"
	"pnl_prover/internal/policy"
)

// CircuitParams are compile-time constants; changing any of them yields a different
// constraint system and therefore a different program identity.
type CircuitParams struct {
	Leverage  bool
	Mode      models.ToleranceMode
	Tolerance *big.Int // epsilon или factor в единицах схемы
	Commit    models.CommitMode
}

// PnLCircuit повторяет вычисление политики во float32 шаг за шагом.
//
// Все значения целые, в единицах 2^-64. Промежуточные результаты приходят в свидетеле,
// схема проверяет, что каждый из них является float32 и получен округлением
// к ближайшему чётному из точного результата операции:
//
//	Delta   = fl(Current - Entry)
//	Ratio   = fl(Delta / Entry)
//	Percent = fl(Ratio * 100)
//	PnL     = fl(Percent * Leverage)
//	Diff    = fl(Claimed - PnL)
//	Bound   = Tolerance (exact) | fl(Tolerance * |Claimed|) (relative)
//	|Diff| <= Bound
type PnLCircuit struct {
	Entry    frontend.Variable
	Current  frontend.Variable
	Claimed  frontend.Variable
	Leverage frontend.Variable

	Delta   frontend.Variable
	Ratio   frontend.Variable
	Percent frontend.Variable
	PnL     frontend.Variable
	Diff    frontend.Variable
	Bound   frontend.Variable

	// Journal: единственный публичный вход: 1 для boolean-журнала,
	// PnL в единицах схемы для numeric.
	Journal frontend.Variable `gnark:",public"`

	Params CircuitParams `gnark:"-"`
}

func (c *PnLCircuit) Define(api frontend.API) error {
	fb := &floatBuilder{api: api}

	entry := fb.float(c.Entry)
	fb.float(c.Current)
	claimed := fb.float(c.Claimed)
	fb.float(c.Leverage)
	delta := fb.float(c.Delta)
	ratio := fb.float(c.Ratio)
	percent := fb.float(c.Percent)
	pnl := fb.float(c.PnL)
	diff := fb.float(c.Diff)
	bound := fb.float(c.Bound)

	api.AssertIsDifferent(c.Entry, 0)
	if !c.Params.Leverage {
		api.AssertIsEqual(c.Leverage, unitOne)
	}

	fb.rounded(delta, api.Sub(c.Current, c.Entry), 1)
	// знаменатель должен быть положительным, знак Entry переносим в числитель
	entrySign := api.Sub(1, api.Mul(2, entry.neg))
	fb.rounded(ratio, api.Mul(c.Delta, unitOne, entrySign), entry.abs)
	fb.rounded(percent, api.Mul(c.Ratio, 100), 1)
	fb.rounded(pnl, api.Mul(c.Percent, c.Leverage), unitOne)
	fb.rounded(diff, api.Sub(c.Claimed, c.PnL), 1)

	switch c.Params.Mode {
	case models.ToleranceExact:
		api.AssertIsEqual(c.Bound, c.Params.Tolerance)
	case models.ToleranceRelative:
		fb.rounded(bound, api.Mul(claimed.abs, c.Params.Tolerance), unitOne)
	default:
		return errors.Errorf("unknown tolerance mode %q", c.Params.Mode)
	}
	if fb.err != nil {
		return fb.err
	}
	api.AssertIsLessOrEqual(diff.abs, bound.abs)

	switch c.Params.Commit {
	case models.CommitBoolean:
		api.AssertIsEqual(c.Journal, 1)
	case models.CommitNumeric:
		api.AssertIsEqual(c.Journal, c.PnL)
	default:
		return errors.Errorf("unknown commit mode %q", c.Params.Commit)
	}
	return nil
}

// NewCircuit returns the circuit definition for a policy.
func NewCircuit(cfg models.PolicyConfig) (*PnLCircuit, error) {
	tol, err := toleranceUnits(cfg.Tolerance.Value)
	if err != nil {
		return nil, err
	}
	return &PnLCircuit{
		Params: CircuitParams{
			Leverage:  cfg.Leverage,
			Mode:      cfg.Tolerance.Mode,
			Tolerance: tol,
			Commit:    cfg.Commit,
		},
	}, nil
}

// Assignment is a full witness in circuit units.
type Assignment struct {
	Entry, Current, Claimed, Leverage       *big.Int
	Delta, Ratio, Percent, PnL, Diff, Bound *big.Int
	Journal                                 *big.Int
}

func (a Assignment) circuit() *PnLCircuit {
	return &PnLCircuit{
		Entry:    a.Entry,
		Current:  a.Current,
		Claimed:  a.Claimed,
		Leverage: a.Leverage,
		Delta:    a.Delta,
		Ratio:    a.Ratio,
		Percent:  a.Percent,
		PnL:      a.PnL,
		Diff:     a.Diff,
		Bound:    a.Bound,
		Journal:  a.Journal,
	}
}

// NewAssignment replays the policy's float32 steps for a position and converts them,
// with the journal's public value, to circuit units. Any value outside
// [MinMagnitude, MaxMagnitude] (other than zero) is ErrOutOfRange.
func NewAssignment(cfg models.PolicyConfig, p models.Position, journalValue *big.Int) (Assignment, error) {
	lev := models.DefaultLeverage
	if cfg.Leverage {
		lev = p.Leverage
	}
	s := policy.Trace(cfg.Tolerance, p.EntryPrice, p.CurrentPrice, p.ClaimedPnL, lev)

	a := Assignment{Journal: journalValue}
	for _, f := range []struct {
		name string
		dst  **big.Int
		v    float32
	}{
		{"entry", &a.Entry, p.EntryPrice},
		{"current", &a.Current, p.CurrentPrice},
		{"claimed", &a.Claimed, p.ClaimedPnL},
		{"leverage", &a.Leverage, lev},
		{"delta", &a.Delta, s.Delta},
		{"ratio", &a.Ratio, s.Ratio},
		{"percent", &a.Percent, s.Percent},
		{"pnl", &a.PnL, s.PnL},
		{"diff", &a.Diff, s.Diff},
		{"bound", &a.Bound, s.Bound},
	} {
		u, err := ToUnits(f.v)
		if err != nil {
			return a, errors.Wrap(err, f.name)
		}
		*f.dst = u
	}
	if a.Entry.Sign() == 0 {
		return a, errors.Wrap(ErrOutOfRange, "entry is zero")
	}
	return a, nil
}

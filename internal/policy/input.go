package policy

import "pnl_prover/internal/models"

// Порядок значений во входном векторе. Хост и гостевая программа договариваются о нём
// заранее, теги полей не передаются.
const (
	idxEntry = iota
	idxCurrent
	idxClaimed
	idxLeverage
)

// InputVector: упорядоченный кортеж значений, который читает политика.
type InputVector []float32

// Marshal lays the position out in the order the harness reads it.
func Marshal(cfg models.PolicyConfig, p models.Position) InputVector {
	v := make(InputVector, cfg.Arity())
	v[idxEntry] = p.EntryPrice
	v[idxCurrent] = p.CurrentPrice
	v[idxClaimed] = p.ClaimedPnL
	if cfg.Leverage {
		v[idxLeverage] = p.Leverage
	}
	return v
}

// Unmarshal is the inverse of Marshal. Extra trailing values are ignored.
func Unmarshal(cfg models.PolicyConfig, v InputVector) (models.Position, error) {
	if want := cfg.Arity(); len(v) < want {
		return models.Position{}, &InputArityError{Want: want, Got: len(v)}
	}
	p := models.NewPosition(v[idxEntry], v[idxCurrent], v[idxClaimed])
	if cfg.Leverage {
		p.Leverage = v[idxLeverage]
	}
	return p, nil
}

package policy

import (
	"math"

	"github.com/go-playground/validator/v10"

	"pnl_prover/internal/models"
)

var validate = validator.New()

// ValidatePosition rejects positions the formula is undefined for: zero entry,
// non-positive leverage and non-finite values.
func ValidatePosition(p models.Position) error {
	fields := []struct {
		name string
		v    float32
	}{
		{"entry_price", p.EntryPrice},
		{"current_price", p.CurrentPrice},
		{"claimed_pnl", p.ClaimedPnL},
		{"leverage", p.Leverage},
	}
	for _, f := range fields {
		if math.IsNaN(float64(f.v)) || math.IsInf(float64(f.v), 0) {
			return &InvalidPositionError{Field: f.name, Value: f.v, Reason: "must be finite"}
		}
	}

	if err := validate.Struct(p); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			switch fe.Field() {
			case "EntryPrice":
				return &InvalidPositionError{Field: "entry_price", Value: p.EntryPrice, Reason: "must be non-zero"}
			case "Leverage":
				return &InvalidPositionError{Field: "leverage", Value: p.Leverage, Reason: "must be > 0"}
			}
		}
		return err
	}
	return nil
}

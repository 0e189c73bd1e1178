package models

// Position: одна позиция, для которой проверяется заявленный PnL.
type Position struct {
	EntryPrice   float32 `json:"entry_price" validate:"required"`
	CurrentPrice float32 `json:"current_price"`
	ClaimedPnL   float32 `json:"claimed_pnl"`
	Leverage     float32 `json:"leverage" validate:"gt=0"`
}

const DefaultLeverage float32 = 1.0

// NewPosition builds a position with the default 1x leverage.
func NewPosition(entry, current, claimed float32) Position {
	return Position{
		EntryPrice:   entry,
		CurrentPrice: current,
		ClaimedPnL:   claimed,
		Leverage:     DefaultLeverage,
	}
}

// WithLeverage returns a copy with leverage set; zero keeps the default.
func (p Position) WithLeverage(lev float32) Position {
	if lev == 0 {
		lev = DefaultLeverage
	}
	p.Leverage = lev
	return p
}

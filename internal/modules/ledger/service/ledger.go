package service

import (
	"context"
	"errors"

	"pnl_prover/internal/models"
	prover "pnl_prover/internal/modules/prover/service"
	"pnl_prover/pkg/logger"
)

var ErrNotFound = errors.New("ledger: receipt not found")

// Record: сохранённая квитанция плюс то, что о ней уже известно.
type Record struct {
	Receipt   models.Receipt `json:"receipt"`
	ProofHash string         `json:"proof_hash"`
	Value     string         `json:"value"`
	AnchorTx  string         `json:"anchor_tx,omitempty"`
}

func NewRecord(res *prover.Result) Record {
	return Record{
		Receipt:   *res.Receipt,
		ProofHash: res.Receipt.ProofHash(),
		Value:     res.Value.String(),
	}
}

type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns the newest records first.
	List(ctx context.Context, limit int) ([]Record, error)
	SetAnchor(ctx context.Context, id, tx string) error
}

// Ledger пишет каждую успешную квитанцию в Store.
type Ledger struct {
	Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{Store: store}
}

// OnReceipt implements the prover listener.
func (l *Ledger) OnReceipt(ctx context.Context, res *prover.Result) {
	if err := l.Save(ctx, NewRecord(res)); err != nil {
		logger.Error("ledger: save %s: %v", res.Receipt.ID, err)
	}
}

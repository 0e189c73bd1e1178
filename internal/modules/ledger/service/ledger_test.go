package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnl_prover/internal/journal"
	"pnl_prover/internal/models"
	prover "pnl_prover/internal/modules/prover/service"
	"pnl_prover/pkg/db"
)

func result(created time.Time) *prover.Result {
	pnl := float32(20)
	return &prover.Result{
		Receipt: &models.Receipt{
			ID:              uuid.NewString(),
			Policy:          models.PolicyExact,
			Journal:         []byte{0, 0, 0xa0, 0x41},
			Proof:           []byte{1, 2, 3, 4},
			ProgramIdentity: "abc",
			CreatedAt:       created.UTC().Truncate(time.Microsecond),
		},
		Value: journal.Value{Accepted: true, PnL: &pnl},
	}
}

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	l := NewLedger(store)

	base := time.Now()
	older, newer := result(base.Add(-time.Minute)), result(base)
	l.OnReceipt(ctx, older)
	l.OnReceipt(ctx, newer)

	rec, err := store.Get(ctx, older.Receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, *older.Receipt, rec.Receipt)
	assert.Equal(t, older.Receipt.ProofHash(), rec.ProofHash)
	assert.Equal(t, "pnl=20", rec.Value)
	assert.Empty(t, rec.AnchorTx)

	assert.Error(t, store.Save(ctx, NewRecord(older)), "ids are unique")

	require.NoError(t, store.SetAnchor(ctx, older.Receipt.ID, "0xfeed"))
	rec, err = store.Get(ctx, older.Receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", rec.AnchorTx)

	list, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, newer.Receipt.ID, list[0].Receipt.ID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.SetAnchor(ctx, "missing", "0x1"), ErrNotFound)
}

func TestMemory(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemory())
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("LEDGER_TEST_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DSN is not set")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn, MaxConns: 2})
	require.NoError(t, err)
	tm := db.NewPgTxManager(pool)
	defer tm.Close()

	pg := NewPostgres(tm)
	require.NoError(t, pg.Migrate(ctx))
	_, err = tm.Conn().Exec(ctx, "TRUNCATE pnl_receipts")
	require.NoError(t, err)

	exerciseStore(t, pg)
}

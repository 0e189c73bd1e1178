package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"pnl_prover/pkg/db"
)

const (
	createTableSQL = `
CREATE TABLE IF NOT EXISTS pnl_receipts (
	id               TEXT PRIMARY KEY,
	policy           TEXT        NOT NULL,
	program_identity TEXT        NOT NULL,
	proof_hash       TEXT        NOT NULL,
	anchor_tx        TEXT        NOT NULL DEFAULT '',
	body             JSONB       NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS pnl_receipts_created_at_idx ON pnl_receipts (created_at DESC);`

	insertSQL = `
INSERT INTO pnl_receipts (id, policy, program_identity, proof_hash, anchor_tx, body, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectSQL = `SELECT body, anchor_tx FROM pnl_receipts WHERE id = $1`

	listSQL = `SELECT body, anchor_tx FROM pnl_receipts ORDER BY created_at DESC LIMIT $1`

	setAnchorSQL = `UPDATE pnl_receipts SET anchor_tx = $2 WHERE id = $1`
)

// Postgres хранит квитанции в pnl_receipts; тело записи лежит в jsonb.
type Postgres struct {
	db db.TxManager
}

var _ Store = (*Postgres)(nil)

func NewPostgres(tm db.TxManager) *Postgres {
	return &Postgres{db: tm}
}

// Migrate creates the table when it does not exist.
func (p *Postgres) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Migrate: %w", err)
		}
	}()
	_, err = p.db.Conn().Exec(ctx, createTableSQL)
	return err
}

func (p *Postgres) Save(ctx context.Context, rec Record) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Save: %w", err)
		}
	}()

	body, err := sonic.Marshal(rec)
	if err != nil {
		return err
	}
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertSQL,
			rec.Receipt.ID,
			rec.Receipt.Policy,
			rec.Receipt.ProgramIdentity,
			rec.ProofHash,
			rec.AnchorTx,
			body,
			rec.Receipt.CreatedAt,
		)
		return err
	})
}

func (p *Postgres) Get(ctx context.Context, id string) (rec *Record, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Get %s: %w", id, err)
		}
	}()

	rec, err = scanRecord(p.db.Conn().QueryRow(ctx, selectSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (p *Postgres) List(ctx context.Context, limit int) (out []Record, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.List: %w", err)
		}
	}()
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.db.Conn().Query(ctx, listSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (p *Postgres) SetAnchor(ctx context.Context, id, tx string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.SetAnchor %s: %w", id, err)
		}
	}()

	return p.db.RunMaster(ctx, func(ctxTx context.Context, t pgx.Tx) error {
		tag, err := t.Exec(ctxTx, setAnchorSQL, id, tx)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		body     []byte
		anchorTx string
	)
	if err := row.Scan(&body, &anchorTx); err != nil {
		return nil, err
	}
	var rec Record
	if err := sonic.Unmarshal(body, &rec); err != nil {
		return nil, err
	}
	rec.AnchorTx = anchorTx
	return &rec, nil
}

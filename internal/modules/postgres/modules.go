package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"pnl_prover/internal/modules/config"
	"pnl_prover/pkg/db"
	"pnl_prover/pkg/logger"
)

// квитанции пишутся по одной, большой пул не нужен
const maxConns = 4

// NewTxManager returns nil when no DSN is configured; the ledger then stays in memory.
func NewTxManager(lc fx.Lifecycle, ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
	if cfg.DB == "" {
		logger.Info("postgres: db_dsn is empty, receipts are kept in memory")
		return nil, nil
	}

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN:      cfg.DB,
		MaxConns: maxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	m := db.NewPgTxManager(poolMaster)
	if err = m.Ping(ctx); err != nil {
		m.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			m.Close()
			return nil
		},
	})
	return m, nil
}

// ProvideAppConfig регистрируем как fx-провайдер.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewTxManager,
		),
	)
}

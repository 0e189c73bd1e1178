package ledger

import (
	"go.uber.org/fx"

	"pnl_prover/internal/modules/ledger/service"
	prover "pnl_prover/internal/modules/prover/service"
	"pnl_prover/pkg/db"
)

// NewStore выбирает хранилище: postgres, если пул поднят, иначе память.
func NewStore(lc fx.Lifecycle, tm *db.PgTxManager) service.Store {
	if tm == nil {
		return service.NewMemory()
	}
	pg := service.NewPostgres(tm)
	lc.Append(fx.Hook{
		OnStart: pg.Migrate,
	})
	return pg
}

func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(
			NewStore,
			service.NewLedger,
			fx.Annotate(
				func(l *service.Ledger) prover.Listener { return l },
				fx.ResultTags(`group:"receipt_listeners"`),
			),
		),
	)
}

package telegram

import (
	"context"

	"go.uber.org/fx"

	anchor "pnl_prover/internal/modules/anchor/service"
	"pnl_prover/internal/modules/config"
	ledger "pnl_prover/internal/modules/ledger/service"
	prover "pnl_prover/internal/modules/prover/service"
	"pnl_prover/internal/modules/telegram_bot/service"
	verifier "pnl_prover/internal/modules/verifier/service"
	"pnl_prover/internal/zkvm"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// Сервис Telegram как *service.Telegram
		fx.Provide(
			func(
				cfg *config.Config,
				o *prover.Orchestrator,
				a *anchor.Anchor,
				l *ledger.Ledger,
				v *verifier.Verifier,
				store *zkvm.Store,
			) (*service.Telegram, error) {
				return service.NewTelegram(cfg, o, a, l, v, store)
			},
		),
		// Запуск основного цикла через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						// ctx старта живёт только до конца OnStart
						t.Start(context.Background())
						return nil
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}

package anchor

import (
	"context"

	"go.uber.org/fx"

	"pnl_prover/internal/modules/anchor/service"
	"pnl_prover/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("anchor",
		fx.Provide(
			func(lc fx.Lifecycle, ctx context.Context, cfg *config.Config) (*service.Anchor, error) {
				a, err := service.New(ctx, cfg.Anchor)
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						a.Close()
						return nil
					},
				})
				return a, nil
			},
		),
	)
}

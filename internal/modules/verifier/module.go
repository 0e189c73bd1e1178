package verifier

import (
	"go.uber.org/fx"

	"pnl_prover/internal/modules/verifier/service"
	"pnl_prover/internal/zkvm"
)

func Module() fx.Option {
	return fx.Module("verifier",
		fx.Provide(
			func(store *zkvm.Store, rt zkvm.Runtime) *service.Verifier {
				return service.NewVerifier(store, rt)
			},
		),
	)
}

package prover

import (
	"context"

	"go.uber.org/fx"

	"pnl_prover/internal/modules/config"
	health "pnl_prover/internal/modules/health/service"
	"pnl_prover/internal/modules/prover/service"
	"pnl_prover/internal/zkvm"
	"pnl_prover/pkg/logger"
)

type Params struct {
	fx.In

	Cfg       *config.Config
	Store     *zkvm.Store
	Runtime   zkvm.Runtime
	Listeners []service.Listener `group:"receipt_listeners"`
}

func NewStore(cfg *config.Config) *zkvm.Store {
	return zkvm.NewStore(cfg.Prover.ArtifactsDir)
}

func NewOrchestrator(p Params) *service.Orchestrator {
	return service.NewOrchestrator(p.Store, p.Runtime, p.Cfg.Prover.Policies, p.Cfg.Prover.Timeout, p.Listeners...)
}

// Warmup загружает (или собирает) программы всех политик и выставляет готовность.
func Warmup(cfg *config.Config, store *zkvm.Store, state *health.State) int {
	loaded := 0
	for _, p := range cfg.Prover.Policies {
		prog, err := store.Load(p.Name)
		if err != nil && cfg.Prover.AutoSetup {
			logger.Info("prover: building program for %s", p)
			prog, err = store.Build(p)
		}
		if err != nil {
			logger.Error("prover: policy %s unavailable: %v", p.Name, err)
			continue
		}
		if prog.Policy != p {
			logger.Error("prover: program %s was built for %s, rebuild with setup", prog.Identity, prog.Policy)
			continue
		}
		logger.Info("prover: %s identity=%s", p.Name, prog.Identity)
		loaded++
	}

	state.SetPrograms(loaded)
	_, defaultErr := store.Load(cfg.Prover.DefaultPolicy)
	state.SetReady(defaultErr == nil)
	return loaded
}

func Module() fx.Option {
	return fx.Module("prover",
		fx.Provide(
			NewStore,
			fx.Annotate(zkvm.NewGroth16, fx.As(new(zkvm.Runtime))),
			NewOrchestrator,
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, store *zkvm.Store, state *health.State) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					// setup может занять время, поэтому не держим старт приложения
					go Warmup(cfg, store, state)
					return nil
				},
			})
		}),
	)
}

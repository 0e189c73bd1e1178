package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"pnl_prover/internal/modules/anchor"
	"pnl_prover/internal/modules/config"
	"pnl_prover/internal/modules/health"
	"pnl_prover/internal/modules/ledger"
	"pnl_prover/internal/modules/postgres"
	"pnl_prover/internal/modules/prover"
	telegram "pnl_prover/internal/modules/telegram_bot"
	"pnl_prover/internal/modules/verifier"
	"pnl_prover/pkg/logger"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot with the admin HTTP server",
	Long: `Bot starts the Telegram front-end, the receipt ledger (postgres when db_dsn is
set, memory otherwise), the optional on-chain anchor and the admin server
with /livez, /readyz, /healthz, /metrics and the /ws/receipts feed.`,
	Args: cobra.NoArgs,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(*cobra.Command, []string) error {
	app := fx.New(botOptions(appConfig)...)
	app.Run()
	return app.Err()
}

func botOptions(cfg *config.Config) []fx.Option {
	return []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.InfoLogger.With(zap.String("service", serviceName))}
		}),
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(cfg),
		postgres.Module(),
		ledger.Module(),
		health.Module(),
		anchor.Module(),
		prover.Module(),
		verifier.Module(),
		telegram.Module(),
	}
}

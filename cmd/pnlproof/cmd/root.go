package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"pnl_prover/internal/modules/config"
	"pnl_prover/internal/zkvm"
	"pnl_prover/pkg/logger"
	"pnl_prover/pkg/tracing"
)

const serviceName = "pnlproof"

var (
	cfgFile      string
	artifactsDir string

	appConfig    *config.Config
	closeTracing = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "pnlproof",
	Short: "Prove and verify claimed PnL with zero-knowledge receipts",
	Long: `pnlproof proves that a claimed PnL percentage for a position matches
((current - entry) / entry) * 100 * leverage within a policy tolerance,
and verifies the resulting receipts against a trusted program identity.

Typical flow:
  pnlproof setup
  pnlproof prove --policy exact --entry 100 --current 120 --pnl 20 --out r.json
  pnlproof verify --receipt r.json --identity <hex>`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	PersistentPostRun: func(*cobra.Command, []string) {
		closeTracing()
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is configs/$CONFIG_FILE or configs/values_local.yaml)")
	rootCmd.PersistentFlags().StringVar(&artifactsDir, "artifacts", "", "artifact directory, overrides prover.artifacts_dir")
}

func initApp(*cobra.Command, []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, err = config.NewConfig()
	}
	if err != nil {
		return err
	}
	if artifactsDir != "" {
		appConfig.Prover.ArtifactsDir = artifactsDir
	}

	if err = logger.Init(appConfig.Log); err != nil {
		return err
	}
	logger.SetServiceName(serviceName)
	tracing.SetServiceName(serviceName)

	_, closer, err := tracing.InitTracer(appConfig.Tracing)
	if err != nil {
		return errors.Wrap(err, "init tracer")
	}
	closeTracing = closer
	return nil
}

func openStore() *zkvm.Store {
	return zkvm.NewStore(appConfig.Prover.ArtifactsDir)
}

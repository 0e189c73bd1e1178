package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"pnl_prover/internal/models"
	prover "pnl_prover/internal/modules/prover/service"
	verifier "pnl_prover/internal/modules/verifier/service"
	"pnl_prover/internal/zkvm"
)

var (
	provePolicy   string
	proveEntry    float32
	proveCurrent  float32
	provePnL      float32
	proveLeverage float32
	proveOut      string
	proveTimeout  time.Duration
)

var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "Prove a claimed PnL and verify the fresh receipt",
	Long: `Prove runs the policy over the position inside the prover and prints the
committed value and proof hash. The receipt is then verified against the
policy's program identity.

Exits non-zero when the claim is rejected, the position is invalid, proving
fails or the receipt does not verify.

Examples:
  pnlproof prove --policy exact --entry 100 --current 120 --pnl 20
  pnlproof prove --policy leveraged --entry 100 --current 150 --pnl 95 --leverage 2 --out r.json`,
	Args: cobra.NoArgs,
	RunE: runProve,
}

func init() {
	rootCmd.AddCommand(proveCmd)
	f := proveCmd.Flags()
	f.StringVarP(&provePolicy, "policy", "p", "", "policy name (default prover.default_policy)")
	f.Float32Var(&proveEntry, "entry", 0, "entry price")
	f.Float32Var(&proveCurrent, "current", 0, "current price")
	f.Float32Var(&provePnL, "pnl", 0, "claimed PnL percentage")
	f.Float32Var(&proveLeverage, "leverage", models.DefaultLeverage, "leverage multiplier")
	f.StringVarP(&proveOut, "out", "o", "", "write the receipt as JSON to this file")
	f.DurationVar(&proveTimeout, "timeout", 0, "proving timeout (default prover.timeout)")
	_ = proveCmd.MarkFlagRequired("entry")
	_ = proveCmd.MarkFlagRequired("current")
	_ = proveCmd.MarkFlagRequired("pnl")
}

func runProve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	name := provePolicy
	if name == "" {
		name = appConfig.Prover.DefaultPolicy
	}
	timeout := appConfig.Prover.Timeout
	if proveTimeout > 0 {
		timeout = proveTimeout
	}

	store := openStore()
	rt := zkvm.NewGroth16()
	orchestrator := prover.NewOrchestrator(store, rt, appConfig.Prover.Policies, timeout)

	pos := models.NewPosition(proveEntry, proveCurrent, provePnL).WithLeverage(proveLeverage)
	res, err := orchestrator.Run(ctx, name, pos)
	if err != nil {
		var perr *prover.ProvingError
		if errors.As(err, &perr) && perr.Reason != nil {
			fmt.Fprintln(out, perr.Reason)
		}
		return err
	}

	fmt.Fprintf(out, "policy: %s\n", res.Policy.Name)
	if res.Value.PnL != nil {
		fmt.Fprintf(out, "committed pnl: %g\n", *res.Value.PnL)
	} else {
		fmt.Fprintf(out, "committed: accepted=%t\n", res.Value.Accepted)
	}
	fmt.Fprintf(out, "receipt: %s\n", res.Receipt.ID)
	fmt.Fprintf(out, "proof hash: %s\n", res.Receipt.ProofHash())

	if proveOut != "" {
		if err = writeReceipt(proveOut, res.Receipt); err != nil {
			return err
		}
		fmt.Fprintf(out, "receipt written to %s\n", proveOut)
	}

	prog, err := store.Load(name)
	if err != nil {
		return err
	}
	return printVerdict(cmd, verifier.NewVerifier(store, rt).Verify(ctx, res.Receipt, prog.Identity))
}

func printVerdict(cmd *cobra.Command, err error) error {
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "verification: rejected")
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "verification: accepted")
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	anchor "pnl_prover/internal/modules/anchor/service"
)

var anchorReceipt string

var anchorCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Publish a receipt's proof hash to the ProofVerifier contract",
	Long: `Anchor sends addProofHash(sha256(proof hash)) to the configured contract and
waits for the transaction to be mined. Requires anchor.enabled in the config
and ANCHOR_PRIVATE_KEY (or anchor.private_key).`,
	Args: cobra.NoArgs,
	RunE: runAnchor,
}

func init() {
	rootCmd.AddCommand(anchorCmd)
	anchorCmd.Flags().StringVarP(&anchorReceipt, "receipt", "r", "", "receipt JSON file")
	_ = anchorCmd.MarkFlagRequired("receipt")
}

func runAnchor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	receipt, err := readReceipt(anchorReceipt)
	if err != nil {
		return err
	}

	a, err := anchor.New(ctx, appConfig.Anchor)
	if err != nil {
		return err
	}
	defer a.Close()

	tx, err := a.Submit(ctx, receipt)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "proof hash: %s\ntx: %s\n%s\n", receipt.ProofHash(), tx, a.Link(tx))
	return nil
}

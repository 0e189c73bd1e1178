package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	verifier "pnl_prover/internal/modules/verifier/service"
	"pnl_prover/internal/zkvm"
)

var (
	verifyReceipt  string
	verifyIdentity string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a receipt against a trusted program identity",
	Long: `Verify checks the receipt's proof with the verifying key of the given program
identity and prints the journal. A receipt from any other program is rejected,
even when its proof is valid for that program.

Without --identity the identity recorded in the local manifest for the receipt's
policy is trusted.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyReceipt, "receipt", "r", "", "receipt JSON file")
	verifyCmd.Flags().StringVar(&verifyIdentity, "identity", "", "expected program identity (hex)")
	_ = verifyCmd.MarkFlagRequired("receipt")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	receipt, err := readReceipt(verifyReceipt)
	if err != nil {
		return err
	}

	store := openStore()
	identity := verifyIdentity
	if identity == "" {
		m, err := store.Manifest()
		if err != nil {
			return err
		}
		for _, e := range m.Programs {
			if e.Name == receipt.Policy {
				identity = e.Identity
			}
		}
		if identity == "" {
			return fmt.Errorf("no identity for policy %q: pass --identity or run setup: %w", receipt.Policy, zkvm.ErrProgramNotFound)
		}
	}

	value, err := verifier.NewVerifier(store, zkvm.NewGroth16()).Read(ctx, receipt, identity)
	if err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "receipt: %s\njournal: %s\nproof hash: %s\n", receipt.ID, value, receipt.ProofHash())
	}
	return printVerdict(cmd, err)
}

package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"pnl_prover/internal/zkvm"
)

var identityPolicy string

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Print program identities",
	Long: `Identity prints the program identity (hex sha256 of the verifying key) of one
policy, or of every built policy when --policy is not given. Verifiers pin this value.`,
	Args: cobra.NoArgs,
	RunE: runIdentity,
}

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.Flags().StringVarP(&identityPolicy, "policy", "p", "", "policy name")
}

func runIdentity(cmd *cobra.Command, _ []string) error {
	store := openStore()
	out := cmd.OutOrStdout()

	m, err := store.Manifest()
	if err != nil {
		return err
	}

	found := false
	for _, e := range m.Programs {
		if identityPolicy != "" && e.Name != identityPolicy {
			continue
		}
		// ключ на диске должен совпадать с манифестом
		if _, err = store.ByIdentity(e.Identity); err != nil {
			return err
		}
		found = true
		if identityPolicy != "" {
			fmt.Fprintln(out, e.Identity)
			return nil
		}
		fmt.Fprintf(out, "%-16s %s %s\n", e.Name, e.Identity, e.Policy)
	}
	if !found {
		return errors.Wrapf(zkvm.ErrProgramNotFound, "run setup first (artifacts: %s)", store.Dir())
	}
	return nil
}

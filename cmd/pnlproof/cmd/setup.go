package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"pnl_prover/internal/models"
)

var setupPolicies []string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Compile policy circuits and generate proving/verifying keys",
	Long: `Setup compiles the circuit of every configured policy (or only those given
with --policy), runs the Groth16 setup and writes the artifacts and manifest.
Rebuilding a policy changes its program identity.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().StringSliceVarP(&setupPolicies, "policy", "p", nil, "policy to build (repeatable, default all)")
}

func runSetup(cmd *cobra.Command, _ []string) error {
	policies := appConfig.Prover.Policies
	if len(setupPolicies) > 0 {
		policies = make([]models.PolicyConfig, 0, len(setupPolicies))
		for _, name := range setupPolicies {
			p, ok := appConfig.Policy(name)
			if !ok {
				return errors.Errorf("unknown policy %q", name)
			}
			policies = append(policies, p)
		}
	}

	store := openStore()
	out := cmd.OutOrStdout()
	for _, p := range policies {
		prog, err := store.Build(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-16s %s constraints=%d\n", p.Name, prog.Identity, prog.CCS.GetNbConstraints())
	}
	fmt.Fprintf(out, "artifacts written to %s\n", store.Dir())
	return nil
}

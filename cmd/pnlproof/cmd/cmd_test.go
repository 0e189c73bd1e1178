package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"pnl_prover/internal/modules/config"

	prover "pnl_prover/internal/modules/prover/service"
	verifier "pnl_prover/internal/modules/verifier/service"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestProveAndVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup in -short")
	}

	dir := t.TempDir()
	base := []string{"--config", filepath.Join(dir, "missing.yaml"), "--artifacts", dir}
	run := func(args ...string) (string, error) {
		return execute(t, append(args, base...)...)
	}

	out, err := run("setup", "--policy", "exact")
	require.NoError(t, err)
	assert.Contains(t, out, "exact")

	out, err = run("identity", "--policy", "exact")
	require.NoError(t, err)
	identity := strings.TrimSpace(out)
	assert.Len(t, identity, 64)

	receiptFile := filepath.Join(dir, "receipt.json")
	out, err = run("prove", "--policy", "exact",
		"--entry", "100", "--current", "120", "--pnl", "20", "--leverage", "1", "--out", receiptFile)
	require.NoError(t, err)
	assert.Contains(t, out, "committed pnl: 20")
	assert.Contains(t, out, "verification: accepted")

	out, err = run("verify", "--receipt", receiptFile, "--identity", identity)
	require.NoError(t, err)
	assert.Contains(t, out, "verification: accepted")

	out, err = run("verify", "--receipt", receiptFile, "--identity", strings.Repeat("0", 64))
	var verr *verifier.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, verifier.KindIdentityMismatch, verr.Kind)
	assert.Contains(t, out, "verification: rejected")

	_, err = run("prove", "--policy", "exact",
		"--entry", "100", "--current", "120", "--pnl", "25", "--leverage", "1", "--out", "")
	var perr *prover.ProvingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, prover.KindVerificationMismatch, perr.Kind)
}

func TestIdentityWithoutSetup(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "identity", "--policy", "exact",
		"--config", filepath.Join(dir, "missing.yaml"), "--artifacts", dir)
	require.Error(t, err)
}

func TestBotGraph(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, fx.ValidateApp(botOptions(cfg)...))
}

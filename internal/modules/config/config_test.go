package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnl_prover/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "values_test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_LocalValues(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "values_local.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "artifacts", cfg.Prover.ArtifactsDir)
	assert.Equal(t, 2*time.Minute, cfg.Prover.Timeout)
	assert.Equal(t, models.DefaultPolicies(), cfg.Prover.Policies)
	assert.Equal(t, ":8080", cfg.AdminAddr())
	assert.False(t, cfg.Anchor.Enabled)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Len(t, cfg.Prover.Policies, 4)
	p, ok := cfg.Policy(models.PolicyLeveraged)
	require.True(t, ok)
	assert.Equal(t, models.Relative(0.15), p.Tolerance)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(tokenTelegramENV, "tg-token")
	t.Setenv(databaseDSN, "postgres://localhost/pnl")
	t.Setenv(artifactsDirENV, "/tmp/keys")
	t.Setenv("PROVE_TIMEOUT", "15s")

	cfg, err := Load(writeConfig(t, "prover:\n  timeout: 1m\n"))
	require.NoError(t, err)

	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.Equal(t, "postgres://localhost/pnl", cfg.DB)
	assert.Equal(t, "/tmp/keys", cfg.Prover.ArtifactsDir)
	assert.Equal(t, 15*time.Second, cfg.Prover.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"anchor without rpc", "anchor:\n  enabled: true\n  rpc_url: \"\"\n"},
		{"unknown default policy", "prover:\n  default_policy: nope\n"},
		{"bad commit mode", "prover:\n  default_policy: x\n  policies:\n    - name: x\n      tolerance: {mode: exact, value: 0.1}\n      commit: maybe\n"},
		{"bad tolerance mode", "prover:\n  default_policy: x\n  policies:\n    - name: x\n      tolerance: {mode: fuzzy, value: 0.1}\n      commit: numeric\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_CustomPolicy(t *testing.T) {
	body := `
prover:
  default_policy: tight
  policies:
    - name: tight
      leverage: true
      tolerance: {mode: relative, value: 0.01}
      commit: numeric
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	p, ok := cfg.Policy("tight")
	require.True(t, ok)
	assert.Equal(t, models.PolicyConfig{Name: "tight", Leverage: true, Tolerance: models.Relative(0.01), Commit: models.CommitNumeric}, p)
}

package guest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnl_prover/internal/journal"
	"pnl_prover/internal/models"
	"pnl_prover/internal/policy"
)

var (
	exactNumeric = models.PolicyConfig{Name: "exact", Tolerance: models.Exact(0.0001), Commit: models.CommitNumeric}
	levBoolean   = models.PolicyConfig{Name: "leveraged", Leverage: true, Tolerance: models.Relative(0.15), Commit: models.CommitBoolean}
)

func TestHarness_Committed(t *testing.T) {
	t.Parallel()

	h := New(exactNumeric)
	require.Equal(t, StateIdle, h.State())

	env := &SliceEnv{Inputs: policy.InputVector{100, 120, 20}}
	res := h.Run(env)

	require.NoError(t, res.Fault)
	assert.Equal(t, StateCommitted, res.State)
	assert.Equal(t, StateCommitted, h.State())
	assert.Equal(t, env.Journal, res.Journal)
	assert.Empty(t, res.Reason())

	v, err := journal.Decode(res.Journal, models.CommitNumeric)
	require.NoError(t, err)
	assert.Equal(t, float32(20), *v.PnL)
}

func TestHarness_ScenarioCBoolean(t *testing.T) {
	t.Parallel()

	res := Execute(levBoolean, policy.InputVector{100, 150, 95, 2})
	require.Equal(t, StateCommitted, res.State)
	assert.Equal(t, []byte{1, 0, 0, 0}, res.Journal)
}

func TestHarness_AbortedHasNoJournal(t *testing.T) {
	t.Parallel()

	env := &SliceEnv{Inputs: policy.InputVector{100, 120, 20.5}}
	res := New(exactNumeric).Run(env)

	assert.Equal(t, StateAborted, res.State)
	assert.Nil(t, res.Journal)
	assert.Nil(t, env.Journal)
	assert.NoError(t, res.Fault)
	require.NotNil(t, res.Outcome.Reason)
	assert.Contains(t, res.Reason(), "calculated = 20.000000")
}

func TestHarness_ArityFault(t *testing.T) {
	t.Parallel()

	res := Execute(levBoolean, policy.InputVector{100, 150, 95})
	assert.Equal(t, StateAborted, res.State)
	assert.Nil(t, res.Journal)

	var aerr *policy.InputArityError
	require.True(t, errors.As(res.Fault, &aerr))
	assert.Equal(t, 4, aerr.Want)
	assert.Contains(t, res.Reason(), "input arity")
}

func TestHarness_InvalidPositionFault(t *testing.T) {
	t.Parallel()

	res := Execute(exactNumeric, policy.InputVector{0, 120, 20})
	var perr *policy.InvalidPositionError
	require.True(t, errors.As(res.Fault, &perr))
	assert.Equal(t, StateAborted, res.State)
}

func TestHarness_RunsOnce(t *testing.T) {
	t.Parallel()

	h := New(exactNumeric)
	first := h.Run(&SliceEnv{Inputs: policy.InputVector{100, 120, 20}})
	require.Equal(t, StateCommitted, first.State)

	second := h.Run(&SliceEnv{Inputs: policy.InputVector{100, 120, 20}})
	assert.ErrorIs(t, second.Fault, ErrFinished)
	assert.Equal(t, StateCommitted, h.State())
}

type failingEnv struct{}

func (failingEnv) Read() (policy.InputVector, error) { return nil, errors.New("stdin closed") }
func (failingEnv) Commit([]byte) error               { return nil }

func TestHarness_EnvReadFailure(t *testing.T) {
	t.Parallel()

	res := New(exactNumeric).Run(failingEnv{})
	assert.Equal(t, StateAborted, res.State)
	assert.Contains(t, res.Fault.Error(), "stdin closed")
}

// Package guest is the program executed inside the proving runtime:
// read inputs, evaluate the policy, commit the journal or abort.
package guest

import (
	"github.com/pkg/errors"

	"pnl_prover/internal/journal"
	"pnl_prover/internal/models"
	"pnl_prover/internal/policy"
)

type State string

const (
	StateIdle       State = "idle"
	StateInputsRead State = "inputs_read"
	StateEvaluated  State = "evaluated"
	StateCommitted  State = "committed"
	StateAborted    State = "aborted"
)

var ErrFinished = errors.New("guest: harness already ran")

// Env: то, что рантайм предоставляет гостю: чтение входов и запись журнала.
type Env interface {
	Read() (policy.InputVector, error)
	Commit(payload []byte) error
}

// Result of one run. Journal is set only in StateCommitted. Fault is set when the run
// aborted before the policy could decide (arity, invalid position, env failure).
type Result struct {
	State   State
	Outcome models.Outcome
	Journal []byte
	Fault   error
}

// Reason is the human-readable abort reason, empty for committed runs.
func (r Result) Reason() string {
	switch {
	case r.Fault != nil:
		return r.Fault.Error()
	case r.Outcome.Reason != nil:
		return r.Outcome.Reason.String()
	}
	return ""
}

// Harness runs the policy once. Not safe for concurrent use; create one per execution.
type Harness struct {
	cfg   models.PolicyConfig
	state State
}

func New(cfg models.PolicyConfig) *Harness {
	return &Harness{cfg: cfg, state: StateIdle}
}

func (h *Harness) State() State { return h.state }

func (h *Harness) Run(env Env) Result {
	if h.state != StateIdle {
		return Result{State: h.state, Fault: ErrFinished}
	}

	inputs, err := env.Read()
	if err != nil {
		return h.fault(errors.Wrap(err, "read inputs"))
	}
	pos, err := policy.Unmarshal(h.cfg, inputs)
	if err != nil {
		return h.fault(err)
	}
	h.state = StateInputsRead

	out, err := policy.Evaluate(h.cfg, pos)
	if err != nil {
		return h.fault(err)
	}
	h.state = StateEvaluated

	if out.IsAborted() {
		h.state = StateAborted
		return Result{State: h.state, Outcome: out}
	}

	payload, err := journal.Encode(out, h.cfg.Commit)
	if err != nil {
		return h.fault(err)
	}
	if err = env.Commit(payload); err != nil {
		return h.fault(errors.Wrap(err, "commit journal"))
	}
	h.state = StateCommitted
	return Result{State: h.state, Outcome: out, Journal: payload}
}

func (h *Harness) fault(err error) Result {
	h.state = StateAborted
	return Result{State: h.state, Fault: err}
}

// SliceEnv is an in-memory Env over a fixed input vector.
type SliceEnv struct {
	Inputs  policy.InputVector
	Journal []byte
	read    bool
}

func (e *SliceEnv) Read() (policy.InputVector, error) {
	if e.read {
		return nil, errors.New("inputs already consumed")
	}
	e.read = true
	return e.Inputs, nil
}

func (e *SliceEnv) Commit(payload []byte) error {
	if e.Journal != nil {
		return errors.New("journal already committed")
	}
	e.Journal = append([]byte(nil), payload...)
	return nil
}

// Execute runs a fresh harness over inputs.
func Execute(cfg models.PolicyConfig, inputs policy.InputVector) Result {
	return New(cfg).Run(&SliceEnv{Inputs: inputs})
}

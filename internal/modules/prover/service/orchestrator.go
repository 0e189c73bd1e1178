package service

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"

	"pnl_prover/internal/journal"
	"pnl_prover/internal/models"
	"pnl_prover/internal/policy"
	"pnl_prover/internal/zkvm"
	"pnl_prover/pkg/logger"
	"pnl_prover/pkg/metrics"
	"pnl_prover/pkg/tracing"
)

var ErrUnknownPolicy = errors.New("unknown policy")

// ProgramSource отдаёт скомпилированную программу по имени политики.
type ProgramSource interface {
	Load(name string) (*zkvm.Program, error)
}

// Listener получает каждую успешную квитанцию (леджер, websocket-лента).
type Listener interface {
	OnReceipt(ctx context.Context, res *Result)
}

// Result of a successful run.
type Result struct {
	Receipt *models.Receipt
	Value   journal.Value
	Policy  models.PolicyConfig
	Elapsed time.Duration
}

type Orchestrator struct {
	programs  ProgramSource
	runtime   zkvm.Runtime
	policies  []models.PolicyConfig
	timeout   time.Duration
	listeners []Listener
}

func NewOrchestrator(
	programs ProgramSource,
	runtime zkvm.Runtime,
	policies []models.PolicyConfig,
	timeout time.Duration,
	listeners ...Listener,
) *Orchestrator {
	return &Orchestrator{
		programs:  programs,
		runtime:   runtime,
		policies:  policies,
		timeout:   timeout,
		listeners: listeners,
	}
}

// Policies returns the configured policies.
func (o *Orchestrator) Policies() []models.PolicyConfig {
	return o.policies
}

// Run proves a position under a configured policy.
func (o *Orchestrator) Run(ctx context.Context, policyName string, pos models.Position) (*Result, error) {
	cfg, ok := models.FindPolicy(o.policies, policyName)
	if !ok {
		return nil, &ProvingError{Kind: KindRuntimeFailure, Policy: policyName, Err: ErrUnknownPolicy}
	}
	return o.RunPolicy(ctx, cfg, pos)
}

// RunPolicy proves a position under an explicit policy. The compiled program is looked up
// by cfg.Name and must have been built from the same configuration.
func (o *Orchestrator) RunPolicy(ctx context.Context, cfg models.PolicyConfig, pos models.Position) (res *Result, err error) {
	span, ctx := tracing.StartSpan(ctx, "prover.run")
	span.SetTag("policy", cfg.Name)
	started := time.Now()
	defer func() {
		result := metrics.ResultAccepted
		var perr *ProvingError
		if errors.As(err, &perr) {
			result = string(perr.Kind)
			ext.Error.Set(span, true)
			span.SetTag("error.kind", string(perr.Kind))
		}
		metrics.ObserveProve(cfg.Name, result, started)
		span.Finish()
	}()

	if !cfg.Leverage {
		pos.Leverage = models.DefaultLeverage
	}
	if err = policy.ValidatePosition(pos); err != nil {
		return nil, o.fail(cfg, KindInvalidPosition, err)
	}

	prog, err := o.programs.Load(cfg.Name)
	if err != nil {
		return nil, o.fail(cfg, KindRuntimeFailure, err)
	}
	if prog.Policy != cfg {
		return nil, o.fail(cfg, KindRuntimeFailure, errors.Errorf("program %s was built for %s", prog.Identity, prog.Policy))
	}

	receipt, err := o.execute(ctx, prog, policy.Marshal(cfg, pos))
	if err != nil {
		return nil, o.classify(cfg, err)
	}

	value, err := journal.Decode(receipt.Journal, cfg.Commit)
	if err != nil {
		return nil, o.fail(cfg, KindRuntimeFailure, errors.Wrap(err, "decode journal"))
	}

	res = &Result{Receipt: receipt, Value: value, Policy: cfg, Elapsed: time.Since(started)}
	logger.Info("prover: %s accepted id=%s %s proof_hash=%s in %s",
		cfg.Name, receipt.ID, value, receipt.ProofHash(), res.Elapsed)

	for _, l := range o.listeners {
		l.OnReceipt(ctx, res)
	}
	return res, nil
}

type execResult struct {
	receipt *models.Receipt
	err     error
}

// execute runs the prover in its own goroutine so an expired context returns at once.
// Proving itself is not interruptible; the late result is dropped.
func (o *Orchestrator) execute(ctx context.Context, prog *zkvm.Program, inputs policy.InputVector) (*models.Receipt, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	done := make(chan execResult, 1)
	go func() {
		r, err := o.runtime.Execute(ctx, prog, inputs)
		done <- execResult{receipt: r, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "proving interrupted")
	case r := <-done:
		return r.receipt, r.err
	}
}

func (o *Orchestrator) classify(cfg models.PolicyConfig, err error) error {
	var (
		abort   *zkvm.AbortError
		invalid *policy.InvalidPositionError
	)
	switch {
	case errors.As(err, &abort):
		reason := abort.Reason
		logger.Info("prover: %s rejected: %s", cfg.Name, reason)
		return &ProvingError{Kind: KindVerificationMismatch, Policy: cfg.Name, Reason: &reason, Err: err}
	case errors.As(err, &invalid), errors.Is(err, zkvm.ErrOutOfRange):
		return o.fail(cfg, KindInvalidPosition, err)
	}
	return o.fail(cfg, KindRuntimeFailure, err)
}

func (o *Orchestrator) fail(cfg models.PolicyConfig, kind Kind, err error) error {
	if kind == KindRuntimeFailure {
		logger.Error("prover: %s failed: %v", cfg.Name, err)
	} else {
		logger.Info("prover: %s %s: %v", cfg.Name, kind, err)
	}
	return &ProvingError{Kind: kind, Policy: cfg.Name, Err: err}
}

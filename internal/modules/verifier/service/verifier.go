package service

import (
	"context"

	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"

	"pnl_prover/internal/journal"
	"pnl_prover/internal/models"
	"pnl_prover/internal/zkvm"
	"pnl_prover/pkg/logger"
	"pnl_prover/pkg/metrics"
	"pnl_prover/pkg/tracing"
)

var ErrNoReceipt = errors.New("no receipt")

// KeySource отдаёт ключ проверки по идентичности программы.
type KeySource interface {
	ByIdentity(id string) (*zkvm.Program, error)
}

// Verifier checks receipts against a trusted program identity. It never re-evaluates the policy.
type Verifier struct {
	keys    KeySource
	runtime zkvm.Runtime
}

func NewVerifier(keys KeySource, runtime zkvm.Runtime) *Verifier {
	return &Verifier{keys: keys, runtime: runtime}
}

// Verify returns nil when the receipt was produced by the program with expectedIdentity
// and its proof matches its journal.
func (v *Verifier) Verify(ctx context.Context, receipt *models.Receipt, expectedIdentity string) (err error) {
	span, ctx := tracing.StartSpan(ctx, "verifier.verify")
	span.SetTag("identity", expectedIdentity)
	defer func() {
		result := metrics.ResultAccepted
		var verr *VerificationError
		if errors.As(err, &verr) {
			result = string(verr.Kind)
			ext.Error.Set(span, true)
		}
		metrics.VerifyTotal.WithLabelValues(result).Inc()
		span.Finish()
	}()

	if receipt == nil {
		return &VerificationError{Kind: KindInvalidProof, Expected: expectedIdentity, Err: ErrNoReceipt}
	}
	if receipt.ProgramIdentity != expectedIdentity {
		logger.Info("verifier: receipt %s identity mismatch", receipt.ID)
		return &VerificationError{Kind: KindIdentityMismatch, Expected: expectedIdentity, Got: receipt.ProgramIdentity}
	}

	prog, err := v.keys.ByIdentity(expectedIdentity)
	if err != nil {
		return &VerificationError{Kind: KindUnknownProgram, Expected: expectedIdentity, Got: receipt.ProgramIdentity, Err: err}
	}

	if err = v.runtime.Verify(ctx, prog, receipt); err != nil {
		logger.Info("verifier: receipt %s rejected: %v", receipt.ID, err)
		return &VerificationError{Kind: KindInvalidProof, Expected: expectedIdentity, Got: receipt.ProgramIdentity, Err: err}
	}
	return nil
}

// Read verifies the receipt and then decodes its journal under the program's commit mode.
func (v *Verifier) Read(ctx context.Context, receipt *models.Receipt, expectedIdentity string) (journal.Value, error) {
	if err := v.Verify(ctx, receipt, expectedIdentity); err != nil {
		return journal.Value{}, err
	}
	prog, err := v.keys.ByIdentity(expectedIdentity)
	if err != nil {
		return journal.Value{}, &VerificationError{Kind: KindUnknownProgram, Expected: expectedIdentity, Err: err}
	}
	return journal.Decode(receipt.Journal, prog.Policy.Commit)
}

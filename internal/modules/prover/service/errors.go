package service

import (
	"fmt"

	"pnl_prover/internal/models"
)

type Kind string

const (
	// KindVerificationMismatch: гость отверг заявленный PnL. Повтор не поможет.
	KindVerificationMismatch Kind = "verification_mismatch"
	// KindInvalidPosition: позицию нельзя даже посчитать (нулевой вход, плечо <= 0, вне диапазона).
	KindInvalidPosition Kind = "invalid_position"
	// KindRuntimeFailure: нет программы, упал рантайм, таймаут.
	KindRuntimeFailure Kind = "runtime_failure"
)

// ProvingError is the only error Run returns.
type ProvingError struct {
	Kind   Kind
	Policy string
	// Reason is set for KindVerificationMismatch.
	Reason *models.AbortReason
	Err    error
}

func (e *ProvingError) Error() string {
	switch {
	case e.Reason != nil:
		return fmt.Sprintf("prove %s: %s: %s", e.Policy, e.Kind, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("prove %s: %s: %v", e.Policy, e.Kind, e.Err)
	}
	return fmt.Sprintf("prove %s: %s", e.Policy, e.Kind)
}

func (e *ProvingError) Unwrap() error { return e.Err }

// Retryable reports whether running the same request again may succeed.
func (e *ProvingError) Retryable() bool {
	return e.Kind == KindRuntimeFailure
}

package zkvm

import (
	"fmt"

	"github.com/pkg/errors"

	"pnl_prover/internal/models"
)

var (
	ErrProgramNotFound = errors.New("zkvm: program not found")
	ErrNotProvable     = errors.New("zkvm: program has no proving key")
	ErrOutOfRange      = errors.New("zkvm: value outside circuit range")
	ErrUnsatisfied     = errors.New("zkvm: witness does not satisfy circuit")
	ErrInvalidProof    = errors.New("zkvm: invalid proof")
	ErrTampered        = errors.New("zkvm: artifact does not match recorded identity")
)

// AbortError: гость отклонил заявленный PnL, журнал не создан.
type AbortError struct {
	Reason models.AbortReason
}

func (e *AbortError) Error() string {
	return "guest aborted: " + e.Reason.String()
}

// FaultError: гость упал до решения политики (арность, невалидная позиция).
type FaultError struct {
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("guest fault: %v", e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

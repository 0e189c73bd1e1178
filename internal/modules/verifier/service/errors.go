package service

import "fmt"

type Kind string

const (
	// KindIdentityMismatch: квитанция от другой программы, доказательство не проверяется.
	KindIdentityMismatch Kind = "identity_mismatch"
	KindInvalidProof     Kind = "invalid_proof"
	// KindUnknownProgram: для идентичности нет ключа проверки.
	KindUnknownProgram Kind = "unknown_program"
)

type VerificationError struct {
	Kind     Kind
	Expected string
	Got      string
	Err      error
}

func (e *VerificationError) Error() string {
	switch e.Kind {
	case KindIdentityMismatch:
		return fmt.Sprintf("verify: identity mismatch: expected %s, receipt carries %s", e.Expected, e.Got)
	case KindUnknownProgram:
		return fmt.Sprintf("verify: unknown program %s: %v", e.Expected, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("verify: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("verify: %s", e.Kind)
}

func (e *VerificationError) Unwrap() error { return e.Err }

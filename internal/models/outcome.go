package models

import "fmt"

type OutcomeKind string

const (
	OutcomeCommitted OutcomeKind = "committed"
	OutcomeAborted   OutcomeKind = "aborted"
)

// AbortReason carries the numbers behind a rejected claim.
type AbortReason struct {
	Provided   float32 `json:"provided"`
	Calculated float32 `json:"calculated"`
	Diff       float32 `json:"diff"`
	Bound      float32 `json:"bound"`
}

func (r AbortReason) String() string {
	return fmt.Sprintf("PNL verification failed: provided = %.6f, calculated = %.6f, diff = %.6f exceeds bound %.6f",
		r.Provided, r.Calculated, r.Diff, r.Bound)
}

// Outcome: либо Committed(value), либо Aborted(reason), никогда оба.
type Outcome struct {
	Kind   OutcomeKind
	Value  float32
	Reason *AbortReason
}

func Committed(value float32) Outcome {
	return Outcome{Kind: OutcomeCommitted, Value: value}
}

func Aborted(reason AbortReason) Outcome {
	return Outcome{Kind: OutcomeAborted, Reason: &reason}
}

func (o Outcome) IsCommitted() bool { return o.Kind == OutcomeCommitted }
func (o Outcome) IsAborted() bool   { return o.Kind == OutcomeAborted }

package zkvm

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"pnl_prover/internal/guest"
	"pnl_prover/internal/models"
	"pnl_prover/internal/policy"
)

// Runtime: внешний рантайм доказательств: execute(binary, inputs) → receipt
// и verify(receipt) для конкретной программы.
type Runtime interface {
	Execute(ctx context.Context, prog *Program, inputs policy.InputVector) (*models.Receipt, error)
	Verify(ctx context.Context, prog *Program, receipt *models.Receipt) error
}

var gnarkLogOnce sync.Once

// SetGnarkOutput routes gnark's own zerolog output; nil silences it.
func SetGnarkOutput(w io.Writer) {
	if w == nil {
		gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
		return
	}
	gnarklogger.Set(zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger())
}

// Groth16 runs the guest harness and proves its journal with gnark.
type Groth16 struct {
	now func() time.Time
}

func NewGroth16() *Groth16 {
	gnarkLogOnce.Do(func() { SetGnarkOutput(nil) })
	return &Groth16{now: time.Now}
}

func (g *Groth16) Execute(ctx context.Context, prog *Program, inputs policy.InputVector) (*models.Receipt, error) {
	if prog == nil || !prog.Provable() {
		return nil, ErrNotProvable
	}

	res := guest.New(prog.Policy).Run(&guest.SliceEnv{Inputs: inputs})
	switch {
	case res.Fault != nil:
		return nil, &FaultError{Err: res.Fault}
	case res.State == guest.StateAborted:
		return nil, &AbortError{Reason: *res.Outcome.Reason}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pos, err := policy.Unmarshal(prog.Policy, inputs)
	if err != nil {
		return nil, &FaultError{Err: err}
	}
	pub, err := PublicJournal(prog.Policy.Commit, res.Journal)
	if err != nil {
		return nil, errors.Wrap(err, "journal public input")
	}
	assignment, err := NewAssignment(prog.Policy, pos, pub)
	if err != nil {
		return nil, err
	}

	w, err := frontend.NewWitness(assignment.circuit(), curve.ScalarField())
	if err != nil {
		return nil, errors.Wrap(err, "build witness")
	}

	proof, err := groth16.Prove(prog.CCS, prog.PK, w)
	if err != nil {
		return nil, errors.Wrapf(ErrUnsatisfied, "%s: %v", prog.Policy.Name, err)
	}

	var buf bytes.Buffer
	if _, err = proof.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "serialize proof")
	}

	return &models.Receipt{
		ID:              uuid.NewString(),
		Policy:          prog.Policy.Name,
		Journal:         res.Journal,
		Proof:           buf.Bytes(),
		ProgramIdentity: prog.Identity,
		CreatedAt:       g.now().UTC(),
	}, nil
}

// Verify checks the proof against the program's verifying key and the public input
// derived from the receipt journal. It does not look at the receipt's identity.
func (g *Groth16) Verify(_ context.Context, prog *Program, receipt *models.Receipt) error {
	if prog == nil || prog.VK == nil {
		return ErrProgramNotFound
	}

	proof := groth16.NewProof(curve)
	if _, err := proof.ReadFrom(bytes.NewReader(receipt.Proof)); err != nil {
		return errors.Wrapf(ErrInvalidProof, "decode proof: %v", err)
	}

	pub, err := PublicJournal(prog.Policy.Commit, receipt.Journal)
	if err != nil {
		return errors.Wrapf(ErrInvalidProof, "journal: %v", err)
	}
	w, err := frontend.NewWitness(&PnLCircuit{Journal: pub}, curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return errors.Wrap(err, "build public witness")
	}

	if err = groth16.Verify(proof, prog.VK, w); err != nil {
		return errors.Wrapf(ErrInvalidProof, "%v", err)
	}
	return nil
}

package zkvm

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/pkg/errors"

	"pnl_prover/internal/journal"
	"pnl_prover/internal/models"
)

var curve = ecc.BN254

// Program: скомпилированная схема одной политики вместе с ключами.
// После сборки не изменяется, поэтому может разделяться между горутинами.
type Program struct {
	Policy   models.PolicyConfig
	Identity string

	CCS constraint.ConstraintSystem
	PK  groth16.ProvingKey
	VK  groth16.VerifyingKey
}

// Provable reports whether the program carries what Execute needs.
func (p *Program) Provable() bool {
	return p.CCS != nil && p.PK != nil
}

// Compile builds the constraint system for a policy and runs the Groth16 setup.
// Every call produces fresh keys and so a fresh identity.
func Compile(cfg models.PolicyConfig) (*Program, error) {
	circuit, err := NewCircuit(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "circuit for %s", cfg.Name)
	}

	ccs, err := frontend.Compile(curve.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, errors.Wrapf(err, "compile %s", cfg.Name)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, errors.Wrapf(err, "setup %s", cfg.Name)
	}

	id, err := Identity(vk)
	if err != nil {
		return nil, err
	}

	return &Program{Policy: cfg, Identity: id, CCS: ccs, PK: pk, VK: vk}, nil
}

// Identity is the hex sha256 of the serialised verifying key.
func Identity(vk groth16.VerifyingKey) (string, error) {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return "", errors.Wrap(err, "serialize verifying key")
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// PublicJournal maps a journal payload to the circuit's public input.
func PublicJournal(mode models.CommitMode, payload []byte) (*big.Int, error) {
	v, err := journal.Decode(payload, mode)
	if err != nil {
		return nil, err
	}
	if v.PnL == nil {
		return big.NewInt(1), nil
	}
	// -0 никогда не коммитится, иначе у одного значения было бы два журнала
	if math.Float32bits(*v.PnL) == negativeZero {
		return nil, errors.Wrap(journal.ErrMalformed, "negative zero")
	}
	return ToUnits(*v.PnL)
}

const negativeZero = 1 << 31

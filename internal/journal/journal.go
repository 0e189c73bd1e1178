// Package journal encodes the public output of a committed evaluation.
//
// A journal is a single little-endian 32-bit word: the acceptance flag in boolean
// mode, the IEEE-754 bits of the computed PnL in numeric mode.
package journal

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"pnl_prover/internal/models"
)

const wordSize = 4

var (
	ErrAborted     = errors.New("journal: aborted outcome has no journal")
	ErrUnknownMode = errors.New("journal: unknown commit mode")
	ErrMalformed   = errors.New("journal: malformed payload")
	ErrNotAccepted = errors.New("journal: acceptance flag is not set")
)

// Value: то, что может прочитать любой держатель квитанции.
type Value struct {
	Accepted bool
	PnL      *float32
}

func (v Value) String() string {
	if v.PnL != nil {
		return fmt.Sprintf("pnl=%g", *v.PnL)
	}
	return fmt.Sprintf("accepted=%t", v.Accepted)
}

// Encode maps a committed outcome to the journal payload.
func Encode(out models.Outcome, mode models.CommitMode) ([]byte, error) {
	if !out.IsCommitted() {
		return nil, ErrAborted
	}

	buf := make([]byte, wordSize)
	switch mode {
	case models.CommitBoolean:
		binary.LittleEndian.PutUint32(buf, 1)
	case models.CommitNumeric:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(out.Value))
	default:
		return nil, errors.Wrapf(ErrUnknownMode, "mode %q", mode)
	}
	return buf, nil
}

// Decode reads a journal produced under mode.
func Decode(payload []byte, mode models.CommitMode) (Value, error) {
	if len(payload) != wordSize {
		return Value{}, errors.Wrapf(ErrMalformed, "want %d bytes, got %d", wordSize, len(payload))
	}
	word := binary.LittleEndian.Uint32(payload)

	switch mode {
	case models.CommitBoolean:
		switch word {
		case 1:
			return Value{Accepted: true}, nil
		case 0:
			return Value{}, ErrNotAccepted
		default:
			return Value{}, errors.Wrapf(ErrMalformed, "boolean word %#x", word)
		}
	case models.CommitNumeric:
		pnl := math.Float32frombits(word)
		return Value{Accepted: true, PnL: &pnl}, nil
	default:
		return Value{}, errors.Wrapf(ErrUnknownMode, "mode %q", mode)
	}
}

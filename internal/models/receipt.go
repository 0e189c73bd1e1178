package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Receipt: журнал + доказательство + отпечаток программы. После создания не меняется.
type Receipt struct {
	ID              string    `json:"id"`
	Policy          string    `json:"policy"`
	Journal         []byte    `json:"journal"`
	Proof           []byte    `json:"proof"`
	ProgramIdentity string    `json:"program_identity"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProofHash is the hex sha256 of the serialised proof, the value the bot publishes.
func (r *Receipt) ProofHash() string {
	sum := sha256.Sum256(r.Proof)
	return hex.EncodeToString(sum[:])
}

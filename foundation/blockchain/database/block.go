package database

import (
	"slices"
	"time"

	"github.com/ardanlabs/autochain/foundation/blockchain/signature"
)

// Timestamp represents the time a block was created as seconds since the
// epoch with a fractional part.
type Timestamp float64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp(float64(time.Now().UnixMicro()) / 1e6)
}

// Time converts the timestamp into a time value.
func (ts Timestamp) Time() time.Time {
	return time.UnixMicro(int64(float64(ts) * 1e6)).UTC()
}

// MarshalJSON implements the json.Marshaler interface. The timestamp is
// always written with a fractional part or an exponent so it hashes the
// same on every node.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(signature.FormatFloat(float64(ts))), nil
}

// =============================================================================

// Block represents a group of transactions linked to the block before it.
type Block struct {
	Index        uint64        `json:"index"`         // Position in the chain starting at 1.
	Timestamp    Timestamp     `json:"timestamp"`     // Time the block was committed.
	Transactions []Transaction `json:"transactions"`  // Transactions in the order they were queued.
	Proof        uint64        `json:"proof"`         // Value that solved the proof of work.
	PreviousHash string        `json:"previous_hash"` // Hash of the previous block.
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	if b.Transactions == nil {
		b.Transactions = []Transaction{}
	}

	return signature.Hash(b)
}

// clone returns a copy of the block that shares no memory with the original.
func (b Block) clone() Block {
	b.Transactions = slices.Clone(b.Transactions)
	if b.Transactions == nil {
		b.Transactions = []Transaction{}
	}

	return b
}

// cloneChain returns a copy of the chain that shares no memory with the
// original.
func cloneChain(chain []Block) []Block {
	out := make([]Block, len(chain))
	for i, block := range chain {
		out[i] = block.clone()
	}

	return out
}

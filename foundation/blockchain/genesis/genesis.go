// Package genesis maintains access to the genesis settings.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
)

// Genesis represents the values every node on a network must share
// before the first block exists.
type Genesis struct {
	Difficulty   uint16      `json:"difficulty"`    // Number of leading 0's a proof hash must have.
	MiningReward json.Number `json:"mining_reward"` // Amount credited to the node that mines a block.
	Proof        uint64      `json:"proof"`         // Bootstrap proof carried by the genesis block.
	PreviousHash string      `json:"previous_hash"` // Sentinel previous hash carried by the genesis block.
}

// Default returns the genesis settings used by the reference network.
func Default() Genesis {
	return Genesis{
		Difficulty:   4,
		MiningReward: "1",
		Proof:        100,
		PreviousHash: "1",
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Any setting missing from the
// file keeps its default value.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file %q: %w", path, err)
	}

	if genesis.PreviousHash == "" {
		return Genesis{}, fmt.Errorf("genesis file %q: previous hash can't be empty", path)
	}

	if genesis.Difficulty > 64 {
		return Genesis{}, fmt.Errorf("genesis file %q: difficulty %d is larger than a hash", path, genesis.Difficulty)
	}

	return genesis, nil
}

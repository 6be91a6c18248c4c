package database

import (
	"fmt"
)

// ValidateBlock takes a block and validates it against the block that
// precedes it in a chain. The proof is checked against the previous block's
// own previous hash, the same value the miner solves against.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block index is the next index", b.Index)

	if nextIndex := previousBlock.Index + 1; b.Index != nextIndex {
		return fmt.Errorf("this block is not the next index, got %d, exp %d", b.Index, nextIndex)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: previous hash does match previous block", b.Index)

	if hash := previousBlock.Hash(); b.PreviousHash != hash {
		return fmt.Errorf("previous block hash doesn't match, got %s, exp %s", b.PreviousHash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: proof of work is solved", b.Index)

	if !ValidProof(previousBlock.Proof, b.Proof, previousBlock.PreviousHash, difficulty) {
		return fmt.Errorf("block %d has an invalid proof %d", b.Index, b.Proof)
	}

	return nil
}

// ValidateChain walks the chain checking every block against its
// predecessor. The first block is the genesis block and is trusted as
// given. An empty or single block chain is valid.
func ValidateChain(chain []Block, difficulty uint, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	for i := 1; i < len(chain); i++ {
		if err := chain[i].ValidateBlock(chain[i-1], difficulty, evHandler); err != nil {
			return fmt.Errorf("position %d: %w", i+1, err)
		}
	}

	return nil
}

// IsValidChain reports if the chain passes ValidateChain.
func IsValidChain(chain []Block, difficulty uint) bool {
	return ValidateChain(chain, difficulty, nil) == nil
}

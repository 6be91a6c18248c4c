// Package database maintains the chain of record for a node: the blocks that
// have been committed and the pool of transactions waiting for the next block.
package database

import (
	"errors"
	"sync"

	"github.com/ardanlabs/autochain/foundation/blockchain/genesis"
)

// Set of errors returned by the database.
var (
	ErrEmptyChain   = errors.New("chain has no blocks")
	ErrChainChanged = errors.New("chain tip changed")
)

// =============================================================================

// Database manages the chain and the pending transactions. Blocks are only
// ever appended or the whole chain replaced, a committed block is never
// modified.
type Database struct {
	mu      sync.RWMutex
	genesis genesis.Genesis
	chain   []Block
	pending []Transaction
}

// New constructs a database holding only the genesis block.
func New(gen genesis.Genesis) *Database {
	db := Database{
		genesis: gen,
	}

	// Genesis bypasses proof of work. The proof and the previous hash
	// are fixed values every node agrees on.
	db.chain = append(db.chain, Block{
		Index:        1,
		Timestamp:    Now(),
		Transactions: []Transaction{},
		Proof:        gen.Proof,
		PreviousHash: gen.PreviousHash,
	})

	return &db
}

// Genesis returns the genesis settings for this database.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// QueueTransaction adds the transaction to the pending pool and returns the
// index of the block that will hold it.
func (db *Database) QueueTransaction(tx Transaction) (uint64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(db.chain) == 0 {
		return 0, ErrEmptyChain
	}

	db.pending = append(db.pending, tx)

	return db.chain[len(db.chain)-1].Index + 1, nil
}

// CommitBlock appends a new block holding every pending transaction, in the
// order they were queued, and empties the pool. When previousHash is empty
// the hash of the current tip is used.
func (db *Database) CommitBlock(proof uint64, previousHash string) (Block, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.commit(proof, previousHash)
}

// CommitBlockOnTip works like CommitBlock, adding the extra transactions to
// the end of the pool first, but only when the chain's tip is still the
// block with the specified hash. This lets a miner solve outside of any lock
// and detect that the chain moved on in the meantime.
func (db *Database) CommitBlockOnTip(tipHash string, proof uint64, extra ...Transaction) (Block, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(db.chain) == 0 {
		return Block{}, ErrEmptyChain
	}

	if db.chain[len(db.chain)-1].Hash() != tipHash {
		return Block{}, ErrChainChanged
	}

	db.pending = append(db.pending, extra...)

	return db.commit(proof, tipHash)
}

// Tip returns the last block in the chain.
func (db *Database) Tip() (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.chain) == 0 {
		return Block{}, ErrEmptyChain
	}

	return db.chain[len(db.chain)-1].clone(), nil
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.chain)
}

// Copy returns a copy of the full chain.
func (db *Database) Copy() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return cloneChain(db.chain)
}

// Pending returns a copy of the transactions waiting for the next block.
func (db *Database) Pending() []Transaction {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return append([]Transaction{}, db.pending...)
}

// ReplaceChain substitutes the chain with the specified one. No validation
// is performed, that is the caller's responsibility. The pending pool is
// left as is.
func (db *Database) ReplaceChain(chain []Block) {
	chain = cloneChain(chain)

	db.mu.Lock()
	defer db.mu.Unlock()

	db.chain = chain
}

// =============================================================================

// commit performs the work for CommitBlock. The caller must hold the lock.
func (db *Database) commit(proof uint64, previousHash string) (Block, error) {
	if previousHash == "" {
		if len(db.chain) == 0 {
			return Block{}, ErrEmptyChain
		}
		previousHash = db.chain[len(db.chain)-1].Hash()
	}

	trans := db.pending
	if trans == nil {
		trans = []Transaction{}
	}

	block := Block{
		Index:        uint64(len(db.chain)) + 1,
		Timestamp:    Now(),
		Transactions: trans,
		Proof:        proof,
		PreviousHash: previousHash,
	}

	db.chain = append(db.chain, block)
	db.pending = nil

	return block.clone(), nil
}

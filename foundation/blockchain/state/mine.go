package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/autochain/foundation/blockchain/database"
)

// MineNewBlock solves the proof of work against the latest block and then
// commits a new block holding the pending transactions and the mining
// reward. Only one block is mined at a time. If the chain is replaced while
// solving, the search is cancelled and database.ErrChainChanged or the
// context error is returned.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The tip and the cancel function are captured together so a chain
	// replacement either happens before this search starts or cancels it.
	s.mu.Lock()
	tip, err := s.db.Tip()
	if err == nil {
		s.setCancel(cancel)
	}
	s.mu.Unlock()

	if err != nil {
		return database.Block{}, err
	}
	defer s.setCancel(nil)

	s.evHandler("state: MineNewBlock: MINING: perform POW: tip[%d]", tip.Index)

	// The proof is solved against the values the chain validator checks,
	// the tip's proof and the tip's previous hash.
	proof, err := database.Solve(ctx, tip.Proof, tip.PreviousHash, uint(s.genesis.Difficulty), s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: commit block: proof[%d]", proof)

	s.mu.Lock()
	reward := database.NewRewardTransaction(s.nodeID, database.Amount(s.genesis.MiningReward))
	block, err := s.db.CommitBlockOnTip(tip.Hash(), proof, reward)
	s.mu.Unlock()

	if err != nil {
		return database.Block{}, err
	}

	s.blockEvent(block)

	return block, nil
}

// CancelMining stops a mining operation in progress. It is a no-op when
// nothing is being mined.
func (s *State) CancelMining() {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	if s.cancel != nil {
		s.evHandler("state: CancelMining: MINING: CANCEL: signaled")
		s.cancel()
	}
}

// =============================================================================

// setCancel records the function that cancels the current mining operation.
func (s *State) setCancel(cancel context.CancelFunc) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	s.cancel = cancel
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash(), string(blockJSON))
}

package state

import "github.com/ardanlabs/autochain/foundation/blockchain/database"

// SubmitTransaction accepts a transaction for inclusion in the next block
// and returns the index of that block. The transaction is expected to have
// been validated at the boundary.
func (s *State) SubmitTransaction(tx database.Transaction) (uint64, error) {
	s.mu.Lock()
	index, err := s.db.QueueTransaction(tx)
	s.mu.Unlock()

	if err != nil {
		return 0, err
	}

	s.evHandler("state: SubmitTransaction: tx[%s]: blk[%d]", tx, index)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return index, nil
}

package state

import (
	"github.com/ardanlabs/autochain/foundation/blockchain/database"
	"github.com/ardanlabs/autochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/autochain/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveNodeID returns the id that receives the mining rewards.
func (s *State) RetrieveNodeID() string {
	return s.nodeID
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block. The chain is
// never empty after construction, a zero block is returned if it is.
func (s *State) RetrieveLatestBlock() database.Block {
	tip, err := s.db.Tip()
	if err != nil {
		s.evHandler("state: RetrieveLatestBlock: ERROR: %s", err)
		return database.Block{}
	}

	return tip
}

// RetrieveTip returns a copy of the current latest block or
// database.ErrEmptyChain.
func (s *State) RetrieveTip() (database.Block, error) {
	return s.db.Tip()
}

// RetrieveChain returns a copy of the full chain.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Copy()
}

// RetrieveMempool returns a copy of the pending transactions.
func (s *State) RetrieveMempool() []database.Transaction {
	return s.db.Pending()
}

// QueryMempoolLength returns the current number of pending transactions.
func (s *State) QueryMempoolLength() int {
	return len(s.db.Pending())
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status this node reports to others.
func (s *State) RetrieveStatus() peer.PeerStatus {
	tip := s.RetrieveLatestBlock()

	peers := s.RetrieveKnownPeers()
	hosts := make([]string, len(peers))
	for i, pr := range peers {
		hosts[i] = pr.Host
	}

	return peer.PeerStatus{
		LatestBlockHash:  tip.Hash(),
		LatestBlockIndex: tip.Index,
		Length:           s.db.Length(),
		Pending:          s.QueryMempoolLength(),
		KnownPeers:       hosts,
	}
}

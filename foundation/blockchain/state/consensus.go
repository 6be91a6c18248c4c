package state

import (
	"context"
	"sync"

	"github.com/ardanlabs/autochain/foundation/blockchain/database"
	"github.com/ardanlabs/autochain/foundation/blockchain/peer"
)

// peerResult is what came back from asking a single peer for its chain.
type peerResult struct {
	peer  peer.Peer
	chain peer.PeerChain
	err   error
}

// Resolve asks every known peer for its chain and adopts the longest valid
// chain that is strictly longer than the local one. It reports true when
// the local chain was replaced. Unreachable or malformed peers are skipped.
// Among peers offering chains of equal length, the one whose host sorts
// first wins.
func (s *State) Resolve(ctx context.Context) bool {
	s.evHandler("state: Resolve: started")
	defer s.evHandler("state: Resolve: completed")

	peers := s.RetrieveKnownPeers()
	if len(peers) == 0 {
		return false
	}

	results := s.fetchChains(ctx, peers)

	difficulty := uint(s.genesis.Difficulty)

	var candidate []database.Block
	maxLength := s.db.Length()

	// Results are in sorted host order so equal length chains resolve the
	// same way on every run.
	for _, res := range results {
		if res.err != nil {
			s.evHandler("state: Resolve: peer[%s]: unreachable: ERROR: %s", res.peer, res.err)
			continue
		}

		if res.chain.Length != len(res.chain.Chain) {
			s.evHandler("state: Resolve: peer[%s]: malformed: reported[%d] actual[%d]", res.peer, res.chain.Length, len(res.chain.Chain))
			continue
		}

		if res.chain.Length <= maxLength {
			s.evHandler("state: Resolve: peer[%s]: not longer: length[%d]", res.peer, res.chain.Length)
			continue
		}

		if err := database.ValidateChain(res.chain.Chain, difficulty, s.evHandler); err != nil {
			s.evHandler("state: Resolve: peer[%s]: invalid chain: ERROR: %s", res.peer, err)
			continue
		}

		s.evHandler("state: Resolve: peer[%s]: candidate: length[%d]", res.peer, res.chain.Length)

		candidate = res.chain.Chain
		maxLength = res.chain.Length
	}

	if candidate == nil {
		return false
	}

	return s.replaceChain(candidate)
}

// =============================================================================

// fetchChains retrieves the chain from every peer at the same time. Each
// peer is bounded by the peer timeout. The results are returned in the same
// order as the peers.
func (s *State) fetchChains(ctx context.Context, peers []peer.Peer) []peerResult {
	results := make([]peerResult, len(peers))

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for i, pr := range peers {
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
			defer cancel()

			chain, err := s.fetcher.FetchChain(ctx, pr)
			results[i] = peerResult{
				peer:  pr,
				chain: chain,
				err:   err,
			}
		}()
	}

	wg.Wait()

	return results
}

// replaceChain substitutes the local chain with the candidate as long as
// the candidate is still longer than the local chain. Blocks may have been
// mined while the peers were being asked. A mining operation in progress is
// cancelled since its work no longer applies.
func (s *State) replaceChain(candidate []database.Block) bool {
	s.mu.Lock()

	if length := s.db.Length(); len(candidate) <= length {
		s.mu.Unlock()
		s.evHandler("state: Resolve: local chain grew to length[%d]: candidate discarded", length)
		return false
	}

	s.db.ReplaceChain(candidate)

	// Mining reads its tip under the same lock, so only a search that
	// started on the discarded chain is cancelled here.
	s.CancelMining()
	s.mu.Unlock()

	s.evHandler("state: Resolve: chain replaced: length[%d]", len(candidate))

	return true
}

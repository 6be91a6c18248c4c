package state

import "github.com/ardanlabs/autochain/foundation/blockchain/peer"

// RegisterPeer parses the address and adds the peer to the known peers.
func (s *State) RegisterPeer(address string) (peer.Peer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr, err := s.knownPeers.Register(address)
	if err != nil {
		return peer.Peer{}, err
	}

	s.evHandler("state: RegisterPeer: peer[%s]", pr)

	return pr, nil
}

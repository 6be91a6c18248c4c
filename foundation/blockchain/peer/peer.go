// Package peer maintains the peer related information such as the set
// of known peers and their status.
package peer

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/ardanlabs/autochain/foundation/blockchain/database"
)

// ErrInvalidAddress is returned when an address has neither a network
// location nor a path component.
var ErrInvalidAddress = errors.New("invalid address")

// =============================================================================

// Peer represents information about a Node in the network.
type Peer struct {
	Host string
}

// New contructs a new info value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Parse constructs a peer from an address. An address with a network
// location like "http://192.168.0.5:5000" keeps only the location. An
// address without one like "192.168.0.5:5000" is kept verbatim.
func Parse(address string) (Peer, error) {
	address = strings.TrimSpace(address)

	if strings.Contains(address, "//") {
		u, err := url.Parse(address)
		if err != nil {
			return Peer{}, fmt.Errorf("%w: %q: %s", ErrInvalidAddress, address, err)
		}

		switch {
		case u.Host != "":
			return New(u.Host), nil
		case u.Path != "":
			return New(u.Path), nil
		default:
			return Peer{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
		}
	}

	if address == "" {
		return Peer{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	return New(address), nil
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// String implements the fmt.Stringer interface.
func (p Peer) String() string {
	return p.Host
}

// =============================================================================

// PeerStatus represents information about the status
// of any given peer.
type PeerStatus struct {
	LatestBlockHash  string   `json:"latest_block_hash"`
	LatestBlockIndex uint64   `json:"latest_block_index"`
	Length           int      `json:"length"`
	Pending          int      `json:"pending"`
	KnownPeers       []string `json:"known_peers"`
}

// PeerChain represents the chain a peer reports when asked. Length is the
// value the peer claims, which is not trusted to match the blocks.
type PeerChain struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Register parses the address and adds the peer to the set. Peers are
// never removed once registered.
func (ps *PeerSet) Register(address string) (Peer, error) {
	peer, err := Parse(address)
	if err != nil {
		return Peer{}, err
	}

	ps.Add(peer)

	return peer, nil
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Copy returns a list of the known peers, excluding the specified host,
// sorted by host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.set))
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Host < peers[j].Host
	})

	return peers
}

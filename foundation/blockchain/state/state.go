// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ardanlabs/autochain/foundation/blockchain/database"
	"github.com/ardanlabs/autochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/autochain/foundation/blockchain/peer"
)

// defaultPeerTimeout bounds how long a single peer has to return its chain.
const defaultPeerTimeout = 5 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining and consensus.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// ChainFetcher represents the behavior required to retrieve the chain held
// by a peer.
type ChainFetcher interface {
	FetchChain(ctx context.Context, pr peer.Peer) (peer.PeerChain, error)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	NodeID      string
	Host        string
	Genesis     genesis.Genesis
	KnownPeers  *peer.PeerSet
	Fetcher     ChainFetcher
	PeerTimeout time.Duration
	EvHandler   EventHandler
}

// State manages the blockchain for a single node. Every value holds its own
// chain and peer set, so any number of nodes can run in one process.
type State struct {
	nodeID      string
	host        string
	peerTimeout time.Duration
	evHandler   EventHandler

	mu       sync.Mutex
	miningMu sync.Mutex
	cancelMu sync.Mutex
	cancel   context.CancelFunc

	genesis    genesis.Genesis
	knownPeers *peer.PeerSet
	fetcher    ChainFetcher
	db         *database.Database

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = HTTPFetcher{Client: http.DefaultClient}
	}

	peerTimeout := cfg.PeerTimeout
	if peerTimeout <= 0 {
		peerTimeout = defaultPeerTimeout
	}

	// The host is how peers reach this node. It is kept in the same form as
	// a registered peer so this node is never asked for its own chain.
	host := cfg.Host
	if host != "" {
		pr, err := peer.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("node host: %w", err)
		}
		host = pr.Host
	}

	// Construct the database which starts with the genesis block.
	db := database.New(cfg.Genesis)

	state := State{
		nodeID:      cfg.NodeID,
		host:        host,
		peerTimeout: peerTimeout,
		evHandler:   ev,

		genesis:    cfg.Genesis,
		knownPeers: knownPeers,
		fetcher:    fetcher,
		db:         db,
	}

	ev("state: New: genesis: blk[%d]: hash[%s]", 1, state.RetrieveLatestBlock().Hash())

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.CancelMining()

	return nil
}

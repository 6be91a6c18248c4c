package state_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/autochain/foundation/blockchain/database"
	"github.com/ardanlabs/autochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/autochain/foundation/blockchain/peer"
	"github.com/ardanlabs/autochain/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// fakeFetcher hands out chains from memory instead of asking peers over
// the network.
type fakeFetcher struct {
	mu     sync.Mutex
	chains map[string]peer.PeerChain
	errs   map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		chains: make(map[string]peer.PeerChain),
		errs:   make(map[string]error),
	}
}

func (f *fakeFetcher) set(host string, chain []database.Block) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.chains[host] = peer.PeerChain{Chain: chain, Length: len(chain)}
}

func (f *fakeFetcher) setRaw(host string, pc peer.PeerChain) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.chains[host] = pc
}

func (f *fakeFetcher) fail(host string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errs[host] = err
}

func (f *fakeFetcher) FetchChain(ctx context.Context, pr peer.Peer) (peer.PeerChain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.errs[pr.Host]; err != nil {
		return peer.PeerChain{}, err
	}

	pc, exists := f.chains[pr.Host]
	if !exists {
		return peer.PeerChain{}, errors.New("connection refused")
	}

	return pc, nil
}

// =============================================================================

func testGenesis() genesis.Genesis {
	gen := genesis.Default()
	gen.Difficulty = 2
	return gen
}

func newNode(t *testing.T, nodeID string, fetcher state.ChainFetcher) *state.State {
	t.Helper()

	st, err := state.New(state.Config{
		NodeID:      nodeID,
		Host:        nodeID + ":5000",
		Genesis:     testGenesis(),
		Fetcher:     fetcher,
		PeerTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the node: %v", err)
	}

	return st
}

// mineTo mines blocks with one transaction each until the chain has the
// specified length.
func mineTo(t *testing.T, st *state.State, length int) {
	t.Helper()

	for i := len(st.RetrieveChain()); i < length; i++ {
		tx := database.NewTransaction("A", "B", "1", database.NumericItemID(int64(i)))
		if _, err := st.SubmitTransaction(tx); err != nil {
			t.Fatalf("Should be able to submit a transaction: %v", err)
		}

		if _, err := st.MineNewBlock(context.Background()); err != nil {
			t.Fatalf("Should be able to mine a block: %v", err)
		}
	}
}

func sameChain(a []database.Block, b []database.Block) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].Hash() != b[i].Hash() {
			return false
		}
	}

	return true
}

// =============================================================================

func Test_Mining(t *testing.T) {
	t.Log("Given the need to mine submitted transactions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a single transaction is submitted and mined.", testID)
		{
			st := newNode(t, "node1", newFakeFetcher())

			tx := database.NewTransaction("A", "B", "10", database.StringItemID("X1"))

			index, err := st.SubmitTransaction(tx)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit: %v", failed, testID, err)
			}
			if index != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould report block 2, got %d.", failed, testID, index)
			}
			t.Logf("\t%s\tTest %d:\tShould report block 2.", success, testID)

			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine: %v", failed, testID, err)
			}

			chain := st.RetrieveChain()
			if len(chain) != 2 || block.Index != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have a chain of 2 blocks, got %d.", failed, testID, len(chain))
			}
			t.Logf("\t%s\tTest %d:\tShould have a chain of 2 blocks.", success, testID)

			txs := chain[1].Transactions
			reward := database.NewRewardTransaction("node1", database.Amount(testGenesis().MiningReward))
			if len(txs) != 2 || txs[0] != tx || txs[1] != reward {
				t.Fatalf("\t%s\tTest %d:\tShould hold the transaction and the reward, got %v.", failed, testID, txs)
			}
			t.Logf("\t%s\tTest %d:\tShould hold the transaction and the reward.", success, testID)

			if st.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould empty the pending pool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould empty the pending pool.", success, testID)

			if !database.IsValidChain(chain, uint(testGenesis().Difficulty)) {
				t.Fatalf("\t%s\tTest %d:\tShould produce a valid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould produce a valid chain.", success, testID)

			status := st.RetrieveStatus()
			if status.Length != 2 || status.LatestBlockIndex != 2 || status.LatestBlockHash != chain[1].Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould report the new tip, got %+v.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould report the new tip.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining is cancelled.", testID)
		{
			gen := testGenesis()
			gen.Difficulty = 64

			started := make(chan struct{})
			var once sync.Once

			st, err := state.New(state.Config{
				NodeID:  "node1",
				Genesis: gen,
				EvHandler: func(v string, args ...any) {
					if strings.Contains(v, "perform POW") {
						once.Do(func() { close(started) })
					}
				},
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the node: %v", failed, testID, err)
			}

			done := make(chan error, 1)
			go func() {
				_, err := st.MineNewBlock(context.Background())
				done <- err
			}()

			<-started
			st.CancelMining()

			select {
			case err := <-done:
				if !errors.Is(err, context.Canceled) {
					t.Fatalf("\t%s\tTest %d:\tShould stop with a cancel error, got %v.", failed, testID, err)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould stop mining when cancelled.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould stop mining when cancelled.", success, testID)

			if len(st.RetrieveChain()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain as is.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain as is.", success, testID)
		}
	}
}

func Test_Resolve(t *testing.T) {
	t.Log("Given the need to adopt the longest valid chain of the peers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a peer has a longer valid chain.", testID)
		{
			fetcher := newFakeFetcher()
			local := newNode(t, "local", fetcher)
			remote := newNode(t, "remote", nil)

			mineTo(t, local, 3)
			mineTo(t, remote, 5)

			fetcher.set("remote:5000", remote.RetrieveChain())
			local.RegisterPeer("http://remote:5000")

			if !local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the chain.", success, testID)

			if !sameChain(local.RetrieveChain(), remote.RetrieveChain()) {
				t.Fatalf("\t%s\tTest %d:\tShould hold the peer's chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould hold the peer's chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer has a shorter chain.", testID)
		{
			fetcher := newFakeFetcher()
			local := newNode(t, "local", fetcher)
			remote := newNode(t, "remote", nil)

			mineTo(t, local, 5)
			mineTo(t, remote, 3)

			before := local.RetrieveChain()

			fetcher.set("remote:5000", remote.RetrieveChain())
			local.RegisterPeer("remote:5000")

			if local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould keep the chain.", failed, testID)
			}
			if !sameChain(local.RetrieveChain(), before) {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the chain unchanged.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer has a chain of equal length.", testID)
		{
			fetcher := newFakeFetcher()
			local := newNode(t, "local", fetcher)
			remote := newNode(t, "remote", nil)

			mineTo(t, local, 3)
			mineTo(t, remote, 3)

			fetcher.set("remote:5000", remote.RetrieveChain())
			local.RegisterPeer("remote:5000")

			if local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould require a strictly longer chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould require a strictly longer chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the longer chains are invalid or malformed.", testID)
		{
			fetcher := newFakeFetcher()
			local := newNode(t, "local", fetcher)
			remote := newNode(t, "remote", nil)

			mineTo(t, local, 2)
			mineTo(t, remote, 5)

			tampered := remote.RetrieveChain()
			tampered[2].Transactions[0].Amount = "1000"
			fetcher.set("tampered:5000", tampered)

			fetcher.setRaw("liar:5000", peer.PeerChain{Chain: remote.RetrieveChain()[:3], Length: 5})

			fetcher.fail("down:5000", errors.New("connection refused"))

			for _, host := range []string{"tampered:5000", "liar:5000", "down:5000", "silent:5000"} {
				local.RegisterPeer(host)
			}

			before := local.RetrieveChain()

			if local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould skip every bad peer.", failed, testID)
			}
			if !sameChain(local.RetrieveChain(), before) {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould skip every bad peer.", success, testID)

			fetcher.set("good:5000", remote.RetrieveChain())
			local.RegisterPeer("good:5000")

			if !local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould still use the good peer.", failed, testID)
			}
			if !sameChain(local.RetrieveChain(), remote.RetrieveChain()) {
				t.Fatalf("\t%s\tTest %d:\tShould hold the good peer's chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould still use the good peer.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen several peers have valid chains.", testID)
		{
			fetcher := newFakeFetcher()
			local := newNode(t, "local", fetcher)

			first := newNode(t, "first", nil)
			second := newNode(t, "second", nil)
			longest := newNode(t, "longest", nil)

			mineTo(t, first, 4)
			mineTo(t, second, 4)
			mineTo(t, longest, 6)

			fetcher.set("a:5000", first.RetrieveChain())
			fetcher.set("b:5000", second.RetrieveChain())
			for _, host := range []string{"b:5000", "a:5000"} {
				local.RegisterPeer(host)
			}

			if !local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain.", failed, testID)
			}
			if !sameChain(local.RetrieveChain(), first.RetrieveChain()) {
				t.Fatalf("\t%s\tTest %d:\tShould break ties by host order.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould break ties by host order.", success, testID)

			fetcher.set("z:5000", longest.RetrieveChain())
			local.RegisterPeer("z:5000")

			if !local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain.", failed, testID)
			}
			if !sameChain(local.RetrieveChain(), longest.RetrieveChain()) {
				t.Fatalf("\t%s\tTest %d:\tShould pick the longest chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould pick the longest chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining starts right after the chain is replaced.", testID)
		{
			fetcher := newFakeFetcher()
			remote := newNode(t, "remote", nil)
			mineTo(t, remote, 3)
			fetcher.set("remote:5000", remote.RetrieveChain())

			var local *state.State
			var once sync.Once
			started := make(chan struct{}, 1)
			mined := make(chan error, 1)

			ev := func(v string, args ...any) {
				switch {
				case strings.Contains(v, "perform POW"):
					select {
					case started <- struct{}{}:
					default:
					}

				case strings.Contains(v, "chain replaced"):
					once.Do(func() {
						go func() {
							_, err := local.MineNewBlock(context.Background())
							mined <- err
						}()

						select {
						case <-started:
						case <-time.After(5 * time.Second):
						}
					})
				}
			}

			var err error
			local, err = state.New(state.Config{
				NodeID:    "local",
				Host:      "local:5000",
				Genesis:   testGenesis(),
				Fetcher:   fetcher,
				EvHandler: ev,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the node: %v", failed, testID, err)
			}
			local.RegisterPeer("remote:5000")

			if !local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the chain.", success, testID)

			select {
			case err := <-mined:
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould mine on the new chain without being cancelled: %v", failed, testID, err)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould finish mining in time.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould mine on the new chain without being cancelled.", success, testID)

			if n := len(local.RetrieveChain()); n != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould extend the new chain, got length %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould extend the new chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen there are no peers.", testID)
		{
			local := newNode(t, "local", newFakeFetcher())

			if local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould keep the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the chain.", success, testID)
		}
	}
}

func Test_RegisterPeer(t *testing.T) {
	t.Log("Given the need to register peers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen registering valid and invalid addresses.", testID)
		{
			st := newNode(t, "local", newFakeFetcher())

			pr, err := st.RegisterPeer("http://192.168.0.5:5000")
			if err != nil || pr.Host != "192.168.0.5:5000" {
				t.Fatalf("\t%s\tTest %d:\tShould register the address, got %v %v.", failed, testID, pr, err)
			}
			t.Logf("\t%s\tTest %d:\tShould register the address.", success, testID)

			if _, err := st.RegisterPeer("http://"); !errors.Is(err, peer.ErrInvalidAddress) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the address, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the address.", success, testID)

			if peers := st.RetrieveKnownPeers(); len(peers) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould only hold the valid peer, got %v.", failed, testID, peers)
			}
			t.Logf("\t%s\tTest %d:\tShould only hold the valid peer.", success, testID)

			st.RegisterPeer("local:5000")
			if peers := st.RetrieveKnownPeers(); len(peers) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not list this node as a peer, got %v.", failed, testID, peers)
			}
			t.Logf("\t%s\tTest %d:\tShould not list this node as a peer.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the node host is given as a url.", testID)
		{
			fetcher := newFakeFetcher()
			st, err := state.New(state.Config{
				NodeID:  "self",
				Host:    "http://self.example:5000/",
				Genesis: testGenesis(),
				Fetcher: fetcher,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the node: %v", failed, testID, err)
			}

			other := newNode(t, "other", nil)
			mineTo(t, other, 3)
			fetcher.set("self.example:5000", other.RetrieveChain())

			st.RegisterPeer("self.example:5000")
			if peers := st.RetrieveKnownPeers(); len(peers) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not list this node as a peer, got %v.", failed, testID, peers)
			}
			t.Logf("\t%s\tTest %d:\tShould not list this node as a peer.", success, testID)

			if st.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould not fetch its own address.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not fetch its own address.", success, testID)

			if _, err := state.New(state.Config{Host: "http://", Genesis: testGenesis()}); !errors.Is(err, peer.ErrInvalidAddress) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an invalid host, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an invalid host.", success, testID)
		}
	}
}

func Test_HTTPFetcher(t *testing.T) {
	t.Log("Given the need to fetch a peer's chain over http.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the peer answers.", testID)
		{
			remote := newNode(t, "remote", nil)
			mineTo(t, remote, 3)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chain" {
					http.NotFound(w, r)
					return
				}

				chain := remote.RetrieveChain()
				json.NewEncoder(w).Encode(peer.PeerChain{Chain: chain, Length: len(chain)})
			}))
			defer srv.Close()

			host := strings.TrimPrefix(srv.URL, "http://")

			pc, err := state.HTTPFetcher{Client: srv.Client()}.FetchChain(context.Background(), peer.New(host))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to fetch the chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to fetch the chain.", success, testID)

			if pc.Length != 3 || !sameChain(pc.Chain, remote.RetrieveChain()) {
				t.Fatalf("\t%s\tTest %d:\tShould get the same blocks and hashes.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same blocks and hashes.", success, testID)

			local := newNode(t, "local", state.HTTPFetcher{Client: srv.Client()})
			local.RegisterPeer(srv.URL)

			if !local.Resolve(context.Background()) {
				t.Fatalf("\t%s\tTest %d:\tShould adopt the chain over http.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould adopt the chain over http.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the peer fails.", testID)
		{
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			}))
			defer srv.Close()

			host := strings.TrimPrefix(srv.URL, "http://")

			if _, err := (state.HTTPFetcher{}).FetchChain(context.Background(), peer.New(host)); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould report the failure.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report the failure.", success, testID)
		}
	}
}

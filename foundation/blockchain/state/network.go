package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ardanlabs/autochain/foundation/blockchain/peer"
)

// HTTPFetcher retrieves a peer's chain over http using the peer's host.
type HTTPFetcher struct {
	Client *http.Client
}

// FetchChain implements the ChainFetcher interface.
func (f HTTPFetcher) FetchChain(ctx context.Context, pr peer.Peer) (peer.PeerChain, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	url := fmt.Sprintf("http://%s/chain", pr.Host)

	var chain peer.PeerChain
	if err := send(ctx, client, http.MethodGet, url, &chain); err != nil {
		return peer.PeerChain{}, err
	}

	return chain, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node and decode
// the JSON response.
func send(ctx context.Context, client *http.Client, method string, url string, dataRecv any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}

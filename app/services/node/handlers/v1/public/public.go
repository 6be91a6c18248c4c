// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/autochain/business/sys/metrics"
	"github.com/ardanlabs/autochain/business/sys/validate"
	"github.com/ardanlabs/autochain/business/web/errs"
	"github.com/ardanlabs/autochain/foundation/blockchain/database"
	"github.com/ardanlabs/autochain/foundation/blockchain/peer"
	"github.com/ardanlabs/autochain/foundation/blockchain/state"
	"github.com/ardanlabs/autochain/foundation/events"
	"github.com/ardanlabs/autochain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// SubmitTransaction queues a new transaction for the next block.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nt newTransaction
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(nt); err != nil {
		return err
	}

	tx := nt.toTransaction()

	h.Log.Infow("add tran", "traceid", v.TraceID, "owner", tx.Owner, "receiver", tx.Receiver, "amount", tx.Amount, "item_id", tx.ItemID)
	index, err := h.State.SubmitTransaction(tx)
	if err != nil {
		return err
	}

	resp := submitted{
		Message: fmt.Sprintf("Transaction in queue to be added to Block %d. Hit mine to record the transaction", index),
		Index:   index,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Mine performs the proof of work for the next block and commits it along
// with the reward for this node.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrChainChanged), errors.Is(err, context.Canceled):
			return errs.NewTrusted(errors.New("chain was replaced while mining, try again"), http.StatusConflict)
		default:
			return err
		}
	}

	metrics.AddBlocksMined(ctx)

	resp := mined{
		Message:      "New Block Forged",
		Index:        block.Index,
		Transactions: block.Transactions,
		Proof:        block.Proof,
		PreviousHash: block.PreviousHash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full chain. This is what peers ask for when resolving
// conflicts.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.RetrieveChain()

	resp := peer.PeerChain{
		Chain:  blocks,
		Length: len(blocks),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of transactions waiting for the next block. The
// "owner" query parameter limits the list to the transactions that owner
// sends or receives.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	owner := r.URL.Query().Get("owner")

	pending := h.State.RetrieveMempool()

	trans := make([]database.Transaction, 0, len(pending))
	for _, tx := range pending {
		if owner != "" && owner != tx.Owner && owner != tx.Receiver {
			continue
		}
		trans = append(trans, tx)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

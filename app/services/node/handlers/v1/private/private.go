// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/autochain/business/sys/metrics"
	"github.com/ardanlabs/autochain/business/sys/validate"
	"github.com/ardanlabs/autochain/business/web/errs"
	"github.com/ardanlabs/autochain/foundation/blockchain/database"
	"github.com/ardanlabs/autochain/foundation/blockchain/peer"
	"github.com/ardanlabs/autochain/foundation/blockchain/state"
	"github.com/ardanlabs/autochain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

type registerNodes struct {
	Nodes []string `json:"nodes" validate:"required,dive,required"`
}

type registered struct {
	Message    string   `json:"message"`
	TotalNodes []string `json:"total_nodes"`
}

type resolved struct {
	Message  string           `json:"message"`
	NewChain []database.Block `json:"new_chain,omitempty"`
	Chain    []database.Block `json:"chain,omitempty"`
}

// RegisterNodes adds the specified addresses to the known peers. Nothing
// is registered if any address is invalid.
func (h Handlers) RegisterNodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var rn registerNodes
	if err := web.Decode(r, &rn); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(rn); err != nil {
		return err
	}

	for i, address := range rn.Nodes {
		if _, err := peer.Parse(address); err != nil {
			return validate.NewFieldError(fmt.Sprintf("nodes[%d]", i), err)
		}
	}

	for _, address := range rn.Nodes {
		pr, err := h.State.RegisterPeer(address)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		h.Log.Infow("register node", "traceid", v.TraceID, "host", pr.Host)
	}

	resp := registered{
		Message:    "New nodes have been added",
		TotalNodes: hosts(h.State.RetrieveKnownPeers()),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Resolve asks the known peers for their chains and replaces the local
// chain with the longest valid one.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var resp resolved

	switch h.State.Resolve(ctx) {
	case true:
		metrics.AddReplacements(ctx)
		resp = resolved{
			Message:  "Our Chain was replaced",
			NewChain: h.State.RetrieveChain(),
		}

	default:
		resp = resolved{
			Message: "Our chain is authoritative",
			Chain:   h.State.RetrieveChain(),
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := h.State.RetrieveStatus()
	return web.Respond(ctx, w, status, http.StatusOK)
}

// =============================================================================

func hosts(peers []peer.Peer) []string {
	hosts := make([]string, len(peers))
	for i, pr := range peers {
		hosts[i] = pr.Host
	}
	return hosts
}

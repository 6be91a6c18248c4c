// Package v1 contains the full set of handler functions and routes
// supported by the node api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/autochain/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/autochain/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/autochain/business/web/mid"
	"github.com/ardanlabs/autochain/foundation/blockchain/state"
	"github.com/ardanlabs/autochain/foundation/events"
	"github.com/ardanlabs/autochain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds all the routes. The unversioned routes are the ones every
// node in the network speaks, peers fetch "/chain" during consensus.
func Routes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodPost, "", "/transactions/new", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, "", "/mine", pbl.Mine)
	app.Handle(http.MethodGet, "", "/chain", pbl.Chain)
	app.Handle(http.MethodGet, version, "/tx/pending", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/events", pbl.Events, mid.Cors("*"))

	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, "", "/nodes/register", prv.RegisterNodes)
	app.Handle(http.MethodGet, "", "/nodes/resolve", prv.Resolve)
	app.Handle(http.MethodGet, version, "/status", prv.Status)
}

// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the read-only HTTP surface of the engine: pool slots,
// per-account claimable balances and the allocation/claim history. All
// mutations go through the engine's owner, never HTTP.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/accruelabs/poolmint/api/utils"
	"github.com/accruelabs/poolmint/controller"
	"github.com/accruelabs/poolmint/eventdb"
)

// Options configures the router.
type Options struct {
	AllowedOrigins string
}

// New returns the api router. currentBlock supplies the block number reward
// projections are computed at when the request doesn't pin one.
func New(
	ctrl *controller.Controller,
	events *eventdb.EventDB,
	currentBlock func() uint32,
	opts Options,
) http.HandlerFunc {
	router := mux.NewRouter()

	(&poolsEndpoint{ctrl}).mount(router.PathPrefix("/pools").Subrouter())
	(&accountsEndpoint{ctrl, currentBlock}).mount(router.PathPrefix("/accounts").Subrouter())
	(&eventsEndpoint{events}).mount(router.PathPrefix("/events").Subrouter())

	router.Path("/health").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			return utils.WriteJSON(w, &healthResponse{Healthy: true, BestBlock: currentBlock()})
		}))

	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
	return handler.ServeHTTP
}

type healthResponse struct {
	Healthy   bool   `json:"healthy"`
	BestBlock uint32 `json:"bestBlock"`
}

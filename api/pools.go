// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/accruelabs/poolmint/api/utils"
	"github.com/accruelabs/poolmint/controller"
	"github.com/accruelabs/poolmint/poolmint"
)

type poolsEndpoint struct {
	ctrl *controller.Controller
}

func (p *poolsEndpoint) mount(router *mux.Router) {
	router.Path("").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(p.handleList))
}

// Slot describes one registry slot, nulled slots of removed pools included.
type Slot struct {
	Slot    uint32           `json:"slot"`
	Address poolmint.Address `json:"address"`
	Removed bool             `json:"removed"`
}

func (p *poolsEndpoint) handleList(w http.ResponseWriter, _ *http.Request) error {
	addrs, ignore, err := p.ctrl.Registry().Slots()
	if err != nil {
		return err
	}
	slots := make([]*Slot, len(addrs))
	for i, addr := range addrs {
		slots[i] = &Slot{
			Slot:    uint32(i),
			Address: addr,
			Removed: ignore.Has(i),
		}
	}
	return utils.WriteJSON(w, slots)
}

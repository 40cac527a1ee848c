// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/accruelabs/poolmint/api/utils"
	"github.com/accruelabs/poolmint/controller"
	"github.com/accruelabs/poolmint/poolmint"
)

type accountsEndpoint struct {
	ctrl         *controller.Controller
	currentBlock func() uint32
}

func (a *accountsEndpoint) mount(router *mux.Router) {
	router.Path("/{address}/claimable").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(a.handleClaimable))
}

// Claimable is the projected claimable position of one account.
type Claimable struct {
	Amount string   `json:"amount"`
	Pools  []uint32 `json:"pools"`
	Block  uint32   `json:"block"`
}

func (a *accountsEndpoint) handleClaimable(w http.ResponseWriter, r *http.Request) error {
	holder, err := poolmint.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}

	blockNum := a.currentBlock()
	if raw := r.URL.Query().Get("block"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "block"))
		}
		blockNum = uint32(parsed)
	}

	amount, err := a.ctrl.ClaimableAmount(holder, blockNum)
	if err != nil {
		return err
	}
	mask, err := a.ctrl.ClaimablePools(holder)
	if err != nil {
		return err
	}
	var pools []uint32
	mask.ForEach(func(i int) bool {
		pools = append(pools, uint32(i))
		return true
	})
	return utils.WriteJSON(w, &Claimable{
		Amount: amount.Dec(),
		Pools:  pools,
		Block:  blockNum,
	})
}

// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/accruelabs/poolmint/api/utils"
	"github.com/accruelabs/poolmint/eventdb"
	"github.com/accruelabs/poolmint/poolmint"
)

// query results are capped to keep a single response bounded
const maxEventResults = 1000

type eventsEndpoint struct {
	events *eventdb.EventDB
}

func (e *eventsEndpoint) mount(router *mux.Router) {
	router.Path("/allocations").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(e.handleAllocations))
	router.Path("/claims").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(e.handleClaims))
}

// Allocation is the JSON form of an allocation record.
type Allocation struct {
	BlockNumber uint32           `json:"blockNumber"`
	Pool        poolmint.Address `json:"pool"`
	Holder      poolmint.Address `json:"holder"`
	Amount      string           `json:"amount"`
	SinceBlock  uint32           `json:"sinceBlock"`
	Mode        string           `json:"mode"`
}

// Claim is the JSON form of a claim record.
type Claim struct {
	BlockNumber uint32           `json:"blockNumber"`
	Holder      poolmint.Address `json:"holder"`
	Dest        poolmint.Address `json:"dest"`
	Amount      string           `json:"amount"`
	Batches     uint32           `json:"batches"`
}

func (e *eventsEndpoint) handleAllocations(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	filter := &eventdb.AllocationFilter{}

	var err error
	if filter.Pool, err = queryAddress(query, "pool"); err != nil {
		return err
	}
	if filter.Holder, err = queryAddress(query, "holder"); err != nil {
		return err
	}
	if filter.Range, filter.Options, filter.Order, err = queryCommon(query); err != nil {
		return err
	}

	records, err := e.events.FilterAllocations(r.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]*Allocation, len(records))
	for i, rec := range records {
		out[i] = &Allocation{
			BlockNumber: rec.BlockNumber,
			Pool:        rec.Pool,
			Holder:      rec.Holder,
			Amount:      rec.Amount.Dec(),
			SinceBlock:  rec.SinceBlock,
			Mode:        rec.Mode.String(),
		}
	}
	return utils.WriteJSON(w, out)
}

func (e *eventsEndpoint) handleClaims(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	filter := &eventdb.ClaimFilter{}

	var err error
	if filter.Holder, err = queryAddress(query, "holder"); err != nil {
		return err
	}
	if filter.Dest, err = queryAddress(query, "dest"); err != nil {
		return err
	}
	if filter.Range, filter.Options, filter.Order, err = queryCommon(query); err != nil {
		return err
	}

	records, err := e.events.FilterClaims(r.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]*Claim, len(records))
	for i, rec := range records {
		out[i] = &Claim{
			BlockNumber: rec.BlockNumber,
			Holder:      rec.Holder,
			Dest:        rec.Dest,
			Amount:      rec.Amount.Dec(),
			Batches:     rec.Batches,
		}
	}
	return utils.WriteJSON(w, out)
}

func queryAddress(query url.Values, name string) (*poolmint.Address, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}
	addr, err := poolmint.ParseAddress(raw)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, name))
	}
	return &addr, nil
}

func queryCommon(query url.Values) (*eventdb.Range, *eventdb.Options, eventdb.Order, error) {
	options := &eventdb.Options{Limit: maxEventResults}
	var rng *eventdb.Range

	parse := func(name string, out *uint64, bits int) error {
		raw := query.Get(name)
		if raw == "" {
			return nil
		}
		parsed, err := strconv.ParseUint(raw, 10, bits)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, name))
		}
		*out = parsed
		return nil
	}

	var from, to uint64
	if err := parse("from", &from, 32); err != nil {
		return nil, nil, "", err
	}
	if err := parse("to", &to, 32); err != nil {
		return nil, nil, "", err
	}
	if query.Get("from") != "" || query.Get("to") != "" {
		if query.Get("to") == "" {
			to = from
		}
		rng = &eventdb.Range{From: uint32(from), To: uint32(to)}
	}
	if err := parse("offset", &options.Offset, 64); err != nil {
		return nil, nil, "", err
	}
	if err := parse("limit", &options.Limit, 64); err != nil {
		return nil, nil, "", err
	}
	if options.Limit > maxEventResults {
		return nil, nil, "", utils.BadRequest(errors.Errorf("limit exceeds %d", maxEventResults))
	}

	order := eventdb.ASC
	if query.Get("order") == string(eventdb.DESC) {
		order = eventdb.DESC
	}
	return rng, options, order, nil
}

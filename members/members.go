// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package members tracks, per holder, the mask of pools that currently owe
// the holder a pull-claimable balance.
package members

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/state"
)

func memberKey(holder poolmint.Address) poolmint.Bytes32 {
	return poolmint.BytesToBytes32(append([]byte("m"), holder.Bytes()...))
}

// Tracker holds per-holder membership masks.
type Tracker struct {
	addr  poolmint.Address
	state *state.State
}

// New creates a tracker bound to the given storage address.
func New(addr poolmint.Address, st *state.State) *Tracker {
	return &Tracker{addr, st}
}

// MemberOf returns the holder's membership mask.
func (t *Tracker) MemberOf(holder poolmint.Address) (poolmint.Mask, error) {
	var m maskStorage
	if err := t.state.DecodeStorage(t.addr, memberKey(holder), m.Decode); err != nil {
		return poolmint.Mask{}, err
	}
	return m.Mask, nil
}

// Set marks the holder as enrolled in the pool at the given slot index.
func (t *Tracker) Set(holder poolmint.Address, index uint32) error {
	return t.update(holder, index, true)
}

// Clear unmarks the holder's enrollment in the pool at the given slot index.
func (t *Tracker) Clear(holder poolmint.Address, index uint32) error {
	return t.update(holder, index, false)
}

func (t *Tracker) update(holder poolmint.Address, index uint32, set bool) error {
	mask, err := t.MemberOf(holder)
	if err != nil {
		return err
	}
	if set {
		mask.Set(int(index))
	} else {
		mask.Clear(int(index))
	}
	m := maskStorage{mask}
	return t.state.EncodeStorage(t.addr, memberKey(holder), m.Encode)
}

type maskStorage struct {
	poolmint.Mask
}

func (m *maskStorage) Encode() ([]byte, error) {
	if m.IsZero() {
		return nil, nil
	}
	return rlp.EncodeToBytes(m.Bytes())
}

func (m *maskStorage) Decode(data []byte) error {
	if len(data) == 0 {
		m.Mask = poolmint.Mask{}
		return nil
	}
	var content []byte
	if err := rlp.DecodeBytes(data, &content); err != nil {
		return err
	}
	m.SetBytes(content)
	return nil
}

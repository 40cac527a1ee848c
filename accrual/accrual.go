// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accrual implements the reward-rate accumulator: a per-pool
// monotonic fixed-point index whose growth, scaled by a holder's weight,
// yields the holder's reward since the last snapshot. No per-block iteration
// is ever needed; reads are pure projections and shared state mutates only on
// weight changes, claims and rate changes.
package accrual

import (
	"github.com/holiman/uint256"

	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/ray"
	"github.com/accruelabs/poolmint/state"
)

var rateKey = poolmint.Blake2b([]byte("reward-rate"))

func entryKey(holder poolmint.Address) poolmint.Bytes32 {
	return poolmint.BytesToBytes32(append([]byte("e"), holder.Bytes()...))
}

// Accumulator computes reward accrual for one pool's holders.
type Accumulator struct {
	addr  poolmint.Address
	state *state.State
}

// NewAccumulator creates an accumulator bound to the pool's storage address.
func NewAccumulator(addr poolmint.Address, st *state.State) *Accumulator {
	return &Accumulator{addr, st}
}

func (a *Accumulator) getRate() (*rate, error) {
	var r rate
	if err := a.state.DecodeStorage(a.addr, rateKey, r.Decode); err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *Accumulator) setRate(r *rate) error {
	return a.state.EncodeStorage(a.addr, rateKey, r.Encode)
}

func (a *Accumulator) getEntry(holder poolmint.Address) (*entry, error) {
	var e entry
	if err := a.state.DecodeStorage(a.addr, entryKey(holder), e.Decode); err != nil {
		return nil, err
	}
	return &e, nil
}

func (a *Accumulator) setEntry(holder poolmint.Address, e *entry) error {
	return a.state.EncodeStorage(a.addr, entryKey(holder), e.Encode)
}

// projectAccum returns the reward index as of blockNum without mutating
// anything: accum + linear*(blockNum - updatedAt).
func projectAccum(r *rate, blockNum uint32) (*uint256.Int, error) {
	if blockNum <= r.UpdatedAt {
		// blocks never go backwards in real env
		return r.Accum.Clone(), nil
	}
	grown, err := ray.MulUint(r.Linear, uint64(blockNum-r.UpdatedAt))
	if err != nil {
		return nil, err
	}
	return ray.Add(r.Accum, grown)
}

// accrued returns the holder's fresh accrual against the given index value.
func accrued(e *entry, accum *uint256.Int) (*uint256.Int, error) {
	if e.LastAccum.Gt(accum) {
		// a snapshot ahead of the index never occurs, the index is monotonic
		return new(uint256.Int), nil
	}
	delta := new(uint256.Int).Sub(accum, e.LastAccum)
	return ray.Mul(e.Base, delta)
}

// UpdateRate advances the reward index to blockNum and persists it. Any
// overflow rejects the operation and leaves the index untouched.
func (a *Accumulator) UpdateRate(blockNum uint32) error {
	r, err := a.getRate()
	if err != nil {
		return err
	}
	accum, err := projectAccum(r, blockNum)
	if err != nil {
		return err
	}
	r.Accum = accum
	r.UpdatedAt = blockNum
	return a.setRate(r)
}

// AccumRate returns the projected reward index at blockNum, read-only.
func (a *Accumulator) AccumRate(blockNum uint32) (*uint256.Int, error) {
	r, err := a.getRate()
	if err != nil {
		return nil, err
	}
	return projectAccum(r, blockNum)
}

// LinearRate returns the current reward-per-block rate.
func (a *Accumulator) LinearRate() (*uint256.Int, error) {
	r, err := a.getRate()
	if err != nil {
		return nil, err
	}
	return r.Linear, nil
}

// SetLinearRate switches the reward-per-block rate at blockNum. The index is
// advanced under the old rate first so past accrual is preserved.
func (a *Accumulator) SetLinearRate(linear *uint256.Int, blockNum uint32) error {
	r, err := a.getRate()
	if err != nil {
		return err
	}
	accum, err := projectAccum(r, blockNum)
	if err != nil {
		return err
	}
	r.Accum = accum
	r.UpdatedAt = blockNum
	r.Linear = linear.Clone()
	return a.setRate(r)
}

// Compute returns the holder's claimable amount at blockNum and the block of
// the holder's last snapshot. It's a pure projection: many holders can query
// accrual without mutating shared state on every read.
func (a *Accumulator) Compute(holder poolmint.Address, blockNum uint32) (*uint256.Int, uint32, error) {
	r, err := a.getRate()
	if err != nil {
		return nil, 0, err
	}
	accum, err := projectAccum(r, blockNum)
	if err != nil {
		return nil, 0, err
	}
	e, err := a.getEntry(holder)
	if err != nil {
		return nil, 0, err
	}
	fresh, err := accrued(e, accum)
	if err != nil {
		return nil, 0, err
	}
	total, err := ray.Add(e.Owed, fresh)
	if err != nil {
		return nil, 0, err
	}
	return total, e.LastUpdate, nil
}

// RewardBase returns the holder's current reward weight.
func (a *Accumulator) RewardBase(holder poolmint.Address) (*uint256.Int, error) {
	e, err := a.getEntry(holder)
	if err != nil {
		return nil, err
	}
	return e.Base, nil
}

// SetRewardBase replaces the holder's weight. The accrual under the old
// weight is settled into the owed bucket atomically with the snapshot, so
// nothing is double-counted or lost. It returns the freshly settled amount
// and the block the settlement accrues since.
func (a *Accumulator) SetRewardBase(holder poolmint.Address, base *uint256.Int, blockNum uint32) (*uint256.Int, uint32, error) {
	r, err := a.getRate()
	if err != nil {
		return nil, 0, err
	}
	accum, err := projectAccum(r, blockNum)
	if err != nil {
		return nil, 0, err
	}
	r.Accum = accum
	r.UpdatedAt = blockNum
	if err := a.setRate(r); err != nil {
		return nil, 0, err
	}

	e, err := a.getEntry(holder)
	if err != nil {
		return nil, 0, err
	}
	fresh, err := accrued(e, accum)
	if err != nil {
		return nil, 0, err
	}
	owed, err := ray.Add(e.Owed, fresh)
	if err != nil {
		return nil, 0, err
	}
	since := e.LastUpdate

	e.Base = base.Clone()
	e.LastAccum = accum
	e.Owed = owed
	e.LastUpdate = blockNum
	if err := a.setEntry(holder, e); err != nil {
		return nil, 0, err
	}
	return fresh, since, nil
}

// ClaimFor reports and clears the holder's accrued amount in one step. The
// returned amount is no longer claimable the instant this returns, which is
// what makes minting afterwards re-entrancy safe.
func (a *Accumulator) ClaimFor(holder poolmint.Address, blockNum uint32) (*uint256.Int, uint32, error) {
	r, err := a.getRate()
	if err != nil {
		return nil, 0, err
	}
	accum, err := projectAccum(r, blockNum)
	if err != nil {
		return nil, 0, err
	}
	r.Accum = accum
	r.UpdatedAt = blockNum
	if err := a.setRate(r); err != nil {
		return nil, 0, err
	}

	e, err := a.getEntry(holder)
	if err != nil {
		return nil, 0, err
	}
	fresh, err := accrued(e, accum)
	if err != nil {
		return nil, 0, err
	}
	amount, err := ray.Add(e.Owed, fresh)
	if err != nil {
		return nil, 0, err
	}
	since := e.LastUpdate

	e.Owed = new(uint256.Int)
	e.LastAccum = accum
	e.LastUpdate = blockNum
	if err := a.setEntry(holder, e); err != nil {
		return nil, 0, err
	}
	return amount, since, nil
}

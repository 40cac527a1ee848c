// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry implements the pool registry: an append-only list of pool
// slots where each registered pool owns one bit of a fixed-width mask. Slots
// are assigned at registration time and never reused; removed pools enter the
// ignore mask permanently.
package registry

import (
	"encoding/binary"
	"errors"

	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/state"
)

var (
	// ErrInvalidPool returned when registering a zero or already listed pool.
	ErrInvalidPool = errors.New("invalid pool")
	// ErrFull returned when all mask bits have been assigned.
	ErrFull = errors.New("registry full")
)

var (
	countKey    = poolmint.Blake2b([]byte("slot-count"))
	ignoreKey   = poolmint.Blake2b([]byte("ignore-mask"))
	baselineKey = poolmint.Blake2b([]byte("baseline-mask"))
)

func slotKey(index uint32) poolmint.Bytes32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], index)
	return poolmint.Blake2b([]byte("slot"), b[:])
}

func entryKey(pool poolmint.Address) poolmint.Bytes32 {
	return poolmint.BytesToBytes32(append([]byte("e"), pool.Bytes()...))
}

// Registry tracks pool slots and the ignore/baseline masks.
type Registry struct {
	addr  poolmint.Address
	state *state.State
}

// New creates a registry bound to the given storage address.
func New(addr poolmint.Address, st *state.State) *Registry {
	return &Registry{addr, st}
}

func (r *Registry) getEntry(pool poolmint.Address) (*entry, error) {
	var e entry
	if err := r.state.DecodeStorage(r.addr, entryKey(pool), e.Decode); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Registry) setEntry(pool poolmint.Address, e *entry) error {
	return r.state.EncodeStorage(r.addr, entryKey(pool), e.Encode)
}

func (r *Registry) getMask(key poolmint.Bytes32) (poolmint.Mask, error) {
	var m maskStorage
	if err := r.state.DecodeStorage(r.addr, key, m.Decode); err != nil {
		return poolmint.Mask{}, err
	}
	return m.Mask, nil
}

func (r *Registry) setMask(key poolmint.Bytes32, mask poolmint.Mask) error {
	m := maskStorage{mask}
	return r.state.EncodeStorage(r.addr, key, m.Encode)
}

// Count returns the number of assigned slots, including removed ones.
func (r *Registry) Count() (uint32, error) {
	var n uint32
	if err := r.state.DecodeStorage(r.addr, countKey, func(raw []byte) error {
		if len(raw) == 0 {
			n = 0
			return nil
		}
		return decodeUint32(raw, &n)
	}); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Registry) setCount(n uint32) error {
	return r.state.EncodeStorage(r.addr, countKey, func() ([]byte, error) {
		return encodeUint32(n)
	})
}

// Add registers a pool and assigns it the next slot.
// It fails with ErrInvalidPool on a zero address or a currently listed pool,
// and with ErrFull once all mask bits are assigned. The new pool's bit is set
// in the baseline mask so it takes part in baseline-rate broadcasts.
func (r *Registry) Add(pool poolmint.Address) (uint32, error) {
	if pool.IsZero() {
		return 0, ErrInvalidPool
	}
	e, err := r.getEntry(pool)
	if err != nil {
		return 0, err
	}
	if !e.IsEmpty() {
		return 0, ErrInvalidPool
	}

	count, err := r.Count()
	if err != nil {
		return 0, err
	}
	if count >= poolmint.MaxPools {
		return 0, ErrFull
	}

	index := count
	if err := r.state.EncodeStorage(r.addr, slotKey(index), (&addressStorage{pool}).Encode); err != nil {
		return 0, err
	}
	if err := r.setEntry(pool, &entry{Index: index, Listed: true}); err != nil {
		return 0, err
	}
	if err := r.setCount(count + 1); err != nil {
		return 0, err
	}

	baseline, err := r.getMask(baselineKey)
	if err != nil {
		return 0, err
	}
	baseline.Set(int(index))
	if err := r.setMask(baselineKey, baseline); err != nil {
		return 0, err
	}
	return index, nil
}

// Remove unregisters a pool. It's an idempotent no-op for unknown pools and
// returns whether the pool was listed. The slot is nulled and the pool's bit
// enters the ignore mask, which is never cleared — the slot index is not
// reusable.
func (r *Registry) Remove(pool poolmint.Address) (bool, error) {
	e, err := r.getEntry(pool)
	if err != nil {
		return false, err
	}
	if e.IsEmpty() {
		return false, nil
	}

	if err := r.state.EncodeStorage(r.addr, slotKey(e.Index), (&addressStorage{}).Encode); err != nil {
		return false, err
	}
	if err := r.setEntry(pool, &entry{}); err != nil {
		return false, err
	}

	ignore, err := r.getMask(ignoreKey)
	if err != nil {
		return false, err
	}
	ignore.Set(int(e.Index))
	if err := r.setMask(ignoreKey, ignore); err != nil {
		return false, err
	}
	return true, nil
}

// IndexOf returns the slot index of a listed pool.
func (r *Registry) IndexOf(pool poolmint.Address) (uint32, bool, error) {
	e, err := r.getEntry(pool)
	if err != nil {
		return 0, false, err
	}
	if e.IsEmpty() {
		return 0, false, nil
	}
	return e.Index, true, nil
}

// PoolAt returns the pool address at the given slot, zero when the slot was
// nulled by removal or never assigned.
func (r *Registry) PoolAt(index uint32) (poolmint.Address, error) {
	var a addressStorage
	if err := r.state.DecodeStorage(r.addr, slotKey(index), a.Decode); err != nil {
		return poolmint.Address{}, err
	}
	return a.Address, nil
}

// Slots returns the full slot list, including nulled slots of removed pools,
// along with the ignore mask.
func (r *Registry) Slots() ([]poolmint.Address, poolmint.Mask, error) {
	count, err := r.Count()
	if err != nil {
		return nil, poolmint.Mask{}, err
	}
	slots := make([]poolmint.Address, count)
	for i := uint32(0); i < count; i++ {
		if slots[i], err = r.PoolAt(i); err != nil {
			return nil, poolmint.Mask{}, err
		}
	}
	ignore, err := r.IgnoreMask()
	if err != nil {
		return nil, poolmint.Mask{}, err
	}
	return slots, ignore, nil
}

// IgnoreMask returns the mask of removed pools.
func (r *Registry) IgnoreMask() (poolmint.Mask, error) {
	return r.getMask(ignoreKey)
}

// BaselineMask returns the mask of pools still subscribed to baseline-rate
// broadcasts.
func (r *Registry) BaselineMask() (poolmint.Mask, error) {
	return r.getMask(baselineKey)
}

// ActiveMask returns the mask of listed pools, i.e. assigned slots minus
// removed ones.
func (r *Registry) ActiveMask() (poolmint.Mask, error) {
	count, err := r.Count()
	if err != nil {
		return poolmint.Mask{}, err
	}
	ignore, err := r.IgnoreMask()
	if err != nil {
		return poolmint.Mask{}, err
	}
	return poolmint.MaskUpTo(int(count)).AndNot(ignore), nil
}

// BroadcastBaseline visits every pool whose bit is set in
// baselineMask & ~ignoreMask, scanning set bits only, and clears the bit of
// each pool that reports it's no longer interested in baseline pushes. The
// visit is best-effort per pool but fails as a whole on the first error.
func (r *Registry) BroadcastBaseline(push func(index uint32, pool poolmint.Address) (interested bool, err error)) error {
	baseline, err := r.getMask(baselineKey)
	if err != nil {
		return err
	}
	ignore, err := r.getMask(ignoreKey)
	if err != nil {
		return err
	}

	updated := baseline
	baseline.AndNot(ignore).ForEach(func(i int) bool {
		var pool poolmint.Address
		if pool, err = r.PoolAt(uint32(i)); err != nil {
			return false
		}
		if pool.IsZero() {
			// nulled slot, cannot happen while the ignore bit is clear
			return true
		}
		var interested bool
		if interested, err = push(uint32(i), pool); err != nil {
			return false
		}
		if !interested {
			updated.Clear(i)
		}
		return true
	})
	if err != nil {
		return err
	}
	if updated != baseline {
		return r.setMask(baselineKey, updated)
	}
	return nil
}

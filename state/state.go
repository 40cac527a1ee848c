// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/accruelabs/poolmint/kv"
	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr poolmint.Address
	key  poolmint.Bytes32
}

// State is the single owned aggregate holding all engine state: registry
// slots and masks, per-holder membership, per-pool reward entries and token
// balances. Every value is key-addressable by (component address, key).
//
// State is not safe for concurrent use: the execution model is strictly
// serialized, every operation runs to completion before the next begins.
type State struct {
	db kv.GetPutter
	sm *stackedmap.StackedMap[storageKey, []byte]
}

// New creates a state backed by the given key-value store.
func New(db kv.GetPutter) *State {
	src := func(k storageKey) ([]byte, bool, error) {
		raw, err := db.Get(persistentKey(k))
		if err != nil {
			if db.IsNotFound(err) {
				return nil, false, nil
			}
			return nil, false, &Error{err}
		}
		return raw, true, nil
	}

	st := &State{
		db: db,
		sm: stackedmap.New(src),
	}
	// base layer collects writes of the current commit window
	st.sm.Push()
	return st
}

func persistentKey(k storageKey) []byte {
	buf := make([]byte, 0, 1+poolmint.AddressLength+32)
	buf = append(buf, 's')
	buf = append(buf, k.addr.Bytes()...)
	return append(buf, k.key.Bytes()...)
}

// GetRawStorage returns the raw stored value, nil if absent.
func (s *State) GetRawStorage(addr poolmint.Address, key poolmint.Bytes32) ([]byte, error) {
	raw, _, err := s.sm.Get(storageKey{addr, key})
	return raw, err
}

// SetRawStorage stores the raw value. Empty value frees the slot.
func (s *State) SetRawStorage(addr poolmint.Address, key poolmint.Bytes32, raw []byte) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage sets the storage value encoded by the given enc method.
// Encoding to nil value clears the storage slot.
func (s *State) EncodeStorage(addr poolmint.Address, key poolmint.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage gets and decodes the storage value.
// The dec method is called with nil data for an absent slot.
func (s *State) DecodeStorage(addr poolmint.Address, key poolmint.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns a checkpoint that can be passed into RevertTo to revert all
// mutations made after this call, making operations all-or-nothing.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts to the given checkpoint.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Commit flushes all buffered mutations into the key-value store in one
// atomic batch and resets the checkpoint stack.
func (s *State) Commit() error {
	batch := s.db.NewBatch()

	final := make(map[storageKey][]byte)
	s.sm.Journal(func(k storageKey, v []byte) bool {
		final[k] = v
		return true
	})
	for k, raw := range final {
		var err error
		if len(raw) == 0 {
			err = batch.Delete(persistentKey(k))
		} else {
			err = batch.Put(persistentKey(k), raw)
		}
		if err != nil {
			return &Error{err}
		}
	}

	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}

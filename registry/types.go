// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/accruelabs/poolmint/poolmint"
)

type entry struct {
	Index  uint32
	Listed bool
}

// IsEmpty returns whether the entry refers to no listed pool.
// Removed pools leave no entry behind, re-registration assigns a fresh slot.
func (e *entry) IsEmpty() bool {
	return !e.Listed
}

func (e *entry) Encode() ([]byte, error) {
	if e.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(e)
}

func (e *entry) Decode(data []byte) error {
	if len(data) == 0 {
		*e = entry{}
		return nil
	}
	return rlp.DecodeBytes(data, e)
}

func encodeUint32(n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(n)
}

func decodeUint32(raw []byte, n *uint32) error {
	return rlp.DecodeBytes(raw, n)
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

type addressStorage struct {
	poolmint.Address
}

func (a *addressStorage) Encode() ([]byte, error) {
	if a.IsZero() {
		return nil, nil
	}
	return rlp.EncodeToBytes(a.Bytes())
}

func (a *addressStorage) Decode(data []byte) error {
	if len(data) == 0 {
		a.Address = poolmint.Address{}
		return nil
	}
	var content []byte
	if err := rlp.DecodeBytes(data, &content); err != nil {
		return err
	}
	a.Address = poolmint.BytesToAddress(content)
	return nil
}

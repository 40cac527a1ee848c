// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrual

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

type (
	// rate is the global accrual state of one pool.
	rate struct {
		Accum     *uint256.Int // monotonic fixed-point reward index
		UpdatedAt uint32       // block of the last index refresh
		Linear    *uint256.Int // current reward per block, ray scale
	}

	// entry is the per-holder reward bookkeeping of one pool.
	entry struct {
		Base       *uint256.Int // stake/weight driving accrual
		LastAccum  *uint256.Int // snapshot of the reward index at last update
		Owed       *uint256.Int // settled but unclaimed reward
		LastUpdate uint32       // block of the last snapshot
	}
)

func (r *rate) Encode() ([]byte, error) {
	if r.Accum.IsZero() && r.UpdatedAt == 0 && r.Linear.IsZero() {
		return nil, nil
	}
	return rlp.EncodeToBytes(r)
}

func (r *rate) Decode(data []byte) error {
	if len(data) == 0 {
		*r = rate{&uint256.Int{}, 0, &uint256.Int{}}
		return nil
	}
	return rlp.DecodeBytes(data, r)
}

func (e *entry) Encode() ([]byte, error) {
	if e.Base.IsZero() && e.LastAccum.IsZero() && e.Owed.IsZero() && e.LastUpdate == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(e)
}

func (e *entry) Decode(data []byte) error {
	if len(data) == 0 {
		*e = entry{&uint256.Int{}, &uint256.Int{}, &uint256.Int{}, 0}
		return nil
	}
	return rlp.DecodeBytes(data, e)
}

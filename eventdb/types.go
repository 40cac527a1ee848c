// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/holiman/uint256"

	"github.com/accruelabs/poolmint/poolmint"
)

// Allocation records a reward accrual settlement reported by a pool.
type Allocation struct {
	BlockNumber uint32
	Index       uint32
	Pool        poolmint.Address
	Holder      poolmint.Address
	Amount      *uint256.Int
	SinceBlock  uint32
	Mode        poolmint.AllocationMode
}

// Claim records one settled claim: the aggregate amount minted to dest on
// the holder's behalf and how many mint calls it took.
type Claim struct {
	BlockNumber uint32
	Index       uint32
	Holder      poolmint.Address
	Dest        poolmint.Address
	Amount      *uint256.Int
	Batches     uint32
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds a filter by block number, inclusive.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// AllocationFilter filter
type AllocationFilter struct {
	Pool    *poolmint.Address
	Holder  *poolmint.Address
	Range   *Range
	Options *Options
	Order   Order // default asc
}

// ClaimFilter filter
type ClaimFilter struct {
	Holder  *poolmint.Address
	Dest    *poolmint.Address
	Range   *Range
	Options *Options
	Order   Order // default asc
}

// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/accruelabs/poolmint/poolmint"
)

func newTestDB(t *testing.T) *EventDB {
	db, err := NewMem()
	assert.Nil(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestBatchCommit(t *testing.T) {
	db := newTestDB(t)

	pool := poolmint.BytesToAddress([]byte("pool"))
	holder := poolmint.BytesToAddress([]byte("holder"))
	dest := poolmint.BytesToAddress([]byte("dest"))

	batch := db.Prepare(100)
	batch.AddAllocation(pool, holder, uint256.NewInt(10), 90, poolmint.AllocationSetPull)
	batch.AddAllocation(pool, holder, uint256.NewInt(20), 95, poolmint.AllocationPush)
	batch.AddClaim(holder, dest, uint256.NewInt(30), 2)
	assert.Equal(t, 3, batch.Len())

	// nothing visible before commit
	allocations, err := db.FilterAllocations(context.Background(), nil)
	assert.Nil(t, err)
	assert.Len(t, allocations, 0)

	assert.Nil(t, batch.Commit())

	allocations, err = db.FilterAllocations(context.Background(), nil)
	assert.Nil(t, err)
	assert.Len(t, allocations, 2)
	assert.Equal(t, uint32(0), allocations[0].Index)
	assert.Equal(t, uint256.NewInt(10), allocations[0].Amount)
	assert.Equal(t, uint32(90), allocations[0].SinceBlock)
	assert.Equal(t, poolmint.AllocationSetPull, allocations[0].Mode)

	claims, err := db.FilterClaims(context.Background(), nil)
	assert.Nil(t, err)
	assert.Len(t, claims, 1)
	assert.Equal(t, holder, claims[0].Holder)
	assert.Equal(t, dest, claims[0].Dest)
	assert.Equal(t, uint256.NewInt(30), claims[0].Amount)
	assert.Equal(t, uint32(2), claims[0].Batches)
}

func TestFilterAllocations(t *testing.T) {
	db := newTestDB(t)

	p1 := poolmint.BytesToAddress([]byte("p1"))
	p2 := poolmint.BytesToAddress([]byte("p2"))
	h1 := poolmint.BytesToAddress([]byte("h1"))
	h2 := poolmint.BytesToAddress([]byte("h2"))

	for blockNum := uint32(1); blockNum <= 5; blockNum++ {
		batch := db.Prepare(blockNum)
		batch.AddAllocation(p1, h1, uint256.NewInt(uint64(blockNum)), 0, poolmint.AllocationSetPull)
		batch.AddAllocation(p2, h2, uint256.NewInt(uint64(blockNum)*100), 0, poolmint.AllocationSetPull)
		assert.Nil(t, batch.Commit())
	}

	got, err := db.FilterAllocations(context.Background(), &AllocationFilter{Pool: &p1})
	assert.Nil(t, err)
	assert.Len(t, got, 5)

	got, err = db.FilterAllocations(context.Background(), &AllocationFilter{
		Holder: &h2,
		Range:  &Range{From: 2, To: 3},
	})
	assert.Nil(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, uint256.NewInt(200), got[0].Amount)

	got, err = db.FilterAllocations(context.Background(), &AllocationFilter{
		Order:   DESC,
		Options: &Options{Offset: 0, Limit: 3},
	})
	assert.Nil(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, uint32(5), got[0].BlockNumber)
}

func TestFilterClaims(t *testing.T) {
	db := newTestDB(t)

	h1 := poolmint.BytesToAddress([]byte("h1"))
	h2 := poolmint.BytesToAddress([]byte("h2"))
	dest := poolmint.BytesToAddress([]byte("dest"))

	batch := db.Prepare(7)
	batch.AddClaim(h1, h1, uint256.NewInt(5), 1)
	batch.AddClaim(h2, dest, uint256.NewInt(9), 3)
	assert.Nil(t, batch.Commit())

	got, err := db.FilterClaims(context.Background(), &ClaimFilter{Holder: &h2})
	assert.Nil(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, dest, got[0].Dest)

	got, err = db.FilterClaims(context.Background(), &ClaimFilter{Dest: &dest, Range: &Range{From: 7, To: 7}})
	assert.Nil(t, err)
	assert.Len(t, got, 1)

	got, err = db.FilterClaims(context.Background(), &ClaimFilter{Range: &Range{From: 8, To: 9}})
	assert.Nil(t, err)
	assert.Len(t, got, 0)
}

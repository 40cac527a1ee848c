// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrual

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/accruelabs/poolmint/lvldb"
	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/ray"
	"github.com/accruelabs/poolmint/state"
)

var (
	poolAddr = poolmint.BytesToAddress([]byte("pool-a"))
	holder   = poolmint.BytesToAddress([]byte("holder"))
)

func newTestAccumulator(t *testing.T) *Accumulator {
	db, err := lvldb.NewMem()
	assert.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAccumulator(poolAddr, state.New(db))
}

func TestLinearAccrual(t *testing.T) {
	acc := newTestAccumulator(t)

	// index grows 1.0 per block, holder's weight is 5
	assert.Nil(t, acc.SetLinearRate(ray.Scale, 0))
	_, _, err := acc.SetRewardBase(holder, uint256.NewInt(5), 0)
	assert.Nil(t, err)

	amount, since, err := acc.Compute(holder, 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(50), amount)
	assert.Equal(t, uint32(0), since)

	amount, since, err = acc.ClaimFor(holder, 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(50), amount)
	assert.Equal(t, uint32(0), since)

	// nothing left the instant the claim settles
	amount, since, err = acc.Compute(holder, 10)
	assert.Nil(t, err)
	assert.True(t, amount.IsZero())
	assert.Equal(t, uint32(10), since)
}

func TestNoDoubleClaim(t *testing.T) {
	acc := newTestAccumulator(t)

	assert.Nil(t, acc.SetLinearRate(ray.Scale, 0))
	_, _, err := acc.SetRewardBase(holder, uint256.NewInt(3), 0)
	assert.Nil(t, err)

	first, _, err := acc.ClaimFor(holder, 7)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(21), first)

	second, _, err := acc.ClaimFor(holder, 7)
	assert.Nil(t, err)
	assert.True(t, second.IsZero())
}

func TestComputeIsPure(t *testing.T) {
	acc := newTestAccumulator(t)

	assert.Nil(t, acc.SetLinearRate(ray.Scale, 0))
	_, _, err := acc.SetRewardBase(holder, uint256.NewInt(4), 0)
	assert.Nil(t, err)

	// repeated projections don't change what a later claim yields
	for i := 0; i < 5; i++ {
		amount, _, err := acc.Compute(holder, 25)
		assert.Nil(t, err)
		assert.Equal(t, uint256.NewInt(100), amount)
	}
	claimed, _, err := acc.ClaimFor(holder, 25)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(100), claimed)
}

func TestWeightChangePreservesAccrual(t *testing.T) {
	acc := newTestAccumulator(t)

	assert.Nil(t, acc.SetLinearRate(ray.Scale, 0))
	_, _, err := acc.SetRewardBase(holder, uint256.NewInt(5), 0)
	assert.Nil(t, err)

	// 50 accrued under the old weight settles into the owed bucket
	fresh, since, err := acc.SetRewardBase(holder, uint256.NewInt(2), 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(50), fresh)
	assert.Equal(t, uint32(0), since)

	amount, since, err := acc.Compute(holder, 20)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(70), amount)
	assert.Equal(t, uint32(10), since)
}

func TestRateChange(t *testing.T) {
	acc := newTestAccumulator(t)

	assert.Nil(t, acc.SetLinearRate(ray.Scale, 0))
	_, _, err := acc.SetRewardBase(holder, uint256.NewInt(10), 0)
	assert.Nil(t, err)

	// doubling the rate at block 5 must not rewrite the first 5 blocks
	doubled, err := ray.MulUint(ray.Scale, 2)
	assert.Nil(t, err)
	assert.Nil(t, acc.SetLinearRate(doubled, 5))

	amount, _, err := acc.Compute(holder, 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(150), amount)
}

func TestOverflowRejected(t *testing.T) {
	acc := newTestAccumulator(t)

	max := new(uint256.Int).Not(new(uint256.Int))
	assert.Nil(t, acc.SetLinearRate(max, 0))

	err := acc.UpdateRate(2)
	assert.Equal(t, ray.ErrOverflow, err)

	// the failed advance left the rate state untouched
	linear, err := acc.LinearRate()
	assert.Nil(t, err)
	assert.Equal(t, max, linear)
	accum, err := acc.AccumRate(0)
	assert.Nil(t, err)
	assert.True(t, accum.IsZero())
}

func TestStaleBlockIsNoop(t *testing.T) {
	acc := newTestAccumulator(t)

	assert.Nil(t, acc.SetLinearRate(ray.Scale, 10))
	assert.Nil(t, acc.UpdateRate(10))

	accum, err := acc.AccumRate(5)
	assert.Nil(t, err)
	assert.True(t, accum.IsZero())
}

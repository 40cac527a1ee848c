// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/accruelabs/poolmint/accrual"
	"github.com/accruelabs/poolmint/eventdb"
	"github.com/accruelabs/poolmint/lvldb"
	"github.com/accruelabs/poolmint/minter"
	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/ray"
	"github.com/accruelabs/poolmint/state"
	"github.com/accruelabs/poolmint/token"
)

var (
	admin  = poolmint.BytesToAddress([]byte("admin"))
	holder = poolmint.BytesToAddress([]byte("holder"))
)

var adminOnly = AuthorizerFunc(func(caller poolmint.Address, _ string) bool {
	return caller == admin
})

type countingMinter struct {
	inner minter.Minter
	calls int
	// failAt fails the n-th mint call when non-zero
	failAt int
}

func (m *countingMinter) Mint(dest poolmint.Address, amount *uint256.Int) error {
	m.calls++
	if m.failAt != 0 && m.calls == m.failAt {
		return errors.New("mint refused")
	}
	return m.inner.Mint(dest, amount)
}

type testEngine struct {
	ctrl   *Controller
	st     *state.State
	ledger *token.Ledger
	events *eventdb.EventDB
	mint   *countingMinter
}

func newTestEngine(t *testing.T) *testEngine {
	db, err := lvldb.NewMem()
	assert.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	events, err := eventdb.NewMem()
	assert.Nil(t, err)
	t.Cleanup(events.Close)

	st := state.New(db)
	ctrl := New(st, Config{Auth: adminOnly, Events: events})
	ledger := token.New(poolmint.TokenAddress, st)
	mint := &countingMinter{inner: ledger}
	assert.Nil(t, ctrl.SetMinter(admin, mint))
	return &testEngine{ctrl, st, ledger, events, mint}
}

// addPool registers an accumulator pool with the given custom rate and
// stakes the holder's weight in it at the given block.
func (e *testEngine) addPool(t *testing.T, name string, linear *uint256.Int, weight uint64, blockNum uint32) *accrual.RewardPool {
	pool := accrual.NewRewardPool(poolmint.BytesToAddress([]byte(name)), e.st, e.ctrl)
	_, err := e.ctrl.AddPool(admin, pool)
	assert.Nil(t, err)
	assert.Nil(t, pool.SetCustomRate(linear, blockNum))
	assert.Nil(t, pool.SetRewardBase(admin, holder, uint256.NewInt(weight), blockNum))
	return pool
}

func TestClaimAggregatesAcrossPools(t *testing.T) {
	e := newTestEngine(t)

	for _, name := range []string{"p1", "p2", "p3"} {
		e.addPool(t, name, ray.Scale, 5, 0)
	}

	claimable, err := e.ctrl.ClaimableAmount(holder, 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(150), claimable)

	minted, err := e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(150), minted)

	// all three pools accrued since block 0, one mint call settles them
	assert.Equal(t, 1, e.mint.calls)
	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(150), balance)

	// claimed through but the weights stay staked, so the pools remain
	// claimable with nothing accrued yet
	mask, err := e.ctrl.ClaimablePools(holder)
	assert.Nil(t, err)
	assert.Equal(t, poolmint.MaskUpTo(3), mask)
	claimable, err = e.ctrl.ClaimableAmount(holder, 10)
	assert.Nil(t, err)
	assert.True(t, claimable.IsZero())

	claims, err := e.events.FilterClaims(context.Background(), &eventdb.ClaimFilter{Holder: &holder})
	assert.Nil(t, err)
	assert.Len(t, claims, 1)
	assert.Equal(t, uint256.NewInt(150), claims[0].Amount)
	assert.Equal(t, uint32(1), claims[0].Batches)
}

func TestClaimBatchBoundaries(t *testing.T) {
	e := newTestEngine(t)

	// slots 0 and 1 accrue since block 0, slot 2 since block 5:
	// two contiguous runs, two mint calls
	e.addPool(t, "p1", ray.Scale, 1, 0)
	e.addPool(t, "p2", ray.Scale, 1, 0)
	e.addPool(t, "p3", ray.Scale, 1, 5)

	minted, err := e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(25), minted)
	assert.Equal(t, 2, e.mint.calls)

	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(25), balance)

	claims, err := e.events.FilterClaims(context.Background(), nil)
	assert.Nil(t, err)
	assert.Len(t, claims, 1)
	assert.Equal(t, uint32(2), claims[0].Batches)
}

func TestRepeatClaimKeepsAccruing(t *testing.T) {
	e := newTestEngine(t)
	e.addPool(t, "p1", ray.Scale, 1, 0)

	minted, err := e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), minted)

	// the weight is still staked: accrual carries on and a later claim
	// settles it without any provider re-touching the pool
	claimable, err := e.ctrl.ClaimableAmount(holder, 20)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), claimable)

	minted, err = e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 20)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), minted)

	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(20), balance)
	mask, err := e.ctrl.ClaimablePools(holder)
	assert.Nil(t, err)
	assert.Equal(t, poolmint.MaskOfBit(0), mask)
}

func TestClaimDropsDrainedPool(t *testing.T) {
	e := newTestEngine(t)
	pool := e.addPool(t, "p1", ray.Scale, 1, 0)

	// unstake at block 10; the settled 10 stays claimable so the pull bit
	// holds until it is claimed through
	assert.Nil(t, pool.SetRewardBase(admin, holder, new(uint256.Int), 10))
	mask, err := e.ctrl.ClaimablePools(holder)
	assert.Nil(t, err)
	assert.Equal(t, poolmint.MaskOfBit(0), mask)

	minted, err := e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 15)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), minted)

	// drained and weightless, the pool drops out of the membership mask
	mask, err = e.ctrl.ClaimablePools(holder)
	assert.Nil(t, err)
	assert.True(t, mask.IsZero())
}

func TestClaimTwoRatesSharedHistory(t *testing.T) {
	e := newTestEngine(t)

	// both pools hold weight 100 since block 10 at rates 2 and 3 per block;
	// ten blocks later the two settle as one 5000-unit mint call
	double, _ := ray.MulUint(ray.Scale, 2)
	triple, _ := ray.MulUint(ray.Scale, 3)
	e.addPool(t, "p1", double, 100, 10)
	e.addPool(t, "p2", triple, 100, 10)

	minted, err := e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 20)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(5000), minted)
	assert.Equal(t, 1, e.mint.calls)

	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(5000), balance)
}

func TestClaimManyPoolsOneMint(t *testing.T) {
	e := newTestEngine(t)

	// 50 pools sharing a history coalesce into a single mint call
	for i := 0; i < 50; i++ {
		e.addPool(t, "fan-"+string(rune('A'+i)), ray.Scale, 2, 0)
	}

	minted, err := e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 100)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(50*2*100), minted)
	assert.Equal(t, 1, e.mint.calls)

	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(50*2*100), balance)
}

func TestClaimRequestedSubset(t *testing.T) {
	e := newTestEngine(t)

	e.addPool(t, "p1", ray.Scale, 1, 0)
	e.addPool(t, "p2", ray.Scale, 1, 0)

	minted, err := e.ctrl.Claim(holder, poolmint.MaskOfBit(0), 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), minted)
	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(10), balance)

	// the unclaimed pool still carries its accrual
	claimable, err := e.ctrl.ClaimableAmount(holder, 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), claimable)
}

func TestClaimAndTransferTo(t *testing.T) {
	e := newTestEngine(t)
	e.addPool(t, "p1", ray.Scale, 1, 0)

	dest := poolmint.BytesToAddress([]byte("cold-wallet"))
	minted, err := e.ctrl.ClaimAndTransferTo(holder, poolmint.MaskUpTo(poolmint.MaskBits), dest, 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), minted)

	balance, _ := e.ledger.BalanceOf(dest)
	assert.Equal(t, uint256.NewInt(10), balance)
	balance, _ = e.ledger.BalanceOf(holder)
	assert.True(t, balance.IsZero())

	_, err = e.ctrl.ClaimAndTransferTo(holder, poolmint.MaskUpTo(poolmint.MaskBits), poolmint.Address{}, 10)
	assert.Equal(t, ErrZeroDestination, err)
}

func TestClaimWithoutMinter(t *testing.T) {
	db, err := lvldb.NewMem()
	assert.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	ctrl := New(state.New(db), Config{})

	_, err = ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 1)
	assert.Equal(t, ErrNoMinter, err)
}

func TestClaimAtomicity(t *testing.T) {
	e := newTestEngine(t)

	// distinct since-blocks force two mint calls, the second one fails
	e.addPool(t, "p1", ray.Scale, 1, 0)
	e.addPool(t, "p2", ray.Scale, 1, 5)
	e.mint.failAt = 2

	_, err := e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.NotNil(t, err)

	// no partial settlement: balances, accrual and membership all intact
	balance, _ := e.ledger.BalanceOf(holder)
	assert.True(t, balance.IsZero())
	mask, _ := e.ctrl.ClaimablePools(holder)
	assert.Equal(t, poolmint.MaskOfBit(0).Or(poolmint.MaskOfBit(1)), mask)
	claimable, err := e.ctrl.ClaimableAmount(holder, 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(15), claimable)

	claims, err := e.events.FilterClaims(context.Background(), nil)
	assert.Nil(t, err)
	assert.Len(t, claims, 0)

	// the retry succeeds
	e.mint.failAt = 0
	minted, err := e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(15), minted)
	balance, _ = e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(15), balance)
}

func TestRemovedPoolNotClaimable(t *testing.T) {
	e := newTestEngine(t)

	p1 := e.addPool(t, "p1", ray.Scale, 1, 0)
	e.addPool(t, "p2", ray.Scale, 1, 0)

	removed, err := e.ctrl.RemovePool(admin, p1.Address())
	assert.Nil(t, err)
	assert.True(t, removed)

	mask, err := e.ctrl.ClaimablePools(holder)
	assert.Nil(t, err)
	assert.Equal(t, poolmint.MaskOfBit(1), mask)

	minted, err := e.ctrl.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), minted)
	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(10), balance)
}

func TestAuthorization(t *testing.T) {
	e := newTestEngine(t)
	e.addPool(t, "p1", ray.Scale, 1, 0)

	stranger := poolmint.BytesToAddress([]byte("stranger"))

	_, err := e.ctrl.AddPool(stranger, accrual.NewRewardPool(poolmint.BytesToAddress([]byte("px")), e.st, e.ctrl))
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = e.ctrl.RemovePool(stranger, poolmint.BytesToAddress([]byte("p1")))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, e.ctrl.SetMinter(stranger, e.ledger), ErrUnauthorized)
	assert.ErrorIs(t, e.ctrl.UpdateBaseline(stranger, ray.Scale, 1), ErrUnauthorized)
	_, err = e.ctrl.ClaimFor(stranger, holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// ClaimFor settles to the holder, never the caller
	minted, err := e.ctrl.ClaimFor(admin, holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), minted)
	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(10), balance)
	balance, _ = e.ledger.BalanceOf(admin)
	assert.True(t, balance.IsZero())
}

func TestReportFromUnknownPool(t *testing.T) {
	e := newTestEngine(t)

	rogue := poolmint.BytesToAddress([]byte("rogue"))
	err := e.ctrl.ReportAllocation(rogue, holder, uint256.NewInt(1), 0, 1, poolmint.AllocationSetPull)
	assert.Equal(t, ErrUnknownPool, err)
}

func TestPushAllocation(t *testing.T) {
	e := newTestEngine(t)
	pool := e.addPool(t, "p1", ray.Scale, 1, 0)

	assert.Nil(t, e.ctrl.ReportAllocation(pool.Address(), holder, uint256.NewInt(42), 0, 5, poolmint.AllocationPush))

	// pushed rewards mint immediately and don't touch the pull bit
	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(42), balance)
	mask, _ := e.ctrl.ClaimablePools(holder)
	assert.Equal(t, poolmint.MaskOfBit(0), mask)

	allocations, err := e.events.FilterAllocations(context.Background(), &eventdb.AllocationFilter{Pool: addrPtr(pool.Address())})
	assert.Nil(t, err)
	assert.Equal(t, poolmint.AllocationPush, allocations[len(allocations)-1].Mode)
}

func addrPtr(a poolmint.Address) *poolmint.Address { return &a }

func TestUpdateBaselineBroadcast(t *testing.T) {
	e := newTestEngine(t)

	standard := e.addPool(t, "p1", ray.Scale, 1, 0)
	custom := e.addPool(t, "p2", ray.Scale, 1, 0)
	doubled, _ := ray.MulUint(ray.Scale, 2)
	assert.Nil(t, custom.SetCustomRate(doubled, 0))

	tripled, _ := ray.MulUint(ray.Scale, 3)
	assert.Nil(t, e.ctrl.UpdateBaseline(admin, tripled, 5))

	linear, err := standard.Accumulator().LinearRate()
	assert.Nil(t, err)
	assert.Equal(t, tripled, linear)
	linear, err = custom.Accumulator().LinearRate()
	assert.Nil(t, err)
	assert.Equal(t, doubled, linear)

	// the custom pool dropped off the broadcast list for good
	baseline, err := e.ctrl.Registry().BaselineMask()
	assert.Nil(t, err)
	assert.Equal(t, poolmint.MaskOfBit(0), baseline)
}

func TestBindAfterRestart(t *testing.T) {
	e := newTestEngine(t)
	pool := e.addPool(t, "p1", ray.Scale, 1, 0)

	// a rebuilt controller on the same state knows the registry but needs
	// runtime bindings re-attached
	ctrl2 := New(e.st, Config{Auth: adminOnly})
	assert.Nil(t, ctrl2.SetMinter(admin, e.ledger))

	_, err := ctrl2.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.ErrorIs(t, err, ErrUnknownPool)

	rebound := accrual.NewRewardPool(pool.Address(), e.st, ctrl2)
	assert.Nil(t, ctrl2.Bind(rebound))
	minted, err := ctrl2.Claim(holder, poolmint.MaskUpTo(poolmint.MaskBits), 10)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(10), minted)

	balance, _ := e.ledger.BalanceOf(holder)
	assert.Equal(t, uint256.NewInt(10), balance)

	assert.Equal(t, ErrUnknownPool, ctrl2.Bind(accrual.NewRewardPool(poolmint.BytesToAddress([]byte("nope")), e.st, ctrl2)))
}

func TestSetMinterRejectsBadChain(t *testing.T) {
	e := newTestEngine(t)

	head := minter.Minter(e.ledger)
	collector := poolmint.BytesToAddress([]byte("fees"))
	for i := 0; i <= minter.MaxHops; i++ {
		var err error
		head, err = minter.NewFeeSplitter(head, collector, 1)
		assert.Nil(t, err)
	}
	assert.Equal(t, minter.ErrChainOverrun, e.ctrl.SetMinter(admin, head))
	assert.Equal(t, ErrNoMinter, e.ctrl.SetMinter(admin, nil))
}

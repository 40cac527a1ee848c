// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package controller implements the claim aggregation engine tying registry,
// membership, pools and the minter chain together. Every mutating operation
// is all-or-nothing: a state checkpoint is taken up front and any failure
// reverts to it.
//
// The engine is not safe for concurrent use. Execution is strictly
// serialized, one operation runs to completion before the next begins, so no
// locking exists anywhere in the call path.
package controller

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/accruelabs/poolmint/eventdb"
	"github.com/accruelabs/poolmint/log"
	"github.com/accruelabs/poolmint/members"
	"github.com/accruelabs/poolmint/minter"
	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/ray"
	"github.com/accruelabs/poolmint/registry"
	"github.com/accruelabs/poolmint/state"
)

var logger = log.WithContext("pkg", "controller")

var (
	// ErrUnauthorized returned when the caller lacks the capability.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnknownPool returned for operations naming a pool the registry
	// doesn't list, or a listed pool with no runtime binding.
	ErrUnknownPool = errors.New("unknown pool")
	// ErrZeroDestination returned for claims to the zero address.
	ErrZeroDestination = errors.New("zero destination")
	// ErrNoMinter returned when no minter chain is configured.
	ErrNoMinter = errors.New("no minter")
)

// Pool is the engine-facing surface of a reward pool.
type Pool interface {
	Address() poolmint.Address
	ComputeReward(holder poolmint.Address, blockNum uint32) (*uint256.Int, uint32, error)
	ClaimRewardFor(holder poolmint.Address, blockNum uint32) (*uint256.Int, uint32, error)
	RewardBase(holder poolmint.Address) (*uint256.Int, error)
	UpdateBaseline(linear *uint256.Int, blockNum uint32) (bool, error)
}

// Config carries the optional collaborators of a Controller.
type Config struct {
	Auth   Authorizer       // nil means AllowAll
	Events *eventdb.EventDB // nil disables event recording
}

// Controller is the aggregation engine.
type Controller struct {
	state    *state.State
	registry *registry.Registry
	members  *members.Tracker
	events   *eventdb.EventDB
	auth     Authorizer
	minter   minter.Minter
	pools    map[poolmint.Address]Pool

	// batch buffers event records while a claim is in flight so they commit
	// with the claim, or not at all
	batch *eventdb.Batch
}

// New creates a controller on the given state.
func New(st *state.State, cfg Config) *Controller {
	auth := cfg.Auth
	if auth == nil {
		auth = AllowAll
	}
	return &Controller{
		state:    st,
		registry: registry.New(poolmint.RegistryAddress, st),
		members:  members.New(poolmint.MembersAddress, st),
		events:   cfg.Events,
		auth:     auth,
		pools:    make(map[poolmint.Address]Pool),
	}
}

// State returns the underlying state aggregate.
func (c *Controller) State() *state.State {
	return c.state
}

// Registry returns the pool registry.
func (c *Controller) Registry() *registry.Registry {
	return c.registry
}

func (c *Controller) authorize(caller poolmint.Address, capability string) error {
	if !c.auth.Authorized(caller, capability) {
		metricOpErrors().AddWithLabel(1, map[string]string{"op": capability})
		return errors.Wrap(ErrUnauthorized, capability)
	}
	return nil
}

// AddPool registers the pool and binds its runtime implementation.
func (c *Controller) AddPool(caller poolmint.Address, pool Pool) (uint32, error) {
	if err := c.authorize(caller, CapAddPool); err != nil {
		return 0, err
	}
	checkpoint := c.state.NewCheckpoint()
	index, err := c.registry.Add(pool.Address())
	if err != nil {
		c.state.RevertTo(checkpoint)
		return 0, err
	}
	c.pools[pool.Address()] = pool
	metricPoolsActive().Add(1)
	logger.Info("pool added", "pool", pool.Address(), "slot", index)
	return index, nil
}

// RemovePool unregisters the pool. Its slot index enters the ignore mask and
// is never assigned again.
func (c *Controller) RemovePool(caller, pool poolmint.Address) (bool, error) {
	if err := c.authorize(caller, CapRemovePool); err != nil {
		return false, err
	}
	checkpoint := c.state.NewCheckpoint()
	removed, err := c.registry.Remove(pool)
	if err != nil {
		c.state.RevertTo(checkpoint)
		return false, err
	}
	if removed {
		delete(c.pools, pool)
		metricPoolsActive().Add(-1)
		logger.Info("pool removed", "pool", pool)
	}
	return removed, nil
}

// Bind attaches the runtime implementation of an already registered pool,
// typically after restart.
func (c *Controller) Bind(pool Pool) error {
	_, listed, err := c.registry.IndexOf(pool.Address())
	if err != nil {
		return err
	}
	if !listed {
		return ErrUnknownPool
	}
	c.pools[pool.Address()] = pool
	return nil
}

// SetMinter installs the minter chain all claims settle through. The chain
// is walked to its terminal first, so an overlong or cyclic chain is refused
// here rather than detected mid-claim.
func (c *Controller) SetMinter(caller poolmint.Address, m minter.Minter) error {
	if err := c.authorize(caller, CapSetMinter); err != nil {
		return err
	}
	if m == nil {
		return ErrNoMinter
	}
	if _, err := minter.Verify(m); err != nil {
		return err
	}
	c.minter = m
	return nil
}

// UpdateBaseline pushes a new baseline reward rate to every subscribed pool.
// Pools running custom rates drop off the broadcast list permanently.
func (c *Controller) UpdateBaseline(caller poolmint.Address, linear *uint256.Int, blockNum uint32) error {
	if err := c.authorize(caller, CapUpdateBaseline); err != nil {
		return err
	}
	checkpoint := c.state.NewCheckpoint()
	err := c.registry.BroadcastBaseline(func(index uint32, pool poolmint.Address) (bool, error) {
		binding := c.pools[pool]
		if binding == nil {
			return false, errors.Wrapf(ErrUnknownPool, "slot %d unbound", index)
		}
		return binding.UpdateBaseline(linear, blockNum)
	})
	if err != nil {
		c.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

// ReportAllocation implements accrual.Reporter. Pools call it on every
// settlement so membership masks track who has something to claim. Reports
// from pools the registry doesn't list are refused.
func (c *Controller) ReportAllocation(pool, holder poolmint.Address, amount *uint256.Int, since, blockNum uint32, mode poolmint.AllocationMode) error {
	index, listed, err := c.registry.IndexOf(pool)
	if err != nil {
		return err
	}
	if !listed {
		return ErrUnknownPool
	}

	switch mode {
	case poolmint.AllocationSetPull:
		if err := c.members.Set(holder, index); err != nil {
			return err
		}
	case poolmint.AllocationUnsetPull:
		if err := c.members.Clear(holder, index); err != nil {
			return err
		}
	case poolmint.AllocationPush:
		// pushed rewards settle immediately instead of waiting for a claim
		if !amount.IsZero() {
			if c.minter == nil {
				return ErrNoMinter
			}
			if _, err := minter.Verify(c.minter); err != nil {
				return err
			}
			if err := c.minter.Mint(holder, amount); err != nil {
				return err
			}
		}
	}

	if c.batch != nil {
		c.batch.AddAllocation(pool, holder, amount, since, mode)
		return nil
	}
	if c.events != nil {
		batch := c.events.Prepare(blockNum)
		batch.AddAllocation(pool, holder, amount, since, mode)
		return batch.Commit()
	}
	return nil
}

// ClaimablePools returns the mask of pools the holder can currently claim
// from: enrollment intersected with assigned, non-removed slots.
func (c *Controller) ClaimablePools(holder poolmint.Address) (poolmint.Mask, error) {
	member, err := c.members.MemberOf(holder)
	if err != nil {
		return poolmint.Mask{}, err
	}
	active, err := c.registry.ActiveMask()
	if err != nil {
		return poolmint.Mask{}, err
	}
	return member.And(active), nil
}

// ClaimableAmount sums the holder's claimable rewards across all claimable
// pools without mutating anything.
func (c *Controller) ClaimableAmount(holder poolmint.Address, blockNum uint32) (*uint256.Int, error) {
	mask, err := c.ClaimablePools(holder)
	if err != nil {
		return nil, err
	}
	total := new(uint256.Int)
	mask.ForEach(func(i int) bool {
		var pool poolmint.Address
		if pool, err = c.registry.PoolAt(uint32(i)); err != nil {
			return false
		}
		binding := c.pools[pool]
		if binding == nil {
			err = errors.Wrapf(ErrUnknownPool, "slot %d unbound", i)
			return false
		}
		var amount *uint256.Int
		if amount, _, err = binding.ComputeReward(holder, blockNum); err != nil {
			return false
		}
		total, err = ray.Add(total, amount)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// Claim settles the holder's rewards from the requested pools to the
// holder's own address and returns the minted total.
func (c *Controller) Claim(holder poolmint.Address, requested poolmint.Mask, blockNum uint32) (*uint256.Int, error) {
	return c.claim(holder, requested, holder, blockNum)
}

// ClaimAndTransferTo settles the holder's rewards from the requested pools
// to dest and returns the minted total.
func (c *Controller) ClaimAndTransferTo(holder poolmint.Address, requested poolmint.Mask, dest poolmint.Address, blockNum uint32) (*uint256.Int, error) {
	return c.claim(holder, requested, dest, blockNum)
}

// ClaimFor settles the holder's rewards from the requested pools on the
// holder's behalf. The proceeds always go to the holder, never the caller.
func (c *Controller) ClaimFor(caller, holder poolmint.Address, requested poolmint.Mask, blockNum uint32) (*uint256.Int, error) {
	if err := c.authorize(caller, CapClaimFor); err != nil {
		return nil, err
	}
	return c.claim(holder, requested, holder, blockNum)
}

// claim drives one aggregated settlement and returns the minted total. Pool
// bits are visited in ascending order; consecutive amounts accrued since the
// same block coalesce into one mint call, so a holder enrolled in many pools
// with a shared history costs O(batches), not O(pools), in mint calls.
func (c *Controller) claim(holder poolmint.Address, requested poolmint.Mask, dest poolmint.Address, blockNum uint32) (minted *uint256.Int, err error) {
	if dest.IsZero() {
		return nil, ErrZeroDestination
	}
	if c.minter == nil {
		return nil, ErrNoMinter
	}
	if _, err := minter.Verify(c.minter); err != nil {
		return nil, err
	}

	checkpoint := c.state.NewCheckpoint()
	var batch *eventdb.Batch
	if c.events != nil {
		batch = c.events.Prepare(blockNum)
	}
	c.batch = batch
	defer func() {
		c.batch = nil
		if err == nil && batch != nil {
			err = batch.Commit()
		}
		if err != nil {
			minted = nil
			c.state.RevertTo(checkpoint)
			metricOpErrors().AddWithLabel(1, map[string]string{"op": "claim"})
		}
	}()

	member, err := c.members.MemberOf(holder)
	if err != nil {
		return nil, err
	}
	count, err := c.registry.Count()
	if err != nil {
		return nil, err
	}
	ignore, err := c.registry.IgnoreMask()
	if err != nil {
		return nil, err
	}
	mask := requested.And(member).And(poolmint.MaskUpTo(int(count))).AndNot(ignore)

	total := new(uint256.Int)
	var batches uint32
	var pending *uint256.Int
	var pendingSince uint32
	flush := func() error {
		if pending == nil {
			return nil
		}
		if err := c.minter.Mint(dest, pending); err != nil {
			return err
		}
		batches++
		pending = nil
		return nil
	}

	mask.ForEach(func(i int) bool {
		var pool poolmint.Address
		if pool, err = c.registry.PoolAt(uint32(i)); err != nil {
			return false
		}
		binding := c.pools[pool]
		if binding == nil {
			err = errors.Wrapf(ErrUnknownPool, "slot %d unbound", i)
			return false
		}
		var amount *uint256.Int
		var since uint32
		if amount, since, err = binding.ClaimRewardFor(holder, blockNum); err != nil {
			return false
		}
		// the pull bit stays while the holder keeps a non-zero weight; a
		// claimed-through pool with nothing left to accrue drops off
		var base *uint256.Int
		if base, err = binding.RewardBase(holder); err != nil {
			return false
		}
		if base.IsZero() {
			if err = c.members.Clear(holder, uint32(i)); err != nil {
				return false
			}
		}
		if amount.IsZero() {
			return true
		}
		if total, err = ray.Add(total, amount); err != nil {
			return false
		}
		if pending != nil && since == pendingSince {
			pending, err = ray.Add(pending, amount)
			return err == nil
		}
		if err = flush(); err != nil {
			return false
		}
		pending = amount.Clone()
		pendingSince = since
		return true
	})
	if err != nil {
		return nil, err
	}
	if err = flush(); err != nil {
		return nil, err
	}

	if batch != nil {
		batch.AddClaim(holder, dest, total, batches)
	}
	metricClaimsTotal().Add(1)
	metricMintCalls().Add(int64(batches))
	logger.Debug("claim settled", "holder", holder, "dest", dest, "amount", total, "batches", batches)
	return total, nil
}

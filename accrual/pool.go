// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrual

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/state"
)

var (
	customKey        = poolmint.Blake2b([]byte("custom-rate"))
	providerCountKey = poolmint.Blake2b([]byte("provider-count"))
)

func providerKey(provider poolmint.Address) poolmint.Bytes32 {
	return poolmint.BytesToBytes32(append([]byte("rp"), provider.Bytes()...))
}

// ErrNotProvider returned when a caller outside the provider set tries to
// adjust reward weights.
var ErrNotProvider = errors.New("not a reward provider")

// Reporter receives allocation reports emitted by pools. The aggregate engine
// implements it to keep membership masks and the event log in step with pool
// state.
type Reporter interface {
	ReportAllocation(pool, holder poolmint.Address, amount *uint256.Int, since, blockNum uint32, mode poolmint.AllocationMode) error
}

// RewardPool is the standard accumulator-backed pool. It owns one Accumulator
// and reports every weight change upward so holders' membership masks stay
// accurate.
type RewardPool struct {
	addr     poolmint.Address
	acc      *Accumulator
	state    *state.State
	reporter Reporter
}

// NewRewardPool creates a pool bound to its storage address.
func NewRewardPool(addr poolmint.Address, st *state.State, reporter Reporter) *RewardPool {
	return &RewardPool{addr, NewAccumulator(addr, st), st, reporter}
}

// Address returns the pool's storage address.
func (p *RewardPool) Address() poolmint.Address {
	return p.addr
}

// Accumulator exposes the pool's underlying accumulator for read paths.
func (p *RewardPool) Accumulator() *Accumulator {
	return p.acc
}

// ComputeReward returns the holder's claimable amount at blockNum.
func (p *RewardPool) ComputeReward(holder poolmint.Address, blockNum uint32) (*uint256.Int, uint32, error) {
	return p.acc.Compute(holder, blockNum)
}

// RewardBase returns the holder's current reward weight.
func (p *RewardPool) RewardBase(holder poolmint.Address) (*uint256.Int, error) {
	return p.acc.RewardBase(holder)
}

// SetRewardBase replaces the holder's reward weight on behalf of provider,
// settling any accrual under the old weight first. An empty provider set
// leaves the pool open; once providers are registered only they may call.
// The whole operation is all-or-nothing including the upward report.
func (p *RewardPool) SetRewardBase(provider, holder poolmint.Address, base *uint256.Int, blockNum uint32) error {
	open, err := p.hasNoProviders()
	if err != nil {
		return err
	}
	if !open {
		listed, err := p.IsRewardProvider(provider)
		if err != nil {
			return err
		}
		if !listed {
			return ErrNotProvider
		}
	}

	checkpoint := p.state.NewCheckpoint()
	fresh, since, err := p.acc.SetRewardBase(holder, base, blockNum)
	if err != nil {
		p.state.RevertTo(checkpoint)
		return err
	}
	total, _, err := p.acc.Compute(holder, blockNum)
	if err != nil {
		p.state.RevertTo(checkpoint)
		return err
	}
	// the pull bit stays on while anything is claimable or still accruing
	mode := poolmint.AllocationSetPull
	if total.IsZero() && base.IsZero() {
		mode = poolmint.AllocationUnsetPull
	}
	if err := p.reporter.ReportAllocation(p.addr, holder, fresh, since, blockNum, mode); err != nil {
		p.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

// ClaimRewardFor clears and returns the holder's claimable amount. No upward
// report happens here: the aggregate engine drives claims itself and adjusts
// membership after the pool returns.
func (p *RewardPool) ClaimRewardFor(holder poolmint.Address, blockNum uint32) (*uint256.Int, uint32, error) {
	return p.acc.ClaimFor(holder, blockNum)
}

// UpdateBaseline applies the system-wide baseline rate. A pool running a
// custom rate declines, permanently opting out of baseline pushes.
func (p *RewardPool) UpdateBaseline(linear *uint256.Int, blockNum uint32) (bool, error) {
	custom, err := p.isCustom()
	if err != nil {
		return false, err
	}
	if custom {
		return false, nil
	}
	if err := p.acc.SetLinearRate(linear, blockNum); err != nil {
		return false, err
	}
	return true, nil
}

// SetCustomRate pins the pool to its own rate, detaching it from baseline
// broadcasts from now on.
func (p *RewardPool) SetCustomRate(linear *uint256.Int, blockNum uint32) error {
	if err := p.acc.SetLinearRate(linear, blockNum); err != nil {
		return err
	}
	return p.state.EncodeStorage(p.addr, customKey, func() ([]byte, error) {
		return []byte{1}, nil
	})
}

// AddRewardProvider registers a caller allowed to adjust reward weights.
func (p *RewardPool) AddRewardProvider(provider poolmint.Address) error {
	return p.setProvider(provider, true)
}

// RemoveRewardProvider unregisters a provider.
func (p *RewardPool) RemoveRewardProvider(provider poolmint.Address) error {
	return p.setProvider(provider, false)
}

// IsRewardProvider tells whether the provider is registered.
func (p *RewardPool) IsRewardProvider(provider poolmint.Address) (bool, error) {
	raw, err := p.state.GetRawStorage(p.addr, providerKey(provider))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (p *RewardPool) setProvider(provider poolmint.Address, listed bool) error {
	count, err := p.providerCount()
	if err != nil {
		return err
	}
	was, err := p.IsRewardProvider(provider)
	if err != nil {
		return err
	}
	if was == listed {
		return nil
	}
	if listed {
		count++
	} else {
		count--
	}
	if err := p.state.EncodeStorage(p.addr, providerKey(provider), func() ([]byte, error) {
		if !listed {
			return nil, nil
		}
		return []byte{1}, nil
	}); err != nil {
		return err
	}
	return p.state.EncodeStorage(p.addr, providerCountKey, func() ([]byte, error) {
		return encodeCount(count), nil
	})
}

func (p *RewardPool) providerCount() (uint32, error) {
	raw, err := p.state.GetRawStorage(p.addr, providerCountKey)
	if err != nil {
		return 0, err
	}
	return decodeCount(raw), nil
}

func (p *RewardPool) hasNoProviders() (bool, error) {
	count, err := p.providerCount()
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (p *RewardPool) isCustom() (bool, error) {
	raw, err := p.state.GetRawStorage(p.addr, customKey)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func encodeCount(n uint32) []byte {
	if n == 0 {
		return nil
	}
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func decodeCount(raw []byte) uint32 {
	var n uint32
	for _, b := range raw {
		n = n<<8 | uint32(b)
	}
	return n
}

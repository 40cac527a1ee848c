// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package minter

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/ray"
)

// feeDenominator is the basis-point scale of splitter fees.
const feeDenominator = 10000

// ErrBadFee returned for fees above 100%.
var ErrBadFee = errors.New("fee exceeds denominator")

// FeeSplitter skims a basis-point fee off every mint to a collector address
// and forwards the remainder downstream.
type FeeSplitter struct {
	next      Minter
	collector poolmint.Address
	feeBps    uint16
}

// NewFeeSplitter creates a splitter forwarding to next.
func NewFeeSplitter(next Minter, collector poolmint.Address, feeBps uint16) (*FeeSplitter, error) {
	if feeBps > feeDenominator {
		return nil, ErrBadFee
	}
	return &FeeSplitter{next, collector, feeBps}, nil
}

// Forwardee returns the downstream minter.
func (s *FeeSplitter) Forwardee() Minter {
	return s.next
}

// Mint splits amount into fee and remainder and forwards both. The fee
// rounds toward zero, so dust stays with the claimant.
func (s *FeeSplitter) Mint(dest poolmint.Address, amount *uint256.Int) error {
	fee, err := ray.MulUint(amount, uint64(s.feeBps))
	if err != nil {
		return err
	}
	fee.Div(fee, uint256.NewInt(feeDenominator))

	if !fee.IsZero() {
		if err := s.next.Mint(s.collector, fee); err != nil {
			return err
		}
	}
	remainder := new(uint256.Int).Sub(amount, fee)
	if remainder.IsZero() {
		return nil
	}
	return s.next.Mint(dest, remainder)
}

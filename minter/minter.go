// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package minter defines the mint delegation chain: the engine hands each
// aggregated claim to its configured minter, which either credits the token
// ledger directly or forwards downstream, e.g. after skimming a fee. Chains
// are verified up front with a hop bound so a cyclic configuration fails fast
// instead of looping.
package minter

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/accruelabs/poolmint/poolmint"
)

// MaxHops bounds the length of a minter chain.
const MaxHops = 32

var (
	// ErrChainOverrun returned when a chain exceeds MaxHops. Cycles always
	// trip this.
	ErrChainOverrun = errors.New("minter chain overrun")
	// ErrBrokenChain returned when a forwarding minter has no downstream.
	ErrBrokenChain = errors.New("minter chain broken")
)

// Minter mints reward tokens to a destination.
type Minter interface {
	Mint(dest poolmint.Address, amount *uint256.Int) error
}

// Forwarder is implemented by minters that delegate downstream.
type Forwarder interface {
	Forwardee() Minter
}

// Verify walks the forwarding chain from head to its terminal minter. It
// returns the terminal, or ErrChainOverrun once MaxHops forwards have been
// followed without reaching one.
func Verify(head Minter) (Minter, error) {
	m := head
	for hops := 0; hops <= MaxHops; hops++ {
		f, ok := m.(Forwarder)
		if !ok {
			return m, nil
		}
		next := f.Forwardee()
		if next == nil {
			return nil, ErrBrokenChain
		}
		m = next
	}
	return nil, ErrChainOverrun
}

// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the reward token ledger, the terminal sink of
// every minter chain.
package token

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/ray"
	"github.com/accruelabs/poolmint/state"
)

var supplyKey = poolmint.Blake2b([]byte("total-supply"))

func balanceKey(addr poolmint.Address) poolmint.Bytes32 {
	return poolmint.BytesToBytes32(append([]byte("b"), addr.Bytes()...))
}

// Ledger keeps token balances and total supply.
type Ledger struct {
	addr  poolmint.Address
	state *state.State
}

// New creates a ledger bound to the given storage address.
func New(addr poolmint.Address, st *state.State) *Ledger {
	return &Ledger{addr, st}
}

func (l *Ledger) getAmount(key poolmint.Bytes32) (*uint256.Int, error) {
	amount := new(uint256.Int)
	err := l.state.DecodeStorage(l.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, amount)
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

func (l *Ledger) setAmount(key poolmint.Bytes32, amount *uint256.Int) error {
	return l.state.EncodeStorage(l.addr, key, func() ([]byte, error) {
		if amount.IsZero() {
			return nil, nil
		}
		return rlp.EncodeToBytes(amount)
	})
}

// BalanceOf returns the token balance of addr.
func (l *Ledger) BalanceOf(addr poolmint.Address) (*uint256.Int, error) {
	return l.getAmount(balanceKey(addr))
}

// TotalSupply returns the total minted supply.
func (l *Ledger) TotalSupply() (*uint256.Int, error) {
	return l.getAmount(supplyKey)
}

// Mint credits amount to dest and grows the total supply. Balance or supply
// overflow rejects the mint with nothing changed.
func (l *Ledger) Mint(dest poolmint.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	supply, err := l.TotalSupply()
	if err != nil {
		return err
	}
	newSupply, err := ray.Add(supply, amount)
	if err != nil {
		return err
	}
	balance, err := l.BalanceOf(dest)
	if err != nil {
		return err
	}
	newBalance, err := ray.Add(balance, amount)
	if err != nil {
		return err
	}
	if err := l.setAmount(supplyKey, newSupply); err != nil {
		return err
	}
	return l.setAmount(balanceKey(dest), newBalance)
}

// Transfer moves amount from one balance to another.
func (l *Ledger) Transfer(from, to poolmint.Address, amount *uint256.Int) (bool, error) {
	if amount.IsZero() {
		return true, nil
	}
	fromBalance, err := l.BalanceOf(from)
	if err != nil {
		return false, err
	}
	if fromBalance.Lt(amount) {
		return false, nil
	}
	if from == to {
		return true, nil
	}
	toBalance, err := l.BalanceOf(to)
	if err != nil {
		return false, err
	}
	newTo, err := ray.Add(toBalance, amount)
	if err != nil {
		return false, err
	}
	if err := l.setAmount(balanceKey(from), new(uint256.Int).Sub(fromBalance, amount)); err != nil {
		return false, err
	}
	return true, l.setAmount(balanceKey(to), newTo)
}

// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ray implements deterministic fixed-point arithmetic on a 1e27 scale.
// Reward indexes and per-block rates are value-bearing, so every multiply is
// overflow-checked and rejected rather than wrapped, and divisions round
// toward zero.
package ray

import (
	"errors"

	"github.com/holiman/uint256"
)

// Scale is the fixed-point unit, 1e27.
var Scale = uint256.MustFromDecimal("1000000000000000000000000000")

var (
	// ErrOverflow returned when a checked operation exceeds 256 bits.
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrDivByZero returned on zero divisor.
	ErrDivByZero = errors.New("division by zero")
)

// Mul returns a*b/Scale, rounding toward zero.
// The intermediate product is overflow-checked.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	p, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return p.Div(p, Scale), nil
}

// Div returns a*Scale/b, rounding toward zero.
// The intermediate product is overflow-checked.
func Div(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, ErrDivByZero
	}
	p, overflow := new(uint256.Int).MulOverflow(a, Scale)
	if overflow {
		return nil, ErrOverflow
	}
	return p.Div(p, b), nil
}

// MulUint returns a*n with overflow checked. It serves rate-times-duration
// products where n is a block count.
func MulUint(a *uint256.Int, n uint64) (*uint256.Int, error) {
	p, overflow := new(uint256.Int).MulOverflow(a, uint256.NewInt(n))
	if overflow {
		return nil, ErrOverflow
	}
	return p, nil
}

// Add returns a+b with overflow checked.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	s, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return s, nil
}

// FromUint converts a plain integer into its fixed-point form, n*Scale.
func FromUint(n uint64) (*uint256.Int, error) {
	return MulUint(Scale, n)
}

// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package controller

import "github.com/accruelabs/poolmint/poolmint"

// Capabilities gating engine administration.
const (
	CapAddPool        = "add-pool"
	CapRemovePool     = "remove-pool"
	CapSetMinter      = "set-minter"
	CapUpdateBaseline = "update-baseline"
	CapClaimFor       = "claim-for"
)

// Authorizer decides whether a caller may exercise a capability.
type Authorizer interface {
	Authorized(caller poolmint.Address, capability string) bool
}

// AuthorizerFunc adapts a plain function to the Authorizer interface.
type AuthorizerFunc func(caller poolmint.Address, capability string) bool

func (f AuthorizerFunc) Authorized(caller poolmint.Address, capability string) bool {
	return f(caller, capability)
}

// AllowAll authorizes every caller. Meant for tests and single-operator
// deployments where access control lives outside the engine.
var AllowAll = AuthorizerFunc(func(poolmint.Address, string) bool { return true })

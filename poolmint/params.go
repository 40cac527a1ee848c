// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poolmint

// Constants of the reward engine.
const (
	// BlockInterval time interval between two consecutive blocks, in seconds.
	BlockInterval uint64 = 10

	// MaxPools max count of pool slots a registry can assign.
	MaxPools = MaskBits
)

// Well-known storage addresses of the engine's own components.
var (
	RegistryAddress = BytesToAddress([]byte("poolmint-registry"))
	MembersAddress  = BytesToAddress([]byte("poolmint-members"))
	TokenAddress    = BytesToAddress([]byte("poolmint-token"))
)

// AllocationMode tells how a pool delivered an allocation it reports.
type AllocationMode uint8

const (
	// AllocationPush reward already delivered by the pool itself, no pull bookkeeping.
	AllocationPush AllocationMode = iota
	// AllocationSetPull the holder now has a pull-claimable balance on the pool.
	AllocationSetPull
	// AllocationUnsetPull the holder's pull-claimable balance on the pool is cleared.
	AllocationUnsetPull
)

func (m AllocationMode) String() string {
	switch m {
	case AllocationPush:
		return "push"
	case AllocationSetPull:
		return "set-pull"
	case AllocationUnsetPull:
		return "unset-pull"
	default:
		return "unknown"
	}
}

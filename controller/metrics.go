// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package controller

import "github.com/accruelabs/poolmint/metrics"

var (
	metricClaimsTotal = metrics.LazyLoadCounter("claims_total")
	metricMintCalls   = metrics.LazyLoadCounter("mint_calls_total")
	metricPoolsActive = metrics.LazyLoadGauge("pools_active")
	metricOpErrors    = metrics.LazyLoadCounterVec("operation_errors_total", []string{"op"})
)

// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

const allocationTableSchema = `
create table if not exists allocation (
	blockNumber integer,
	allocIndex integer,
	pool blob,
	holder blob,
	amount blob,
	sinceBlock integer,
	mode integer
);

CREATE INDEX if not exists allocationPool on allocation(pool);
CREATE INDEX if not exists allocationHolder on allocation(holder);
`

const claimTableSchema = `
create table if not exists claim (
	blockNumber integer,
	claimIndex integer,
	holder blob,
	dest blob,
	amount blob,
	batches integer
);

CREATE INDEX if not exists claimHolder on claim(holder);
`

// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists the engine's allocation and claim history in
// sqlite for later filtering by holders, pools and block ranges.
package eventdb

import (
	"context"
	"database/sql"

	"github.com/holiman/uint256"
	_ "github.com/mattn/go-sqlite3"

	"github.com/accruelabs/poolmint/poolmint"
)

type EventDB struct {
	path string
	db   *sql.DB
}

// New create or open event db at given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(allocationTableSchema + claimTableSchema); err != nil {
		return nil, err
	}
	return &EventDB{path, db}, nil
}

// NewMem create an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close close the event db.
func (db *EventDB) Close() {
	db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Prepare starts a batch of records produced at the given block. Nothing is
// visible until Commit writes the whole batch in one transaction.
func (db *EventDB) Prepare(blockNumber uint32) *Batch {
	return &Batch{
		db:          db.db,
		blockNumber: blockNumber,
	}
}

func (db *EventDB) FilterAllocations(ctx context.Context, filter *AllocationFilter) ([]*Allocation, error) {
	if filter == nil {
		return db.queryAllocations(ctx, "SELECT * FROM allocation")
	}
	var args []interface{}
	stmt := "SELECT * FROM allocation WHERE 1"
	if filter.Pool != nil {
		args = append(args, filter.Pool.Bytes())
		stmt += " AND pool = ? "
	}
	if filter.Holder != nil {
		args = append(args, filter.Holder.Bytes())
		stmt += " AND holder = ? "
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND blockNumber >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND blockNumber <= ? "
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY blockNumber DESC,allocIndex DESC "
	} else {
		stmt += " ORDER BY blockNumber ASC,allocIndex ASC "
	}
	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryAllocations(ctx, stmt, args...)
}

func (db *EventDB) FilterClaims(ctx context.Context, filter *ClaimFilter) ([]*Claim, error) {
	if filter == nil {
		return db.queryClaims(ctx, "SELECT * FROM claim")
	}
	var args []interface{}
	stmt := "SELECT * FROM claim WHERE 1"
	if filter.Holder != nil {
		args = append(args, filter.Holder.Bytes())
		stmt += " AND holder = ? "
	}
	if filter.Dest != nil {
		args = append(args, filter.Dest.Bytes())
		stmt += " AND dest = ? "
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND blockNumber >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND blockNumber <= ? "
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY blockNumber DESC,claimIndex DESC "
	} else {
		stmt += " ORDER BY blockNumber ASC,claimIndex ASC "
	}
	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryClaims(ctx, stmt, args...)
}

func (db *EventDB) queryAllocations(ctx context.Context, stmt string, args ...interface{}) ([]*Allocation, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []*Allocation
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			blockNumber uint32
			index       uint32
			pool        []byte
			holder      []byte
			amount      []byte
			sinceBlock  uint32
			mode        uint8
		)
		if err := rows.Scan(
			&blockNumber,
			&index,
			&pool,
			&holder,
			&amount,
			&sinceBlock,
			&mode,
		); err != nil {
			return nil, err
		}
		allocations = append(allocations, &Allocation{
			BlockNumber: blockNumber,
			Index:       index,
			Pool:        poolmint.BytesToAddress(pool),
			Holder:      poolmint.BytesToAddress(holder),
			Amount:      new(uint256.Int).SetBytes(amount),
			SinceBlock:  sinceBlock,
			Mode:        poolmint.AllocationMode(mode),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return allocations, nil
}

func (db *EventDB) queryClaims(ctx context.Context, stmt string, args ...interface{}) ([]*Claim, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*Claim
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			blockNumber uint32
			index       uint32
			holder      []byte
			dest        []byte
			amount      []byte
			batches     uint32
		)
		if err := rows.Scan(
			&blockNumber,
			&index,
			&holder,
			&dest,
			&amount,
			&batches,
		); err != nil {
			return nil, err
		}
		claims = append(claims, &Claim{
			BlockNumber: blockNumber,
			Index:       index,
			Holder:      poolmint.BytesToAddress(holder),
			Dest:        poolmint.BytesToAddress(dest),
			Amount:      new(uint256.Int).SetBytes(amount),
			Batches:     batches,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}

// Batch collects records of one block and commits them atomically.
type Batch struct {
	db          *sql.DB
	blockNumber uint32
	allocations []*Allocation
	claims      []*Claim
}

// AddAllocation appends an allocation record to the batch.
func (b *Batch) AddAllocation(pool, holder poolmint.Address, amount *uint256.Int, sinceBlock uint32, mode poolmint.AllocationMode) *Batch {
	b.allocations = append(b.allocations, &Allocation{
		BlockNumber: b.blockNumber,
		Index:       uint32(len(b.allocations)),
		Pool:        pool,
		Holder:      holder,
		Amount:      amount.Clone(),
		SinceBlock:  sinceBlock,
		Mode:        mode,
	})
	return b
}

// AddClaim appends a claim record to the batch.
func (b *Batch) AddClaim(holder, dest poolmint.Address, amount *uint256.Int, batches uint32) *Batch {
	b.claims = append(b.claims, &Claim{
		BlockNumber: b.blockNumber,
		Index:       uint32(len(b.claims)),
		Holder:      holder,
		Dest:        dest,
		Amount:      amount.Clone(),
		Batches:     batches,
	})
	return b
}

// Len returns the number of buffered records.
func (b *Batch) Len() int {
	return len(b.allocations) + len(b.claims)
}

func (b *Batch) execInTx(proc func(*sql.Tx) error) (err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Commit writes all buffered records in one transaction.
func (b *Batch) Commit() error {
	return b.execInTx(func(tx *sql.Tx) error {
		for _, a := range b.allocations {
			if _, err := tx.Exec("INSERT INTO allocation(blockNumber, allocIndex, pool, holder, amount, sinceBlock, mode) VALUES ( ?, ?, ?, ?, ?, ?, ?);",
				a.BlockNumber,
				a.Index,
				a.Pool.Bytes(),
				a.Holder.Bytes(),
				a.Amount.Bytes(),
				a.SinceBlock,
				uint8(a.Mode),
			); err != nil {
				return err
			}
		}
		for _, c := range b.claims {
			if _, err := tx.Exec("INSERT INTO claim(blockNumber, claimIndex, holder, dest, amount, batches) VALUES ( ?, ?, ?, ?, ?, ?);",
				c.BlockNumber,
				c.Index,
				c.Holder.Bytes(),
				c.Dest.Bytes(),
				c.Amount.Bytes(),
				c.Batches,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

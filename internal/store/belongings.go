// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store keeps creature belongings in PostgreSQL.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/holomush/itemcore/internal/persist"
	"github.com/holomush/itemcore/internal/world"
)

// Belongings error codes.
const (
	CodeConnect      = "STORE_CONNECT"
	CodeOwnerUnknown = "STORE_OWNER_UNKNOWN"
	CodeSave         = "STORE_SAVE"
	CodeLoad         = "STORE_LOAD"
	CodeCorrupt      = "STORE_CORRUPT"
)

// ErrOwnerUnknown is returned when belongings are saved for an owner that
// has no row in the owners table.
var ErrOwnerUnknown = errors.New("belongings owner is unknown")

// poolIface is the subset of *pgxpool.Pool the store needs. pgxmock pools
// satisfy it too.
type poolIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BelongingsStore saves and loads equipment trees, one row per occupied
// slot. Trees are stored in the persist byte format.
type BelongingsStore struct {
	pool poolIface
}

// NewBelongingsStore creates a store on an existing pool.
func NewBelongingsStore(pool poolIface) *BelongingsStore {
	return &BelongingsStore{pool: pool}
}

// Open connects to dsn. The returned close function releases the pool.
func Open(ctx context.Context, dsn string) (*BelongingsStore, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, oops.Code(CodeConnect).Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, oops.Code(CodeConnect).With("operation", "ping").Wrap(err)
	}
	return NewBelongingsStore(pool), pool.Close, nil
}

// EnsureOwner creates the owner row, or renames an existing owner.
func (s *BelongingsStore) EnsureOwner(ctx context.Context, ownerID, name string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO owners (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, ownerID, name)
	if err != nil {
		return oops.Code(CodeSave).With("operation", "ensure owner").With("owner_id", ownerID).Wrap(err)
	}
	return nil
}

// SaveBelongings replaces everything stored for ownerID with roots in one
// transaction.
func (s *BelongingsStore) SaveBelongings(ctx context.Context, ownerID string, roots map[world.EquipSlot]persist.Node) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return oops.Code(CodeSave).With("owner_id", ownerID).With("operation", "begin").Wrap(err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM belongings WHERE owner_id = $1`, ownerID); err != nil {
		_ = tx.Rollback(ctx) //nolint:errcheck // the delete error takes precedence
		return oops.Code(CodeSave).With("owner_id", ownerID).With("operation", "clear").Wrap(err)
	}
	for _, slot := range world.Slots() {
		root, ok := roots[slot]
		if !ok {
			continue
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO belongings (owner_id, slot, root_serial, item_count, tree)
			VALUES ($1, $2, $3, $4, $5)
		`, ownerID, int(slot), root.Serial.String(), root.Len(), persist.Encode(root))
		if err != nil {
			_ = tx.Rollback(ctx) //nolint:errcheck // the insert error takes precedence
			return insertError(err, ownerID, slot)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code(CodeSave).With("owner_id", ownerID).With("operation", "commit").Wrap(err)
	}
	return nil
}

func insertError(err error, ownerID string, slot world.EquipSlot) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return oops.Code(CodeOwnerUnknown).With("owner_id", ownerID).Wrap(ErrOwnerUnknown)
	}
	return oops.Code(CodeSave).
		With("owner_id", ownerID).
		With("slot", slot.String()).
		With("operation", "insert").
		Wrap(err)
}

// LoadBelongings returns the stored trees of ownerID by slot. An owner with
// nothing stored gets an empty map.
func (s *BelongingsStore) LoadBelongings(ctx context.Context, ownerID string) (map[world.EquipSlot]persist.Node, error) {
	rows, err := s.pool.Query(ctx, `SELECT slot, tree FROM belongings WHERE owner_id = $1 ORDER BY slot`, ownerID)
	if err != nil {
		return nil, oops.Code(CodeLoad).With("owner_id", ownerID).Wrap(err)
	}
	defer rows.Close()

	roots := make(map[world.EquipSlot]persist.Node)
	for rows.Next() {
		var (
			slot int
			tree []byte
		)
		if err := rows.Scan(&slot, &tree); err != nil {
			return nil, oops.Code(CodeLoad).With("owner_id", ownerID).With("operation", "scan").Wrap(err)
		}
		key := world.EquipSlot(slot)
		if !key.Valid() {
			return nil, oops.Code(CodeCorrupt).With("owner_id", ownerID).With("slot", slot).Errorf("stored slot %d is invalid", slot)
		}
		node, err := persist.Decode(tree)
		if err != nil {
			return nil, oops.Code(CodeCorrupt).With("owner_id", ownerID).With("slot", key.String()).Wrap(err)
		}
		roots[key] = node
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code(CodeLoad).With("owner_id", ownerID).With("operation", "iterate").Wrap(err)
	}
	return roots, nil
}

// DeleteBelongings removes everything stored for ownerID.
func (s *BelongingsStore) DeleteBelongings(ctx context.Context, ownerID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM belongings WHERE owner_id = $1`, ownerID); err != nil {
		return oops.Code(CodeSave).With("owner_id", ownerID).With("operation", "delete").Wrap(err)
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/hpungsan/sheetload/internal/errors"
)

// Querier is the part of *sql.DB and *sql.Tx the gateways need, so every
// operation can run either standalone or inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Gateway is the per-entity persistence contract.
//
// InsertOne returns rows affected, or the store-assigned id for entities
// whose key is generated by the store. A key collision yields DUPLICATE;
// RetrieveOne yields NOT_FOUND for absent keys. Any other store failure is
// CONNECTIVITY.
type Gateway[T any, K comparable] interface {
	InsertOne(ctx context.Context, q Querier, v T) (int64, error)
	RetrieveOne(ctx context.Context, q Querier, id K) (T, error)
	RetrieveAll(ctx context.Context, q Querier) ([]T, error)
}

// ChildGateway is a Gateway for entities owned by a parent row.
type ChildGateway[T any, K comparable] interface {
	Gateway[T, K]
	RetrieveByParent(ctx context.Context, q Querier, parent uuid.UUID) ([]T, error)
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE or PRIMARY KEY violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for both
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyError checks if the error is a SQLite FOREIGN KEY violation.
func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// insertError maps a driver error from an INSERT to a LoadError.
func insertError(err error, entity, id string) error {
	switch {
	case isUniqueConstraintError(err):
		return errors.NewDuplicate(entity, id)
	case isForeignKeyError(err):
		return errors.NewInternal(err).WithDetail("entity", entity).WithDetail("id", id)
	default:
		return errors.NewConnectivity(err)
	}
}

// collect drains rows with scan and maps failures to CONNECTIVITY.
func collect[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, errors.NewConnectivity(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return items, nil
}

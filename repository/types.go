/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"errors"

	"github.com/tomoncle/easycrud/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

var (
	// ErrNotFound is returned when a keyed lookup, update, patch, or delete
	// addresses a row that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownColumn is returned when a filter, key, or patch change names
	// a column the entity does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrMissingKey is returned when a keyed operation does not supply a
	// value for every primary key column.
	ErrMissingKey = errors.New("missing primary key column")
)

// CrudRepository defines the CRUD operations for a generic entity type.
// Keys and filters are column-name maps; composite primary keys supply one
// entry per key column.
type CrudRepository[T any] interface {
	// Add inserts an entity and returns the stored row, refreshed so that
	// database-generated values (auto increment ids, defaults) are present.
	Add(ctx context.Context, entity *T) (*T, error)

	// Get returns the entity identified by the primary key values in keys,
	// or ErrNotFound.
	Get(ctx context.Context, keys types.Filters) (*T, error)

	// Find returns all entities matching the equality filters. Nil filter
	// values are skipped; empty filters return every row.
	Find(ctx context.Context, filters types.Filters) ([]*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// Query executes a raw WHERE fragment and maps the results to entities.
	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	// Update replaces all non-key columns of the row identified by the
	// entity's primary key, returning the refreshed row or ErrNotFound.
	Update(ctx context.Context, entity *T) (*T, error)

	// Patch updates only the non-key columns listed in changes on the row
	// identified by keys, returning the refreshed row or ErrNotFound.
	// Key columns present in changes are ignored.
	Patch(ctx context.Context, keys types.Filters, changes map[string]any) (*T, error)

	// Delete removes the row identified by keys, or returns ErrNotFound.
	Delete(ctx context.Context, keys types.Filters) error

	// Upsert inserts entities, updating the named fields when a row with the
	// same duplicate keys already exists. duplicateKeys defaults to the
	// entity's primary key columns.
	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error
}

// TransactionRepository defines CRUD operations executed within a caller
// supplied transaction instead of an implicitly opened one.
type TransactionRepository[T any] interface {
	AddTx(ctx context.Context, tx bun.IDB, entity *T) (*T, error)
	UpdateTx(ctx context.Context, tx bun.IDB, entity *T) (*T, error)
	PatchTx(ctx context.Context, tx bun.IDB, keys types.Filters, changes map[string]any) (*T, error)
	DeleteTx(ctx context.Context, tx bun.IDB, keys types.Filters) error
	UpsertTx(ctx context.Context, tx bun.IDB, fields []string, duplicateKeys []string, entity ...*T) error
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines CRUD, pagination, and transactional operations, exposes
// the entity's table metadata, and provides Bun query builders for advanced
// use cases.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	TransactionRepository[T]
	Table() *schema.Table
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}

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

// Package easycrud wires entity models to REST CRUD endpoints with almost no
// application code: register a model, initialize the database, and call
// RegisterRoutes to expose search, fetch, create, update, patch, and delete
// handlers derived from the model's column and primary key metadata.
package easycrud

import (
	"context"
	"net/http"
	"sync"

	"github.com/tomoncle/easycrud/database"
	"github.com/tomoncle/easycrud/repository"
	"github.com/tomoncle/easycrud/rest"
	"github.com/tomoncle/easycrud/types"

	"github.com/uptrace/bun"
)

// Service is the high level facade over the generic repository, backed by
// the global database connection.
type Service[T any] interface {
	// Save inserts an entity and returns the stored row with database
	// generated values filled in.
	Save(ctx context.Context, model *T) (*T, error)

	// Get returns a single entity by its primary key values.
	Get(ctx context.Context, keys types.Filters) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// Find returns entities matching the column equality filters.
	Find(ctx context.Context, filters types.Filters) ([]*T, error)

	// Query executes a raw query and maps the results to entities.
	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Update replaces an existing entity and returns the stored row.
	Update(ctx context.Context, model *T) (*T, error)

	// Patch updates only the named non-key columns of one row.
	Patch(ctx context.Context, keys types.Filters, changes map[string]any) (*T, error)

	// Delete removes an entity by its primary key values.
	Delete(ctx context.Context, keys types.Filters) error

	// SaveOrUpdate upserts entities based on fields and duplicate keys.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error

	// SaveWithTx inserts an entity within an existing transaction.
	SaveWithTx(ctx context.Context, tx bun.IDB, model *T) (*T, error)

	// UpdateWithTx updates an entity within a transaction.
	UpdateWithTx(ctx context.Context, tx bun.IDB, model *T) (*T, error)

	// PatchWithTx patches an entity within a transaction.
	PatchWithTx(ctx context.Context, tx bun.IDB, keys types.Filters, changes map[string]any) (*T, error)

	// DeleteWithTx removes an entity within a transaction.
	DeleteWithTx(ctx context.Context, tx bun.IDB, keys types.Filters) error

	// SaveOrUpdateWithTx upserts entities within a transaction.
	SaveOrUpdateWithTx(ctx context.Context, tx bun.IDB, fields []string, duplicateKeys []string, model ...*T) error

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery

	// InsertBuilder returns a Bun insert query builder for the entity.
	InsertBuilder() *bun.InsertQuery

	// UpdateBuilder returns a Bun update query builder for the entity.
	UpdateBuilder() *bun.UpdateQuery

	// DeleteBuilder returns a Bun delete query builder for the entity.
	DeleteBuilder() *bun.DeleteQuery
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a default Service implementation using the generic
// repository backed by the global database connection.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

// RegisterRoutes mounts the full CRUD endpoint set for T under base on the
// given mux, using a repository backed by the global database connection.
// The database must be initialized first.
func RegisterRoutes[T any](mux *http.ServeMux, base string) error {
	return rest.Mount(mux, base, repository.NewRepository[T](database.GetDB()))
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() { s.repo = repository.NewRepository[T](database.GetDB()) })
	return s.repo
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model *T) (*T, error) {
	return s.baseRepo().Add(ctx, model)
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, keys types.Filters) (*T, error) {
	return s.baseRepo().Get(ctx, keys)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.baseRepo().All(ctx)
}

func (s *baseServiceImpl[T]) Find(ctx context.Context, filters types.Filters) ([]*T, error) {
	return s.baseRepo().Find(ctx, filters)
}

func (s *baseServiceImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	return s.baseRepo().Query(ctx, query, args...)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.baseRepo().Page(ctx, page)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T) (*T, error) {
	return s.baseRepo().Update(ctx, model)
}

func (s *baseServiceImpl[T]) Patch(ctx context.Context, keys types.Filters, changes map[string]any) (*T, error) {
	return s.baseRepo().Patch(ctx, keys, changes)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, keys types.Filters) error {
	return s.baseRepo().Delete(ctx, keys)
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error {
	return s.baseRepo().Upsert(ctx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) SaveWithTx(ctx context.Context, tx bun.IDB, model *T) (*T, error) {
	return s.baseRepo().AddTx(ctx, tx, model)
}

func (s *baseServiceImpl[T]) UpdateWithTx(ctx context.Context, tx bun.IDB, model *T) (*T, error) {
	return s.baseRepo().UpdateTx(ctx, tx, model)
}

func (s *baseServiceImpl[T]) PatchWithTx(ctx context.Context, tx bun.IDB, keys types.Filters, changes map[string]any) (*T, error) {
	return s.baseRepo().PatchTx(ctx, tx, keys, changes)
}

func (s *baseServiceImpl[T]) DeleteWithTx(ctx context.Context, tx bun.IDB, keys types.Filters) error {
	return s.baseRepo().DeleteTx(ctx, tx, keys)
}

func (s *baseServiceImpl[T]) SaveOrUpdateWithTx(ctx context.Context, tx bun.IDB, fields []string, duplicateKeys []string, model ...*T) error {
	return s.baseRepo().UpsertTx(ctx, tx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}

func (s *baseServiceImpl[T]) InsertBuilder() *bun.InsertQuery {
	return s.baseRepo().NewInsert()
}

func (s *baseServiceImpl[T]) UpdateBuilder() *bun.UpdateQuery {
	return s.baseRepo().NewUpdate()
}

func (s *baseServiceImpl[T]) DeleteBuilder() *bun.DeleteQuery {
	return s.baseRepo().NewDelete()
}

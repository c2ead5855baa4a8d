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
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/tomoncle/easycrud/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db    *bun.DB
	table *schema.Table
}

// NewRepository returns a generic repository backed by the provided Bun DB.
// The entity's table metadata (columns, primary keys) is resolved once from
// the Bun schema and drives all keyed operations.
func NewRepository[T any](db *bun.DB) Repository[T] {
	table := db.Table(reflect.TypeOf((*T)(nil)).Elem())
	return &baseRepositoryImpl[T]{db: db, table: table}
}

func (r *baseRepositoryImpl[T]) Table() *schema.Table { return r.table }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) ValsToSlice(entity ...*T) []*T {
	entities := make([]*T, len(entity))
	copy(entities, entity)
	return entities
}

// idb resolves the database handle for an operation: the caller supplied
// transaction if any, the shared DB otherwise.
func (r *baseRepositoryImpl[T]) idb(tx bun.IDB) bun.IDB {
	if tx != nil {
		return tx
	}
	return r.db
}

// runInTx executes fn within the supplied transaction if one is given, or
// opens a dedicated transaction otherwise. Mirrors write-path semantics where
// each standalone operation is atomic but callers may batch several
// operations under one transaction.
func (r *baseRepositoryImpl[T]) runInTx(ctx context.Context, tx bun.IDB, fn func(ctx context.Context, idb bun.IDB) error) error {
	if tx != nil {
		return fn(ctx, tx)
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// validateKeys checks that keys contains a value for every primary key column
// and nothing else.
func (r *baseRepositoryImpl[T]) validateKeys(keys types.Filters) error {
	if len(r.table.PKs) == 0 {
		return fmt.Errorf("model %s has no primary key", r.table.TypeName)
	}
	for _, pk := range r.table.PKs {
		if _, ok := keys[pk.Name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingKey, pk.Name)
		}
	}
	for name := range keys {
		field, ok := r.table.FieldMap[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
		if !field.IsPK {
			return fmt.Errorf("column %s is not a primary key", name)
		}
	}
	return nil
}

// entityKeys extracts the primary key values from an entity instance.
func (r *baseRepositoryImpl[T]) entityKeys(entity *T) types.Filters {
	v := reflect.ValueOf(entity).Elem()
	keys := make(types.Filters, len(r.table.PKs))
	for _, pk := range r.table.PKs {
		keys[pk.Name] = pk.Value(v).Interface()
	}
	return keys
}

func (r *baseRepositoryImpl[T]) whereKeys(query *bun.SelectQuery, keys types.Filters) *bun.SelectQuery {
	for _, pk := range r.table.PKs {
		query = query.Where("? = ?", bun.Ident(pk.Name), keys[pk.Name])
	}
	return query
}

// applyFilters adds one equality condition per filter entry. Unknown columns
// are rejected so that callers cannot probe the schema, nil values skipped.
func (r *baseRepositoryImpl[T]) applyFilters(query *bun.SelectQuery, filters types.Filters) (*bun.SelectQuery, error) {
	for name, value := range filters {
		if _, ok := r.table.FieldMap[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
		if value == nil {
			continue
		}
		query = query.Where("? = ?", bun.Ident(name), value)
	}
	return query, nil
}

func (r *baseRepositoryImpl[T]) getTx(ctx context.Context, tx bun.IDB, keys types.Filters) (*T, error) {
	if err := r.validateKeys(keys); err != nil {
		return nil, err
	}
	var entity T
	query := r.whereKeys(r.idb(tx).NewSelect().Model(&entity), keys)
	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %v", ErrNotFound, r.table.Name, keys)
		}
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) Get(ctx context.Context, keys types.Filters) (*T, error) {
	return r.getTx(ctx, nil, keys)
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, filters types.Filters) ([]*T, error) {
	entities := make([]*T, 0)
	query, err := r.applyFilters(r.db.NewSelect().Model(&entities), filters)
	if err != nil {
		return nil, err
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) All(ctx context.Context) ([]*T, error) {
	entities := make([]*T, 0)
	err := r.db.NewSelect().Model(&entities).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	entities := make([]*T, 0)
	err := r.db.NewSelect().Model(&entities).Where(query, args...).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	var entities []*T
	query, err := r.applyFilters(r.db.NewSelect().Model(&entities), pageRequest.GetFilters())
	if err != nil {
		return nil, err
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	err = query.
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Order(pageRequest.GetOrders()...).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Add(ctx context.Context, entity *T) (*T, error) {
	return r.AddTx(ctx, nil, entity)
}

func (r *baseRepositoryImpl[T]) AddTx(ctx context.Context, tx bun.IDB, entity *T) (*T, error) {
	var stored *T
	err := r.runInTx(ctx, tx, func(ctx context.Context, idb bun.IDB) error {
		if _, err := idb.NewInsert().Model(entity).Exec(ctx); err != nil {
			return err
		}
		// re-read so that database generated values (auto increment ids,
		// column defaults) are reflected in the returned entity
		refreshed, err := r.getTx(ctx, idb, r.entityKeys(entity))
		if err != nil {
			return err
		}
		stored = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) (*T, error) {
	return r.UpdateTx(ctx, nil, entity)
}

func (r *baseRepositoryImpl[T]) UpdateTx(ctx context.Context, tx bun.IDB, entity *T) (*T, error) {
	keys := r.entityKeys(entity)
	var stored *T
	err := r.runInTx(ctx, tx, func(ctx context.Context, idb bun.IDB) error {
		if _, err := r.getTx(ctx, idb, keys); err != nil {
			return err
		}
		if _, err := idb.NewUpdate().Model(entity).WherePK().Exec(ctx); err != nil {
			return err
		}
		refreshed, err := r.getTx(ctx, idb, keys)
		if err != nil {
			return err
		}
		stored = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *baseRepositoryImpl[T]) Patch(ctx context.Context, keys types.Filters, changes map[string]any) (*T, error) {
	return r.PatchTx(ctx, nil, keys, changes)
}

func (r *baseRepositoryImpl[T]) PatchTx(ctx context.Context, tx bun.IDB, keys types.Filters, changes map[string]any) (*T, error) {
	if err := r.validateKeys(keys); err != nil {
		return nil, err
	}
	columns, err := r.patchColumns(changes)
	if err != nil {
		return nil, err
	}
	var stored *T
	err = r.runInTx(ctx, tx, func(ctx context.Context, idb bun.IDB) error {
		if _, err := r.getTx(ctx, idb, keys); err != nil {
			return err
		}
		if len(columns) > 0 {
			query := idb.NewUpdate().Model((*T)(nil))
			for _, column := range columns {
				query = query.Set("? = ?", bun.Ident(column), changes[column])
			}
			for _, pk := range r.table.PKs {
				query = query.Where("? = ?", bun.Ident(pk.Name), keys[pk.Name])
			}
			if _, err := query.Exec(ctx); err != nil {
				return err
			}
		}
		refreshed, err := r.getTx(ctx, idb, keys)
		if err != nil {
			return err
		}
		stored = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// patchColumns filters the change set down to writable columns: key columns
// are silently dropped, unknown columns rejected.
func (r *baseRepositoryImpl[T]) patchColumns(changes map[string]any) ([]string, error) {
	columns := make([]string, 0, len(changes))
	for name := range changes {
		field, ok := r.table.FieldMap[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
		if field.IsPK {
			continue
		}
		columns = append(columns, name)
	}
	return columns, nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, keys types.Filters) error {
	return r.DeleteTx(ctx, nil, keys)
}

func (r *baseRepositoryImpl[T]) DeleteTx(ctx context.Context, tx bun.IDB, keys types.Filters) error {
	if err := r.validateKeys(keys); err != nil {
		return err
	}
	return r.runInTx(ctx, tx, func(ctx context.Context, idb bun.IDB) error {
		if _, err := r.getTx(ctx, idb, keys); err != nil {
			return err
		}
		var entity T
		query := idb.NewDelete().Model(&entity)
		for _, pk := range r.table.PKs {
			query = query.Where("? = ?", bun.Ident(pk.Name), keys[pk.Name])
		}
		_, err := query.Exec(ctx)
		return err
	})
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, nil, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) UpsertTx(ctx context.Context, tx bun.IDB, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, tx, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) multipleUpsert(ctx context.Context, tx bun.IDB, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}

	entities := r.ValsToSlice(entity...)
	if len(entities) == 0 {
		return nil
	}

	insertQuery := r.idb(tx).NewInsert()

	if r.db.HasFeature(feature.InsertOnConflict) {
		return r.upsertWithPostgresqlOrSQLite(ctx, insertQuery, fields, duplicateKeys, entities)
	} else if r.db.HasFeature(feature.InsertOnDuplicateKey) {
		return r.upsertWithMySQL(ctx, insertQuery, fields, entities)
	}
	// Fallback: separate insert/update logic
	return r.upsertFallback(ctx, tx, entities)
}

func (r *baseRepositoryImpl[T]) upsertWithMySQL(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, entities []*T) error {
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = VALUES(%s)", bun.Ident(field), bun.Ident(field)))
	}
	_, err := insertQuery.
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertWithPostgresqlOrSQLite(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		for _, pk := range r.table.PKs {
			duplicateKeys = append(duplicateKeys, pk.Name)
		}
	}
	keyNames := strings.Join(duplicateKeys, ",")
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = EXCLUDED.%s", bun.Ident(field), bun.Ident(field)))
	}
	_, err := insertQuery.
		Model(&entities).
		On("CONFLICT (" + keyNames + ") DO UPDATE").
		Set(strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, tx bun.IDB, entities []*T) error {
	idb := r.idb(tx)
	for _, entity := range entities {
		_, err := idb.NewInsert().Model(entity).Exec(ctx)
		if err != nil {
			_, updateErr := idb.NewUpdate().Model(entity).WherePK().Exec(ctx)
			if updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %v", err, updateErr)
			}
		}
	}
	return nil
}

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

package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/tomoncle/easycrud/repository"
	"github.com/tomoncle/easycrud/types"
)

// Query parameters reserved for pagination on the list endpoint; every other
// parameter must name a column.
const (
	paramPage     = "page"
	paramPageSize = "page_size"
	paramOrderBy  = "order_by"
)

type crudHandler[T any] struct {
	repo repository.Repository[T]
	meta *entityMeta
}

// list handles GET {base}: column query params become equality filters. When
// page or page_size is present the response is a pagination envelope,
// otherwise a plain array of every match.
func (h *crudHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := make(types.Filters)
	for name, values := range query {
		switch name {
		case paramPage, paramPageSize, paramOrderBy:
			continue
		}
		field, ok := h.meta.field(name)
		if !ok {
			RespondError(w, http.StatusBadRequest, fmt.Sprintf("unknown query parameter: %s", name))
			return
		}
		value, err := parseColumnValue(field, values[0])
		if err != nil {
			RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		filters[name] = value
	}

	if !query.Has(paramPage) && !query.Has(paramPageSize) {
		entities, err := h.repo.Find(r.Context(), filters)
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		RespondJSON(w, http.StatusOK, entities)
		return
	}

	page, err := h.parsePageRequest(query, filters)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pagination, err := h.repo.Page(r.Context(), page)
	if err != nil {
		respondRepositoryError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, pagination)
}

func (h *crudHandler[T]) parsePageRequest(query map[string][]string, filters types.Filters) (*types.PageRequest, error) {
	page, err := parseIntParam(query, paramPage, 1)
	if err != nil {
		return nil, err
	}
	pageSize, err := parseIntParam(query, paramPageSize, types.DefaultPageSize)
	if err != nil {
		return nil, err
	}

	var orders []string
	if values, ok := query[paramOrderBy]; ok {
		for _, order := range strings.Split(values[0], ",") {
			order = strings.TrimSpace(order)
			if order == "" {
				continue
			}
			column, direction, _ := strings.Cut(order, " ")
			if _, ok := h.meta.field(column); !ok {
				return nil, fmt.Errorf("unknown order column: %s", column)
			}
			switch strings.ToUpper(strings.TrimSpace(direction)) {
			case "", "ASC":
				orders = append(orders, column+" ASC")
			case "DESC":
				orders = append(orders, column+" DESC")
			default:
				return nil, fmt.Errorf("invalid order direction: %s", direction)
			}
		}
	}

	return types.NewPageRequest(page, pageSize, filters, orders), nil
}

func parseIntParam(query map[string][]string, name string, fallback int) (int, error) {
	values, ok := query[name]
	if !ok {
		return fallback, nil
	}
	v, err := strconv.Atoi(values[0])
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid value %q for parameter %s", values[0], name)
	}
	return v, nil
}

// get handles GET {base}/{pk1}/.../{pkN}: path segments in primary key
// declaration order address one row.
func (h *crudHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	keys, err := h.pathKeys(r)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	entity, err := h.repo.Get(r.Context(), keys)
	if err != nil {
		respondRepositoryError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, entity)
}

// create handles POST {base}: decodes the body into the entity, stores it,
// and returns the stored row including database generated values.
func (h *crudHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var entity T
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		RespondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	stored, err := h.repo.Add(r.Context(), &entity)
	if err != nil {
		respondRepositoryError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, stored)
}

// update handles PUT {base}: the body is the full entity including its keys.
func (h *crudHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	var entity T
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		RespondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	stored, err := h.repo.Update(r.Context(), &entity)
	if err != nil {
		respondRepositoryError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, stored)
}

// patch handles PATCH {base}: primary key values arrive as query params, the
// body holds only the columns to change. Key columns in the body are ignored.
func (h *crudHandler[T]) patch(w http.ResponseWriter, r *http.Request) {
	keys, err := h.queryKeys(r)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	changes, err := h.decodeChanges(r)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	stored, err := h.repo.Patch(r.Context(), keys, changes)
	if err != nil {
		respondRepositoryError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, stored)
}

// remove handles DELETE {base}: primary key values arrive as query params.
func (h *crudHandler[T]) remove(w http.ResponseWriter, r *http.Request) {
	keys, err := h.queryKeys(r)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Delete(r.Context(), keys); err != nil {
		respondRepositoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathKeys extracts and parses the primary key values from path segments.
func (h *crudHandler[T]) pathKeys(r *http.Request) (types.Filters, error) {
	keys := make(types.Filters, len(h.meta.pks))
	for _, pk := range h.meta.pks {
		value, err := parseColumnValue(pk, r.PathValue(pk.Name))
		if err != nil {
			return nil, err
		}
		keys[pk.Name] = value
	}
	return keys, nil
}

// queryKeys extracts and parses the primary key values from query params.
func (h *crudHandler[T]) queryKeys(r *http.Request) (types.Filters, error) {
	query := r.URL.Query()
	keys := make(types.Filters, len(h.meta.pks))
	for _, pk := range h.meta.pks {
		if !query.Has(pk.Name) {
			return nil, fmt.Errorf("missing primary key parameter: %s", pk.Name)
		}
		value, err := parseColumnValue(pk, query.Get(pk.Name))
		if err != nil {
			return nil, err
		}
		keys[pk.Name] = value
	}
	return keys, nil
}

// decodeChanges decodes the patch body into typed column values using the
// column's struct field type, so numbers keep their declared width instead of
// collapsing to float64.
func (h *crudHandler[T]) decodeChanges(r *http.Request) (map[string]any, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %v", err)
	}

	changes := make(map[string]any, len(body))
	for name, raw := range body {
		field, ok := h.meta.field(name)
		if !ok {
			return nil, fmt.Errorf("unknown column: %s", name)
		}
		if field.IsPK {
			continue
		}
		value := reflect.New(field.StructField.Type)
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return nil, fmt.Errorf("invalid value for column %s: %v", name, err)
		}
		changes[name] = value.Elem().Interface()
	}
	return changes, nil
}

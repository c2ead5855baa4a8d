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
	"fmt"
	"net/http"
	"strings"

	"github.com/tomoncle/easycrud/repository"
)

// Mount registers the CRUD endpoints for one entity type under base:
//
//	GET    {base}                search by column query params, paginated
//	                             when page/page_size is present
//	GET    {base}/{pk1}/../{pkN} fetch one row by primary key
//	POST   {base}                create, responds 201 with the stored row
//	PUT    {base}                full update, body carries the keys
//	PATCH  {base}                partial update, keys as query params
//	DELETE {base}                delete, keys as query params, responds 204
//
// The entity must have at least one primary key column.
func Mount[T any](mux *http.ServeMux, base string, repo repository.Repository[T]) error {
	if !strings.HasPrefix(base, "/") {
		return fmt.Errorf("base path must start with /: %s", base)
	}
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return fmt.Errorf("base path must name a resource")
	}

	meta, err := newEntityMeta(repo.Table())
	if err != nil {
		return err
	}

	handler := &crudHandler[T]{repo: repo, meta: meta}
	mux.HandleFunc("GET "+base, handler.list)
	mux.HandleFunc("GET "+meta.keyPattern(base), handler.get)
	mux.HandleFunc("POST "+base, handler.create)
	mux.HandleFunc("PUT "+base, handler.update)
	mux.HandleFunc("PATCH "+base, handler.patch)
	mux.HandleFunc("DELETE "+base, handler.remove)
	return nil
}

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

package types

const (
	// DefaultPageSize is used when a page request does not specify a size.
	DefaultPageSize = 10
	// MaxPageSize caps the page size accepted from external callers.
	MaxPageSize = 1000
)

// Filters holds column-to-value equality conditions. Nil values are skipped,
// matching the search semantics of the find endpoint.
type Filters map[string]any

// Clean returns a copy of the filters without nil values.
func (f Filters) Clean() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// PageRequest describes pagination, optional filters, and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filters  Filters
	orders   []string // "id ASC", "name DESC"
}

// NewPageRequest constructs a PageRequest with filters and order settings.
func NewPageRequest(page int, pageSize int, filters Filters, orders []string) *PageRequest {
	return &PageRequest{page, pageSize, filters, orders}
}

// NewDefaultPageRequest constructs a PageRequest with no filters or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = DefaultPageSize
	}
	if p.pageSize > MaxPageSize {
		p.pageSize = MaxPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilters() Filters {
	return p.filters
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

// Pagination holds paged result items along with pagination metadata.
// It is serialized as the response body of paginated search endpoints.
type Pagination[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	Items    []*T `json:"items"`
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}

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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestDefaults(t *testing.T) {
	page := NewDefaultPageRequest(0, 0)
	assert.Equal(t, 1, page.GetPage())
	assert.Equal(t, DefaultPageSize, page.GetPageSize())
	assert.Equal(t, 0, page.GetOffset())
}

func TestPageRequestClampsPageSize(t *testing.T) {
	page := NewDefaultPageRequest(3, MaxPageSize+1)
	assert.Equal(t, MaxPageSize, page.GetPageSize())
	assert.Equal(t, 2*MaxPageSize, page.GetOffset())
}

func TestPageRequestOffset(t *testing.T) {
	page := NewDefaultPageRequest(4, 25)
	assert.Equal(t, 75, page.GetOffset())
}

func TestFiltersClean(t *testing.T) {
	filters := Filters{"name": "alice", "email": nil, "age": 30}
	cleaned := filters.Clean()
	assert.Equal(t, Filters{"name": "alice", "age": 30}, cleaned)
	// original untouched
	assert.Contains(t, filters, "email")
}

func TestNewDefaultPagination(t *testing.T) {
	p := NewDefaultPagination[string](2, 50)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 50, p.PageSize)
	assert.Equal(t, 0, p.Total)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}

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
	"strings"

	"github.com/uptrace/bun/schema"
)

// entityMeta is the column and key metadata of one entity, extracted from the
// Bun schema. It drives path pattern construction, filter validation, and
// typed parameter parsing.
type entityMeta struct {
	table *schema.Table
	pks   []*schema.Field
}

func newEntityMeta(table *schema.Table) (*entityMeta, error) {
	if len(table.PKs) == 0 {
		return nil, fmt.Errorf("model %s has no primary key, cannot register routes", table.TypeName)
	}
	return &entityMeta{table: table, pks: table.PKs}, nil
}

// field resolves a column name to its schema field.
func (m *entityMeta) field(name string) (*schema.Field, bool) {
	field, ok := m.table.FieldMap[name]
	return field, ok
}

// keyPattern returns the ServeMux pattern addressing one row by primary key,
// one path segment per key column in declaration order:
// "/users/{id}", "/orders/{tenant_id}/{order_no}".
func (m *entityMeta) keyPattern(base string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, pk := range m.pks {
		b.WriteString("/{")
		b.WriteString(pk.Name)
		b.WriteString("}")
	}
	return b.String()
}

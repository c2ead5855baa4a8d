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
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/uptrace/bun/schema"
)

var timeType = reflect.TypeOf(time.Time{})

// parseColumnValue converts the raw string of a path or query parameter into
// the Go value of the column's struct field: times via RFC 3339 (or a bare
// date), types implementing encoding.TextUnmarshaler (uuid.UUID and friends)
// via UnmarshalText, everything else via its kind.
func parseColumnValue(field *schema.Field, raw string) (any, error) {
	typ := field.StructField.Type
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	if typ == timeType {
		return parseTime(field.Name, raw)
	}
	if reflect.PointerTo(typ).Implements(reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()) {
		value := reflect.New(typ)
		if err := value.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return nil, invalidValue(field.Name, raw, err)
		}
		return value.Elem().Interface(), nil
	}

	switch typ.Kind() {
	case reflect.String:
		return raw, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalidValue(field.Name, raw, err)
		}
		return v, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(raw, 10, typ.Bits())
		if err != nil {
			return nil, invalidValue(field.Name, raw, err)
		}
		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(raw, 10, typ.Bits())
		if err != nil {
			return nil, invalidValue(field.Name, raw, err)
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, typ.Bits())
		if err != nil {
			return nil, invalidValue(field.Name, raw, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("column %s has unsupported parameter type %s", field.Name, typ)
	}
}

func parseTime(column, raw string) (any, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, invalidValue(column, raw, err)
	}
	return t, nil
}

func invalidValue(column, raw string, err error) error {
	return fmt.Errorf("invalid value %q for column %s: %v", raw, column, err)
}

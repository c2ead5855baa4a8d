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

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlErrorNoRows(t *testing.T) {
	is, class := IsSqlError(sql.ErrNoRows)
	assert.True(t, is)
	assert.Equal(t, NoRowsErr, class)

	wrapped := fmt.Errorf("fetch user: %w", sql.ErrNoRows)
	is, class = IsSqlError(wrapped)
	assert.True(t, is)
	assert.Equal(t, NoRowsErr, class)
	assert.True(t, IsNoRows(wrapped))
}

func TestIsSqlErrorMySQLNumbers(t *testing.T) {
	cases := map[uint16]SQLError{
		1062: DuplicateKeyErr,
		1048: NotNullViolationErr,
		1452: ForeignKeyViolationErr,
		3819: CheckConstraintViolationErr,
		1054: NoColumnErr,
		1050: ExistTableErr,
	}
	for number, expected := range cases {
		err := &mysql.MySQLError{Number: number, Message: "boom"}
		is, class := IsSqlError(err)
		assert.True(t, is, "number %d", number)
		assert.Equal(t, expected, class, "number %d", number)
	}
}

func TestIsSqlErrorPostgresCodes(t *testing.T) {
	cases := map[string]SQLError{
		"23505": DuplicateKeyErr,
		"23502": NotNullViolationErr,
		"23503": ForeignKeyViolationErr,
		"23514": CheckConstraintViolationErr,
		"42703": NoColumnErr,
	}
	for code, expected := range cases {
		err := &pq.Error{Code: pq.ErrorCode(code), Message: "boom"}
		is, class := IsSqlError(err)
		assert.True(t, is, "code %s", code)
		assert.Equal(t, expected, class, "code %s", code)
	}
}

func TestIsSqlErrorSQLiteMessages(t *testing.T) {
	is, class := IsSqlError(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"))
	assert.True(t, is)
	assert.Equal(t, DuplicateKeyErr, class)

	is, class = IsSqlError(errors.New("constraint failed: NOT NULL constraint failed: users.name (1299)"))
	assert.True(t, is)
	assert.Equal(t, NotNullViolationErr, class)

	is, class = IsSqlError(errors.New("constraint failed: FOREIGN KEY constraint failed (787)"))
	assert.True(t, is)
	assert.Equal(t, ForeignKeyViolationErr, class)
}

func TestIsIntegrityError(t *testing.T) {
	assert.True(t, IsIntegrityError(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsIntegrityError(&pq.Error{Code: "23503"}))
	assert.True(t, IsIntegrityError(errors.New("UNIQUE constraint failed: users.email")))

	assert.False(t, IsIntegrityError(nil))
	assert.False(t, IsIntegrityError(sql.ErrNoRows))
	assert.False(t, IsIntegrityError(errors.New("connection refused")))
}

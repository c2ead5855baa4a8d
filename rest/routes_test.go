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
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomoncle/easycrud/repository"
	"github.com/tomoncle/easycrud/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type apiUser struct {
	bun.BaseModel `bun:"table:api_users"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Email string `bun:"email,unique" json:"email"`
	Age   int    `bun:"age" json:"age"`
}

type apiToken struct {
	bun.BaseModel `bun:"table:api_tokens"`

	ID   uuid.UUID        `bun:"id,pk,type:uuid" json:"id"`
	Note string           `bun:"note" json:"note"`
	Meta types.JsonObject `bun:"meta,type:text" json:"meta"`
}

type apiOrderLine struct {
	bun.BaseModel `bun:"table:api_order_lines"`

	OrderNo  string `bun:"order_no,pk" json:"order_no"`
	LineNo   int    `bun:"line_no,pk" json:"line_no"`
	Product  string `bun:"product,notnull" json:"product"`
	Quantity int    `bun:"quantity" json:"quantity"`
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{(*apiUser)(nil), (*apiOrderLine)(nil), (*apiToken)(nil)} {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	mux := http.NewServeMux()
	require.NoError(t, Mount(mux, "/users", repository.NewRepository[apiUser](db)))
	require.NoError(t, Mount(mux, "/order-lines", repository.NewRepository[apiOrderLine](db)))
	require.NoError(t, Mount(mux, "/tokens", repository.NewRepository[apiToken](db)))
	return mux
}

func doRequest(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) apiUser {
	t.Helper()
	var u apiUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

func TestCreateThenGet(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPost, "/users", `{"name":"alice","email":"alice@example.com","age":30}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeUser(t, rec)
	assert.NotZero(t, created.ID)

	rec = doRequest(mux, http.MethodGet, fmt.Sprintf("/users/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decodeUser(t, rec)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "alice", fetched.Name)
	assert.Equal(t, 30, fetched.Age)
}

func TestGetAbsentIs404(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodGet, "/users/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestGetBadKeyTypeIs400(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodGet, "/users/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDuplicateIs409(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPost, "/users", `{"name":"alice","email":"dup@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(mux, http.MethodPost, "/users", `{"name":"bob","email":"dup@example.com"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// the driver message is passed through
	assert.Contains(t, strings.ToLower(body["error"]), "constraint")
}

func TestCreateInvalidBodyIs400(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPost, "/users", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateThenGet(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPost, "/users", `{"name":"alice","email":"alice@example.com","age":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeUser(t, rec)

	body := fmt.Sprintf(`{"id":%d,"name":"alice2","email":"alice2@example.com","age":31}`, created.ID)
	rec = doRequest(mux, http.MethodPut, "/users", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeUser(t, rec)
	assert.Equal(t, "alice2", updated.Name)

	rec = doRequest(mux, http.MethodGet, fmt.Sprintf("/users/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decodeUser(t, rec)
	assert.Equal(t, "alice2", fetched.Name)
	assert.Equal(t, 31, fetched.Age)
}

func TestUpdateAbsentIs404(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPut, "/users", `{"id":999,"name":"ghost","email":"g@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchChangesOnlyNamedColumns(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPost, "/users", `{"name":"alice","email":"alice@example.com","age":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeUser(t, rec)

	rec = doRequest(mux, http.MethodPatch, fmt.Sprintf("/users?id=%d", created.ID), `{"age":31}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decodeUser(t, rec)
	assert.Equal(t, 31, patched.Age)
	assert.Equal(t, "alice", patched.Name)
	assert.Equal(t, "alice@example.com", patched.Email)
}

func TestPatchRequiresKeyParams(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPatch, "/users", `{"age":31}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "id")
}

func TestPatchAbsentIs404(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPatch, "/users?id=999", `{"age":31}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchUnknownColumnIs400(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPost, "/users", `{"name":"alice","email":"a@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeUser(t, rec)

	rec = doRequest(mux, http.MethodPatch, fmt.Sprintf("/users?id=%d", created.ID), `{"nope":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteThenGetIs404(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPost, "/users", `{"name":"alice","email":"a@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeUser(t, rec)

	rec = doRequest(mux, http.MethodDelete, fmt.Sprintf("/users?id=%d", created.ID), "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = doRequest(mux, http.MethodGet, fmt.Sprintf("/users/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(mux, http.MethodDelete, fmt.Sprintf("/users?id=%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilterReturnsMatchingSubset(t *testing.T) {
	mux := newTestMux(t)

	for i, name := range []string{"alice", "alice", "bob"} {
		body := fmt.Sprintf(`{"name":%q,"email":"u%d@example.com","age":%d}`, name, i, 20+i)
		rec := doRequest(mux, http.MethodPost, "/users", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(mux, http.MethodGet, "/users?name=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []apiUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Equal(t, "alice", u.Name)
	}

	// typed filter on an int column
	rec = doRequest(mux, http.MethodGet, "/users?age=22", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Name)

	// no filters returns everything
	rec = doRequest(mux, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 3)
}

func TestFilterUnknownParamIs400(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodGet, "/users?nope=1", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "nope")
}

func TestFilterBadValueTypeIs400(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodGet, "/users?age=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPagination(t *testing.T) {
	mux := newTestMux(t)

	for i := 0; i < 5; i++ {
		body := fmt.Sprintf(`{"name":"alice","email":"u%d@example.com"}`, i)
		rec := doRequest(mux, http.MethodPost, "/users", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(mux, http.MethodGet, "/users?page=2&page_size=2&order_by=id+desc", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page struct {
		Page     int       `json:"page"`
		PageSize int       `json:"page_size"`
		Total    int       `json:"total"`
		Items    []apiUser `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Items, 2)
}

func TestListPaginationBadParams(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodGet, "/users?page=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(mux, http.MethodGet, "/users?page=1&order_by=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompositeKeyRoutes(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, http.MethodPost, "/order-lines", `{"order_no":"SO-1","line_no":1,"product":"widget","quantity":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doRequest(mux, http.MethodPost, "/order-lines", `{"order_no":"SO-1","line_no":2,"product":"gadget","quantity":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// both key segments address the row
	rec = doRequest(mux, http.MethodGet, "/order-lines/SO-1/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var line apiOrderLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &line))
	assert.Equal(t, "gadget", line.Product)

	rec = doRequest(mux, http.MethodGet, "/order-lines/SO-1/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(mux, http.MethodPatch, "/order-lines?order_no=SO-1&line_no=1", `{"quantity":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &line))
	assert.Equal(t, 7, line.Quantity)

	rec = doRequest(mux, http.MethodDelete, "/order-lines?order_no=SO-1&line_no=1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(mux, http.MethodGet, "/order-lines/SO-1/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(mux, http.MethodGet, "/order-lines/SO-1/2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUUIDKeyedEntity(t *testing.T) {
	mux := newTestMux(t)
	id := uuid.New()

	body := fmt.Sprintf(`{"id":%q,"note":"ci token","meta":{"scope":"read"}}`, id)
	rec := doRequest(mux, http.MethodPost, "/tokens", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(mux, http.MethodGet, "/tokens/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token apiToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, id, token.ID)
	assert.Equal(t, "ci token", token.Note)
	assert.Equal(t, "read", token.Meta["scope"])

	// uuid values work as query-param keys too
	rec = doRequest(mux, http.MethodDelete, "/tokens?id="+id.String(), "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(mux, http.MethodGet, "/tokens/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMountRejectsBadBasePath(t *testing.T) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	mux := http.NewServeMux()
	assert.Error(t, Mount(mux, "users", repository.NewRepository[apiUser](db)))
	assert.Error(t, Mount(mux, "/", repository.NewRepository[apiUser](db)))
}

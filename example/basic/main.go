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

// A minimal HTTP server exposing CRUD endpoints for two models, one with an
// auto increment key and one with a composite key. Try:
//
//	curl -X POST localhost:8080/users -d '{"name":"alice","email":"alice@example.com"}'
//	curl localhost:8080/users/1
//	curl 'localhost:8080/users?name=alice'
//	curl -X PATCH 'localhost:8080/users?id=1' -d '{"name":"bob"}'
//	curl -X DELETE 'localhost:8080/users?id=1'
package main

import (
	"net/http"
	"time"

	"github.com/tomoncle/easycrud"
	"github.com/tomoncle/easycrud/database"
	"github.com/tomoncle/easycrud/utils"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,unique" json:"email"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

type OrderLine struct {
	bun.BaseModel `bun:"table:order_lines"`

	OrderNo  string `bun:"order_no,pk" json:"order_no"`
	LineNo   int    `bun:"line_no,pk" json:"line_no"`
	Product  string `bun:"product,notnull" json:"product"`
	Quantity int    `bun:"quantity" json:"quantity"`
}

var logger = utils.NewLogger("EXAMPLE")

func main() {
	database.RegisterModel((*User)(nil), 1)
	database.RegisterModel((*OrderLine)(nil), 2)

	cfg := &database.Config{
		ConnectionConfig: database.ConnectionConfig{
			Type:   "sqlite",
			DBName: "example.db",
		},
		DataMigrateConfig: database.DataMigrateConfig{
			EnableMigrateOnStartup: true,
		},
	}
	if _, err := database.InitDB(cfg); err != nil {
		logger.Fatalf("database init failed: %v", err)
	}
	defer func() { _ = database.CloseDB() }()

	mux := http.NewServeMux()
	if err := easycrud.RegisterRoutes[User](mux, "/users"); err != nil {
		logger.Fatalf("register user routes: %v", err)
	}
	if err := easycrud.RegisterRoutes[OrderLine](mux, "/order-lines"); err != nil {
		logger.Fatalf("register order line routes: %v", err)
	}

	logger.Info("listening on :8080")
	if err := http.ListenAndServe(":8080", mux); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

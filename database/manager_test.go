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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testSetting struct {
	bun.BaseModel `bun:"table:test_settings"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	Key   string `bun:"key,notnull,unique" json:"key"`
	Value string `bun:"value" json:"value"`
}

func sqliteMemoryConfig() *Config {
	return &Config{
		ConnectionConfig: ConnectionConfig{
			Type:   "sqlite",
			DBName: ":memory:",
		},
		DataMigrateConfig: DataMigrateConfig{
			EnableMigrateOnStartup: true,
		},
	}
}

func TestInitDBRunsMigrationsForRegisteredModels(t *testing.T) {
	RegisterModel((*testSetting)(nil), 1)

	db, err := InitDB(sqliteMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })
	require.Same(t, db, GetDB())

	ctx := context.Background()

	// table created by the startup migration
	setting := &testSetting{Key: "theme", Value: "dark"}
	_, err = db.NewInsert().Model(setting).Exec(ctx)
	require.NoError(t, err)
	assert.NotZero(t, setting.ID)

	var fetched testSetting
	err = db.NewSelect().Model(&fetched).Where("key = ?", "theme").Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", fetched.Value)

	// the migration itself is recorded
	manager := NewMigrationManager(db, GetLogger(), nil, nil)
	applied, err := manager.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	assert.Equal(t, "001", applied[0].Version)

	status := GetHealthStatus(ctx)
	require.NotNil(t, status)
	assert.True(t, status.Healthy)

	stats := GetDatabaseStats()
	require.NotNil(t, stats)
	assert.GreaterOrEqual(t, stats.OpenConns, 0)
}

func TestManagerRejectsUnknownType(t *testing.T) {
	cfg := &Config{ConnectionConfig: ConnectionConfig{Type: "oracle"}}
	manager := NewDatabaseManager(cfg)
	err := manager.Connect(context.Background())
	assert.Error(t, err)
}

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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
connection:
  type: postgres
  host: db.internal
  port: 5433
  username: svc
  dbname: orders
  max_open_conns: 20
migrate:
  enable_migrate_on_startup: true
init:
  environment: dev
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.ConnectionConfig.Type)
	assert.Equal(t, "db.internal", cfg.ConnectionConfig.Host)
	assert.Equal(t, 5433, cfg.ConnectionConfig.Port)
	assert.Equal(t, "orders", cfg.ConnectionConfig.DBName)
	assert.Equal(t, 20, cfg.ConnectionConfig.MaxOpenConns)
	assert.True(t, cfg.DataMigrateConfig.EnableMigrateOnStartup)
	assert.Equal(t, "dev", cfg.DataInitConfig.Environment)

	// unset values come from defaults
	defaults := DefaultConnectionConfig()
	assert.Equal(t, defaults.MaxIdleConns, cfg.ConnectionConfig.MaxIdleConns)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_MAX_OPEN_CONNS", "55")

	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "override.internal", cfg.ConnectionConfig.Host)
	assert.Equal(t, "secret", cfg.ConnectionConfig.Password)
	assert.Equal(t, 55, cfg.ConnectionConfig.MaxOpenConns)
	// values without overrides keep the file settings
	assert.Equal(t, "orders", cfg.ConnectionConfig.DBName)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

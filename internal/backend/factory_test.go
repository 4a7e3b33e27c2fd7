package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orcamento/internal/config"
)

func TestCreateSQLiteBackend(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "nested", "orcamento.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { res.Cleanup() })

	assert.Nil(t, res.Publisher, "no AMQP URL means no publisher")
	require.NoError(t, res.Store.Ping(context.Background()))

	budgets, err := res.Store.ListBudgets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, budgets, "migrations ran")
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	for _, cfg := range []Config{
		{Type: "memory"},
		{Type: SQLiteBackend},
		{Type: PostgresBackend},
		{Type: SQLiteBackend, SQLiteDBPath: "x.db", AMQPURL: "amqp://localhost"},
	} {
		_, err := f.CreateBackend(context.Background(), cfg)
		assert.Error(t, err, cfg)
	}
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend: config.BackendPostgres,
		DBHost:      "db",
		DBPort:      "5432",
		DBUser:      "app",
		DBName:      "orcamento",
		DBSSLMode:   "disable",
	}
	c, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, PostgresBackend, c.Type)
	assert.Equal(t, app.PostgresDSN(), c.PostgresDSN)

	app.DataBackend = config.BackendSQLite
	app.SQLiteDBPath = "./data/x.db"
	c, err = FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, c.Type)
	assert.Empty(t, c.PostgresDSN)
	assert.Equal(t, "./data/x.db", c.SQLiteDBPath)

	app.DataBackend = "sheets"
	_, err = FromAppConfig(app)
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"postgres", "sqlite"}, GetBackendTypeStrings())
}

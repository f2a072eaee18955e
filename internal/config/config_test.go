package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDefaults_AutoPicksSQLite(t *testing.T) {
	cfg := &Config{DBDriver: "auto", RestoreBatchSize: 5}
	require.NoError(t, cfg.ResolveDefaults())
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, "tabvault.db", cfg.SQLitePath)
}

func TestResolveDefaults_AutoPicksPostgresWithDSN(t *testing.T) {
	cfg := &Config{DBDriver: "auto", PostgresDSN: "postgres://localhost/tabvault", RestoreBatchSize: 5}
	require.NoError(t, cfg.ResolveDefaults())
	require.Equal(t, "postgres", cfg.DBDriver)
}

func TestResolveDefaults_PostgresRequiresDSN(t *testing.T) {
	cfg := &Config{DBDriver: "postgres", RestoreBatchSize: 5}
	require.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_RejectsUnknownDriver(t *testing.T) {
	cfg := &Config{DBDriver: "spanner", RestoreBatchSize: 5}
	require.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_RejectsBadBatchTuning(t *testing.T) {
	cfg := &Config{DBDriver: "auto", RestoreBatchSize: 0}
	require.Error(t, cfg.ResolveDefaults())
	cfg = &Config{DBDriver: "auto", RestoreBatchSize: 5, RestoreBatchDelayMS: -1}
	require.Error(t, cfg.ResolveDefaults())
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("TABVAULT_HTTP_PORT", "9090")
	t.Setenv("TABVAULT_DB_DRIVER", "sqlite")
	t.Setenv("TABVAULT_SQLITE_PATH", "/tmp/tv-test.db")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.HTTPPort)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, "/tmp/tv-test.db", cfg.SQLitePath)
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	require.Equal(t, EnvTesting, cfg.Environment)
	require.Equal(t, "sqlite", cfg.DBDriver)
}

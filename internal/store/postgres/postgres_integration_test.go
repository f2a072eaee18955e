package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/store/storetest"
)

// Requires a reachable Postgres; set TABVAULT_TEST_POSTGRES_DSN to run.
func TestPostgresStore_Compliance(t *testing.T) {
	dsn := os.Getenv("TABVAULT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TABVAULT_TEST_POSTGRES_DSN not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		db, err := Open(dsn)
		if err != nil {
			t.Fatalf("open postgres: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		if err := EnsureSchema(context.Background(), db); err != nil {
			t.Fatalf("ensure schema: %v", err)
		}
		for _, tbl := range []string{"collections", "folders", "tabs", "tasks", "snoozed_tabs", "window_metadata"} {
			if _, err := db.Exec(`TRUNCATE TABLE ` + tbl); err != nil {
				t.Fatalf("truncate %s: %v", tbl, err)
			}
		}
		return New(db)
	})
}

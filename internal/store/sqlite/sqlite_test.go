package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/store/storetest"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "tabvault.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func TestSqliteStore_Compliance(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

// The SQLITE_FULL branch needs a real driver error, which cannot be
// constructed outside the driver; the capacity mapping contract is covered
// by the postgres mapErr test and the respond-level status test.
func TestMapErr(t *testing.T) {
	if mapErr(nil) != nil {
		t.Fatal("nil must map to nil")
	}
	if got := mapErr(sql.ErrNoRows); !errors.Is(got, model.ErrNotFound) {
		t.Fatalf("ErrNoRows mapped to %v, want ErrNotFound", got)
	}
	plain := errors.New("locked")
	if got := mapErr(plain); got != plain {
		t.Fatalf("unrelated error mapped to %v, want passthrough", got)
	}
}

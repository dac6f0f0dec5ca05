package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", sqliteDSN(":memory:"))
	assert.Equal(t, "data/leave.db?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL", sqliteDSN("data/leave.db"))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL", sqliteDSN("file:x.db?cache=shared"))
}

func TestNewSQLiteDB_InMemory(t *testing.T) {
	db, err := NewSQLiteDB(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

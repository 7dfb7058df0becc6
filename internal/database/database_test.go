package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementsSplitSchema(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 5)
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"), s)
		assert.False(t, strings.HasSuffix(s, ";"))
	}
	assert.Contains(t, stmts[4], "UNIQUE KEY uq_booking_seat (showtime_id, seat_label)")
}

func TestDSN(t *testing.T) {
	dsn := Options{User: "app", Pass: "p@ss", Host: "db", Port: "3306", Name: "tickets"}.DSN()
	assert.True(t, strings.HasPrefix(dsn, "app:p@ss@tcp(db:3306)/tickets?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pharos-labs/pharosdb/internal/testutil"
	"github.com/pharos-labs/pharosdb/pkg/core"
	"github.com/pharos-labs/pharosdb/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errConnDropped is the sentinel the test dialect classifies as a
// connection error.
var errConnDropped = errors.New("server closed the connection")

// handleQueue hands out prepared sqlmock handles, one per open, and counts
// how many opens happened.
type handleQueue struct {
	mu      sync.Mutex
	handles []*sql.DB
	opens   int
}

func (q *handleQueue) open(_ core.ConnectionConfig) (*sql.DB, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.handles) == 0 {
		return nil, errConnDropped
	}
	db := q.handles[0]
	q.handles = q.handles[1:]
	q.opens++
	return db, nil
}

func (q *handleQueue) openCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.opens
}

// registerTestDialect registers a dialect backed by the queue under a
// unique name. The registry is global, so each test uses its own name.
func registerTestDialect(name string, q *handleQueue) {
	dialect.Register(&dialect.Dialect{
		Name:     name,
		Open:     q.open,
		ProbeSQL: "SELECT 1",
		Classify: func(err error) dialect.ErrorKind {
			if errors.Is(err, errConnDropped) {
				return dialect.ErrorKindConnection
			}
			return dialect.ErrorKindOther
		},
		Placeholder: func(_ int) string { return "?" },
	})
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return db, mock
}

func newTestConnection(t *testing.T, dialectName string) *Connection {
	t.Helper()
	cfg := core.ConnectionConfig{Type: dialectName, Database: "erp"}
	conn, err := NewConnection("erp", cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	return conn
}

func TestNewConnection_UnsupportedEngine(t *testing.T) {
	cfg := core.ConnectionConfig{Type: "oracle", Database: "erp"}
	_, err := NewConnection("erp", cfg, nil)
	require.Error(t, err)

	var unsupported *dialect.UnsupportedEngineError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "oracle", unsupported.Type)
	assert.NotEmpty(t, unsupported.Supported)
}

func TestExecuteQuery_RetriesOnConnectionError(t *testing.T) {
	const query = "SELECT id FROM orders"

	db1, mock1 := newMock(t)
	mock1.ExpectQuery(query).WillReturnError(errConnDropped)
	mock1.ExpectClose()

	db2, mock2 := newMock(t)
	mock2.ExpectQuery(query).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	q := &handleQueue{handles: []*sql.DB{db1, db2}}
	registerTestDialect("mock_retry", q)
	conn := newTestConnection(t, "mock_retry")

	rows, err := conn.ExecuteQuery(context.Background(), query, nil, 0, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(42), rows[0].Get("id").Int())

	// Exactly one reconnect: two opens in total.
	assert.Equal(t, 2, q.openCount())
	assert.NoError(t, mock1.ExpectationsWereMet())
	assert.NoError(t, mock2.ExpectationsWereMet())
}

func TestExecuteQuery_NonConnectionErrorNeverRetries(t *testing.T) {
	const query = "SELECT nope FROM orders"
	errSyntax := errors.New("column \"nope\" does not exist")

	db1, mock1 := newMock(t)
	mock1.ExpectQuery(query).WillReturnError(errSyntax)

	q := &handleQueue{handles: []*sql.DB{db1}}
	registerTestDialect("mock_noretry", q)
	conn := newTestConnection(t, "mock_noretry")

	_, err := conn.ExecuteQuery(context.Background(), query, nil, 0, 2)
	require.Error(t, err)
	// The original error reaches the caller unchanged.
	assert.ErrorIs(t, err, errSyntax)
	assert.Equal(t, 1, q.openCount())
}

func TestExecuteQuery_RetriesExhausted(t *testing.T) {
	const query = "SELECT 1"

	db1, mock1 := newMock(t)
	mock1.ExpectQuery(query).WillReturnError(errConnDropped)
	mock1.ExpectClose()
	db2, mock2 := newMock(t)
	mock2.ExpectQuery(query).WillReturnError(errConnDropped)
	mock2.ExpectClose()
	db3, mock3 := newMock(t)
	mock3.ExpectQuery(query).WillReturnError(errConnDropped)

	q := &handleQueue{handles: []*sql.DB{db1, db2, db3}}
	registerTestDialect("mock_exhaust", q)
	conn := newTestConnection(t, "mock_exhaust")

	_, err := conn.ExecuteQuery(context.Background(), query, nil, 0, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, errConnDropped)
	assert.Equal(t, 3, q.openCount())
	assert.NoError(t, mock1.ExpectationsWereMet())
	assert.NoError(t, mock2.ExpectationsWereMet())
	assert.NoError(t, mock3.ExpectationsWereMet())
}

func TestExecuteQuery_ZeroRetriesSingleAttempt(t *testing.T) {
	const query = "SELECT 1"

	db1, mock1 := newMock(t)
	mock1.ExpectQuery(query).WillReturnError(errConnDropped)

	q := &handleQueue{handles: []*sql.DB{db1}}
	registerTestDialect("mock_zeroretry", q)
	conn := newTestConnection(t, "mock_zeroretry")

	_, err := conn.ExecuteQuery(context.Background(), query, nil, 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errConnDropped)
	assert.Equal(t, 1, q.openCount())
}

func TestExecuteQuery_MaxRowsNeverOverfetches(t *testing.T) {
	const query = "SELECT id FROM orders"

	rows := sqlmock.NewRows([]string{"id"})
	for i := 1; i <= 5; i++ {
		rows.AddRow(int64(i))
	}

	db1, mock1 := newMock(t)
	mock1.ExpectQuery(query).WillReturnRows(rows)

	q := &handleQueue{handles: []*sql.DB{db1}}
	registerTestDialect("mock_maxrows", q)
	conn := newTestConnection(t, "mock_maxrows")

	got, err := conn.ExecuteQuery(context.Background(), query, nil, 3, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].Get("id").Int())
	assert.Equal(t, int64(3), got[2].Get("id").Int())
}

func TestExecuteQuery_DefaultMaxRowsFromConfig(t *testing.T) {
	const query = "SELECT id FROM orders"

	rows := sqlmock.NewRows([]string{"id"})
	for i := 1; i <= 4; i++ {
		rows.AddRow(int64(i))
	}

	db1, mock1 := newMock(t)
	mock1.ExpectQuery(query).WillReturnRows(rows)

	q := &handleQueue{handles: []*sql.DB{db1}}
	registerTestDialect("mock_cfgrows", q)

	cfg := core.ConnectionConfig{
		Type:     "mock_cfgrows",
		Database: "erp",
		Settings: core.Settings{MaxRows: 2},
	}
	conn, err := NewConnection("erp", cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)

	got, err := conn.ExecuteQuery(context.Background(), query, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestExecuteScalar(t *testing.T) {
	const query = "SELECT COUNT(*) FROM orders"

	t.Run("returns first column of first row", func(t *testing.T) {
		db1, mock1 := newMock(t)
		mock1.ExpectQuery(query).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

		q := &handleQueue{handles: []*sql.DB{db1}}
		registerTestDialect("mock_scalar", q)
		conn := newTestConnection(t, "mock_scalar")

		val, err := conn.ExecuteScalar(context.Background(), query, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(7), val.Int())
	})

	t.Run("null sentinel when no rows", func(t *testing.T) {
		db1, mock1 := newMock(t)
		mock1.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"count"}))

		q := &handleQueue{handles: []*sql.DB{db1}}
		registerTestDialect("mock_scalar_empty", q)
		conn := newTestConnection(t, "mock_scalar_empty")

		val, err := conn.ExecuteScalar(context.Background(), query, nil, 0)
		require.NoError(t, err)
		assert.True(t, val.IsNull())
	})

	t.Run("retries on connection error", func(t *testing.T) {
		db1, mock1 := newMock(t)
		mock1.ExpectQuery(query).WillReturnError(errConnDropped)
		mock1.ExpectClose()
		db2, mock2 := newMock(t)
		mock2.ExpectQuery(query).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

		q := &handleQueue{handles: []*sql.DB{db1, db2}}
		registerTestDialect("mock_scalar_retry", q)
		conn := newTestConnection(t, "mock_scalar_retry")

		val, err := conn.ExecuteScalar(context.Background(), query, nil, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), val.Int())
		assert.Equal(t, 2, q.openCount())
	})
}

func TestConnect_ProbesBeforeReuse(t *testing.T) {
	db1, mock1 := newMock(t)
	// Second Connect finds a handle and probes it.
	mock1.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))

	q := &handleQueue{handles: []*sql.DB{db1}}
	registerTestDialect("mock_probe_ok", q)
	conn := newTestConnection(t, "mock_probe_ok")

	require.NoError(t, conn.Connect(context.Background()))
	assert.True(t, conn.Connected())
	require.NoError(t, conn.Connect(context.Background()))

	assert.Equal(t, 1, q.openCount())
	assert.NoError(t, mock1.ExpectationsWereMet())
}

func TestConnect_ReopensOnFailedProbe(t *testing.T) {
	db1, mock1 := newMock(t)
	mock1.ExpectQuery("SELECT 1").WillReturnError(errConnDropped)
	mock1.ExpectClose()

	db2, mock2 := newMock(t)

	q := &handleQueue{handles: []*sql.DB{db1, db2}}
	registerTestDialect("mock_probe_dead", q)
	conn := newTestConnection(t, "mock_probe_dead")

	require.NoError(t, conn.Connect(context.Background()))
	require.NoError(t, conn.Connect(context.Background()))

	assert.Equal(t, 2, q.openCount())
	assert.NoError(t, mock1.ExpectationsWereMet())
	_ = mock2
}

func TestReconnect_AlwaysReplacesHandle(t *testing.T) {
	db1, mock1 := newMock(t)
	mock1.ExpectClose()
	db2, _ := newMock(t)

	q := &handleQueue{handles: []*sql.DB{db1, db2}}
	registerTestDialect("mock_force", q)
	conn := newTestConnection(t, "mock_force")

	require.NoError(t, conn.Connect(context.Background()))
	require.NoError(t, conn.Reconnect(context.Background()))

	assert.Equal(t, 2, q.openCount())
	assert.NoError(t, mock1.ExpectationsWereMet())
}

func TestDisconnect_SwallowsCloseErrors(t *testing.T) {
	db1, mock1 := newMock(t)
	mock1.ExpectClose().WillReturnError(fmt.Errorf("close failed"))

	q := &handleQueue{handles: []*sql.DB{db1}}
	registerTestDialect("mock_badclose", q)
	conn := newTestConnection(t, "mock_badclose")

	require.NoError(t, conn.Connect(context.Background()))
	conn.Disconnect()
	assert.False(t, conn.Connected())
}

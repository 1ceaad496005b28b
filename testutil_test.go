package record

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "username", "password_digest"}

// newMockRegistry returns a registry over a sqlmock connection that matches
// statements exactly.
func newMockRegistry(t *testing.T) (*Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRegistry(NewSQLGateway(db, DialectSQLite)), mock
}

func expectUserSchema(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT * FROM users LIMIT 0").
		WillReturnRows(sqlmock.NewRows(userColumns))
}

// stubGateway serves a fixed schema and counts introspection calls.
type stubGateway struct {
	tables  map[string][]string
	delay   time.Duration
	calls   atomic.Int64
	dialect string

	mu      sync.Mutex
	queries []string
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		tables:  map[string][]string{"users": userColumns},
		dialect: DialectSQLite,
	}
}

func (g *stubGateway) Columns(ctx context.Context, query string) ([]string, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields := strings.Fields(query)
	table := fields[len(fields)-3]
	columns, ok := g.tables[table]
	if !ok {
		return nil, errors.New("no such table: " + table)
	}
	return columns, nil
}

func (g *stubGateway) Query(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, query)
	return nil, nil
}

func (g *stubGateway) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, query)
	return RowsAffectedResult(1), nil
}

func (g *stubGateway) Dialect() string               { return g.dialect }
func (g *stubGateway) Ping(ctx context.Context) error { return nil }
func (g *stubGateway) Close() error                   { return nil }

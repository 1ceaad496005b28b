package record

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

// =====================================
// Store Gateway
// =====================================

// Row is one result row, with values in the order the store returned the columns.
type Row []interface{}

// Gateway is the store the mapper talks to. It executes parameterized statements,
// returns rows, and reports the identity assigned by the last insert through the
// Result of that same statement.
type Gateway interface {
	// Columns runs query and returns only the column names of its result set.
	// Used once per model for schema introspection.
	Columns(ctx context.Context, query string) ([]string, error)

	// Query runs a statement that returns rows.
	Query(ctx context.Context, query string, args ...interface{}) ([]Row, error)

	// Exec runs a statement that does not return rows.
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)

	// Dialect returns one of the Dialect constants.
	Dialect() string

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}

// Result represents the result of a statement that doesn't return data.
// Similar to sql.Result in the standard library.
type Result interface {
	// LastInsertId returns the identity generated by the statement.
	LastInsertId() (int64, error)

	// RowsAffected returns the number of rows changed by the statement.
	RowsAffected() (int64, error)
}

// SQLConn is the subset of *sql.DB used by SQLGateway. *bun.DB satisfies it as well.
type SQLConn interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PingContext(ctx context.Context) error
	Close() error
}

// SQLGateway implements Gateway on top of a database/sql style connection.
// Statements arrive with "?" placeholders and are rewritten to the connection's
// placeholder format before they are sent.
type SQLGateway struct {
	conn        SQLConn
	dialect     string
	placeholder sq.PlaceholderFormat
}

// SQLGatewayOption configures a SQLGateway
type SQLGatewayOption func(*SQLGateway)

// WithPlaceholder overrides the placeholder format chosen from the dialect.
// Connections that rebind "?" themselves, such as bun and gorm, pass sq.Question.
func WithPlaceholder(format sq.PlaceholderFormat) SQLGatewayOption {
	return func(g *SQLGateway) {
		if format != nil {
			g.placeholder = format
		}
	}
}

// NewSQLGateway creates a gateway that runs statements on conn. Placeholders
// default to $1 for pgsql, @p1 for mssql and ? otherwise.
func NewSQLGateway(conn SQLConn, dialect string, opts ...SQLGatewayOption) *SQLGateway {
	g := &SQLGateway{
		conn:        conn,
		dialect:     dialect,
		placeholder: PlaceholderFormat(dialect),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PlaceholderFormat returns the native bind parameter format of dialect
func PlaceholderFormat(dialect string) sq.PlaceholderFormat {
	switch dialect {
	case DialectPgSQL:
		return sq.Dollar
	case DialectMsSQL:
		return sq.AtP
	default:
		return sq.Question
	}
}

// Conn returns the wrapped connection.
func (g *SQLGateway) Conn() SQLConn {
	return g.conn
}

// Columns implements Gateway.
func (g *SQLGateway) Columns(ctx context.Context, query string) ([]string, error) {
	rows, err := g.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, ConvertError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, ConvertError(err)
	}
	return columns, nil
}

// Query implements Gateway.
func (g *SQLGateway) Query(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	query, err := g.rebind(query)
	if err != nil {
		return nil, err
	}
	rows, err := g.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ConvertError(err)
	}
	defer rows.Close()

	result, err := ScanRows(rows)
	if err != nil {
		return nil, ConvertError(err)
	}
	return result, nil
}

// Exec implements Gateway.
func (g *SQLGateway) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	query, err := g.rebind(query)
	if err != nil {
		return nil, err
	}
	res, err := g.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, ConvertError(err)
	}
	return res, nil
}

func (g *SQLGateway) rebind(query string) (string, error) {
	rebound, err := g.placeholder.ReplacePlaceholders(query)
	if err != nil {
		return "", NewErrorWithCause(ErrorTypeInvalidArgument, "cannot rebind placeholders", err)
	}
	return rebound, nil
}

// Dialect implements Gateway.
func (g *SQLGateway) Dialect() string {
	return g.dialect
}

// Ping implements Gateway.
func (g *SQLGateway) Ping(ctx context.Context) error {
	return ConvertError(g.conn.PingContext(ctx))
}

// Close implements Gateway.
func (g *SQLGateway) Close() error {
	return g.conn.Close()
}

// ScanRows reads every remaining row of rows. Byte slices are returned as strings
// since most drivers hand text columns back as []byte.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result = append(result, Row(values))
	}
	return result, rows.Err()
}

// rowsAffectedResult is a Result for stores that do not report an inserted id.
type rowsAffectedResult int64

// RowsAffectedResult returns a Result reporting n affected rows and no identity.
func RowsAffectedResult(n int64) Result {
	return rowsAffectedResult(n)
}

func (r rowsAffectedResult) LastInsertId() (int64, error) {
	return 0, NewError(ErrorTypeUnsupported, "last insert id is not reported by this gateway")
}

func (r rowsAffectedResult) RowsAffected() (int64, error) {
	return int64(r), nil
}

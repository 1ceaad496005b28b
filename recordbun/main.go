// Package recordbun provides a Bun gateway for record
package recordbun

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lemmego/record"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// =====================================
// Gateway Implementation
// =====================================

// Gateway implements record.Gateway using Bun. Statements go through
// bun.DB.QueryContext and ExecContext, so Bun formats the "?" placeholders for
// the connected dialect and query hooks see every statement.
type Gateway struct {
	*record.SQLGateway
	db *bun.DB
}

// NewGateway wraps an existing Bun database
func NewGateway(db *bun.DB) *Gateway {
	return &Gateway{
		SQLGateway: record.NewSQLGateway(db, dialectOf(db), record.WithPlaceholder(sq.Question)),
		db:         db,
	}
}

// DB returns the underlying Bun database
func (g *Gateway) DB() *bun.DB {
	return g.db
}

// Factory implements record.GatewayFactory
type Factory struct{}

// Create creates a new Bun gateway
func (f *Factory) Create(config record.Config) (record.Gateway, error) {
	var sqlDB *sql.DB
	var err error

	switch strings.ToLower(config.Driver) {
	case "postgres", "postgresql":
		sqlDB, err = createPostgresConnection(config)
	case "pg":
		sqlDB, err = createPgDriverConnection(config)
	case "pgx":
		sqlDB, err = createPgxConnection(config)
	case "mysql":
		sqlDB, err = createMySQLConnection(config)
	case "sqlite", "sqlite3":
		sqlDB, err = createSQLiteConnection(config)
	default:
		return nil, record.Error{
			Type:    record.ErrorTypeUnsupported,
			Message: fmt.Sprintf("unsupported driver: %s", config.Driver),
		}
	}

	if err != nil {
		return nil, record.Error{
			Type:    record.ErrorTypeConnection,
			Message: "failed to connect to database",
			Cause:   err,
		}
	}

	// Configure connection pool
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}
	if config.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}

	var bunDB *bun.DB
	switch record.DialectForDriver(config.Driver) {
	case record.DialectPgSQL:
		bunDB = bun.NewDB(sqlDB, pgdialect.New())
	case record.DialectMySQL:
		bunDB = bun.NewDB(sqlDB, mysqldialect.New())
	default:
		bunDB = bun.NewDB(sqlDB, sqlitedialect.New())
	}

	// Add query hook for logging if enabled
	if logLevel, ok := config.AdapterOption("bun", "log_level").(string); ok && logLevel != "silent" {
		bunDB.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(logLevel == "debug"),
		))
	}

	return NewGateway(bunDB), nil
}

// SupportedDrivers returns the list of supported database drivers
func (f *Factory) SupportedDrivers() []string {
	return []string{"postgres", "postgresql", "pg", "pgx", "mysql", "sqlite", "sqlite3"}
}

// =====================================
// Connection Helpers
// =====================================

func dialectOf(db *bun.DB) string {
	switch db.Dialect().Name() {
	case dialect.PG:
		return record.DialectPgSQL
	case dialect.MySQL:
		return record.DialectMySQL
	case dialect.MSSQL:
		return record.DialectMsSQL
	default:
		return record.DialectSQLite
	}
}

// createPostgresConnection creates a PostgreSQL connection through lib/pq
func createPostgresConnection(config record.Config) (*sql.DB, error) {
	return sql.Open("postgres", buildPostgresDSN(config))
}

// createPgDriverConnection creates a PostgreSQL connection using pgdriver
func createPgDriverConnection(config record.Config) (*sql.DB, error) {
	connector := pgdriver.NewConnector(pgdriver.WithDSN(buildPostgresDSN(config)))
	return sql.OpenDB(connector), nil
}

// createPgxConnection creates a PostgreSQL connection through pgx's database/sql driver
func createPgxConnection(config record.Config) (*sql.DB, error) {
	return sql.Open("pgx", buildPostgresDSN(config))
}

// createMySQLConnection creates a MySQL connection
func createMySQLConnection(config record.Config) (*sql.DB, error) {
	if config.ConnectionURL != "" {
		return sql.Open("mysql", config.ConnectionURL)
	}

	mysqlConfig := mysql.NewConfig()
	mysqlConfig.User = config.Username
	mysqlConfig.Passwd = config.Password
	mysqlConfig.Net = "tcp"
	mysqlConfig.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
	mysqlConfig.DBName = config.Database
	mysqlConfig.ParseTime = true
	if config.SSL.Enabled {
		mysqlConfig.TLSConfig = config.SSL.Mode
	}

	return sql.Open("mysql", mysqlConfig.FormatDSN())
}

// createSQLiteConnection creates a SQLite connection
func createSQLiteConnection(config record.Config) (*sql.DB, error) {
	if config.ConnectionURL != "" {
		return sql.Open("sqlite3", config.ConnectionURL)
	}
	return sql.Open("sqlite3", config.Database)
}

// buildPostgresDSN builds a PostgreSQL DSN string
func buildPostgresDSN(config record.Config) string {
	if config.ConnectionURL != "" {
		return config.ConnectionURL
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		config.Username, config.Password, config.Host, config.Port, config.Database)

	params := []string{}
	if config.SSL.Enabled {
		params = append(params, "sslmode="+config.SSL.Mode)
		if config.SSL.CertFile != "" {
			params = append(params, "sslcert="+config.SSL.CertFile)
		}
		if config.SSL.KeyFile != "" {
			params = append(params, "sslkey="+config.SSL.KeyFile)
		}
		if config.SSL.CAFile != "" {
			params = append(params, "sslrootcert="+config.SSL.CAFile)
		}
	} else {
		params = append(params, "sslmode=disable")
	}

	return dsn + "?" + strings.Join(params, "&")
}

// =====================================
// Registration
// =====================================

// init registers the Bun gateway factory
func init() {
	record.RegisterGateway("bun", &Factory{})
}

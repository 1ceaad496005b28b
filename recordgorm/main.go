// Package recordgorm provides a GORM gateway for record
package recordgorm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lemmego/record"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// =====================================
// Gateway Implementation
// =====================================

// Gateway implements record.Gateway using GORM. Queries go through gorm's Raw so
// "?" placeholders are rewritten for postgres and sqlserver.
type Gateway struct {
	*record.SQLGateway
	db *gorm.DB
}

// NewGateway wraps an open GORM database
func NewGateway(db *gorm.DB) (*Gateway, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, record.Error{
			Type:    record.ErrorTypeConnection,
			Message: "failed to get underlying sql.DB",
			Cause:   err,
		}
	}

	dialect := record.DialectForDriver(db.Dialector.Name())
	if dialect == "" {
		return nil, record.Error{
			Type:    record.ErrorTypeUnsupported,
			Message: fmt.Sprintf("unsupported dialector: %s", db.Dialector.Name()),
		}
	}

	c := &conn{
		db:    db,
		sqlDB: sqlDB,
		// sqlite and mysql bind "?" natively and report LastInsertId
		nativeBind: dialect == record.DialectSQLite || dialect == record.DialectMySQL,
	}
	return &Gateway{
		SQLGateway: record.NewSQLGateway(c, dialect, record.WithPlaceholder(sq.Question)),
		db:         db,
	}, nil
}

// DB returns the underlying GORM database
func (g *Gateway) DB() *gorm.DB {
	return g.db
}

// conn adapts *gorm.DB to record.SQLConn
type conn struct {
	db         *gorm.DB
	sqlDB      *sql.DB
	nativeBind bool
}

func (c *conn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.WithContext(ctx).Raw(query, args...).Rows()
}

// ExecContext goes straight to the pool where the driver understands "?", since
// gorm's Exec does not expose the statement's sql.Result.
func (c *conn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if c.nativeBind {
		return c.sqlDB.ExecContext(ctx, query, args...)
	}
	tx := c.db.WithContext(ctx).Exec(query, args...)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return record.RowsAffectedResult(tx.RowsAffected), nil
}

func (c *conn) PingContext(ctx context.Context) error {
	return c.sqlDB.PingContext(ctx)
}

func (c *conn) Close() error {
	return c.sqlDB.Close()
}

// Factory implements record.GatewayFactory
type Factory struct{}

// Create creates a new GORM gateway
func (f *Factory) Create(config record.Config) (record.Gateway, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	// Apply custom configurations from options
	if logLevel, ok := config.AdapterOption("gorm", "log_level").(string); ok {
		switch logLevel {
		case "silent":
			gormConfig.Logger = logger.Default.LogMode(logger.Silent)
		case "error":
			gormConfig.Logger = logger.Default.LogMode(logger.Error)
		case "warn":
			gormConfig.Logger = logger.Default.LogMode(logger.Warn)
		case "info":
			gormConfig.Logger = logger.Default.LogMode(logger.Info)
		}
	}

	var dialector gorm.Dialector
	switch strings.ToLower(config.Driver) {
	case "postgres", "postgresql":
		dialector = postgres.Open(buildPostgresDSN(config))
	case "mysql":
		dialector = mysql.Open(buildMySQLDSN(config))
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(buildSQLiteDSN(config))
	case "sqlserver", "mssql":
		dialector = sqlserver.Open(buildSQLServerDSN(config))
	default:
		return nil, record.Error{
			Type:    record.ErrorTypeUnsupported,
			Message: fmt.Sprintf("unsupported driver: %s", config.Driver),
		}
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, record.Error{
			Type:    record.ErrorTypeConnection,
			Message: "failed to connect to database",
			Cause:   err,
		}
	}

	gateway, err := NewGateway(db)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB := gateway.Conn().(*conn).sqlDB
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

	return gateway, nil
}

// SupportedDrivers returns the list of supported database drivers
func (f *Factory) SupportedDrivers() []string {
	return []string{"postgres", "postgresql", "mysql", "sqlite", "sqlite3", "sqlserver", "mssql"}
}

// =====================================
// DSN Builders
// =====================================

// buildPostgresDSN builds a PostgreSQL DSN
func buildPostgresDSN(config record.Config) string {
	if config.ConnectionURL != "" {
		return config.ConnectionURL
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		config.Host, config.Port, config.Username, config.Password, config.Database)

	if config.SSL.Enabled {
		dsn += " sslmode=" + config.SSL.Mode
		if config.SSL.CertFile != "" {
			dsn += " sslcert=" + config.SSL.CertFile
		}
		if config.SSL.KeyFile != "" {
			dsn += " sslkey=" + config.SSL.KeyFile
		}
		if config.SSL.CAFile != "" {
			dsn += " sslrootcert=" + config.SSL.CAFile
		}
	} else {
		dsn += " sslmode=disable"
	}

	return dsn
}

// buildMySQLDSN builds a MySQL DSN
func buildMySQLDSN(config record.Config) string {
	if config.ConnectionURL != "" {
		return config.ConnectionURL
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.Username, config.Password, config.Host, config.Port, config.Database)

	if config.SSL.Enabled {
		dsn += "&tls=" + config.SSL.Mode
	}

	return dsn
}

// buildSQLiteDSN returns the sqlite file name
func buildSQLiteDSN(config record.Config) string {
	if config.ConnectionURL != "" {
		return config.ConnectionURL
	}
	return config.Database
}

// buildSQLServerDSN builds a SQL Server DSN
func buildSQLServerDSN(config record.Config) string {
	if config.ConnectionURL != "" {
		return config.ConnectionURL
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		config.Username, config.Password, config.Host, config.Port, config.Database)
}

// =====================================
// Registration
// =====================================

// init registers the GORM gateway factory
func init() {
	record.RegisterGateway("gorm", &Factory{})
}

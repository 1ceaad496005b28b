package record

import "strings"

// Dialect constants
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
	DialectPgSQL  = "pgsql"
	DialectMsSQL  = "mssql"
)

// SupportedDialects is a list of all supported database dialects
var SupportedDialects = []string{
	DialectSQLite,
	DialectMySQL,
	DialectPgSQL,
	DialectMsSQL,
}

// IsDialectSupported checks if the given dialect is supported
func IsDialectSupported(dialect string) bool {
	for _, d := range SupportedDialects {
		if d == dialect {
			return true
		}
	}
	return false
}

// DialectForDriver maps a driver name as written in Config.Driver to a dialect.
// It returns an empty string for unknown drivers.
func DialectForDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return DialectSQLite
	case "mysql":
		return DialectMySQL
	case "postgres", "postgresql", "pg", "pgx", "pgsql":
		return DialectPgSQL
	case "sqlserver", "mssql":
		return DialectMsSQL
	}
	return ""
}

// returnsInsertedID reports whether inserts on the dialect hand the new identity
// back as a result row instead of through LastInsertId.
func returnsInsertedID(dialect string) bool {
	return dialect == DialectPgSQL || dialect == DialectMsSQL
}

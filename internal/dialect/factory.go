package dialect

import (
	"fmt"
	"strings"
)

// GetDialect returns the Dialect implementation for a driver name.
func GetDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		return &PostgresDialect{}, nil
	case "pgx":
		return &PostgresDialect{driver: "pgx"}, nil
	case "sqlserver", "mssql":
		return &MSSQLDialect{}, nil
	case "mysql":
		return &MysqlDialect{}, nil
	case "oracle":
		return &OracleDialect{}, nil
	case "sqlite", "sqlite3":
		return &SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
var _ Dialect = (*SQLiteDialect)(nil)
var _ UUIDDecoder = (*MSSQLDialect)(nil)

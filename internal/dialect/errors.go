package dialect

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
)

// IsPermissionDenied reports whether err is a driver error for missing
// privileges.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42501"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42501"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1142, 1143, 1227:
			return true
		}
		return false
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == 229 || msErr.Number == 230
	}
	return false
}

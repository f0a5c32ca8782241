package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"db-move/internal/dbconn"
	"db-move/internal/dialect"
	"db-move/internal/migerr"
	"db-move/internal/schema"
)

// side is one end of a run: a pool for read-only fan-out plus the pinned
// connection every session-scoped statement goes through.
type side struct {
	name   string
	cfg    dbconn.Config
	db     *sql.DB
	conn   *sql.Conn
	d      dialect.Dialect
	schema string
}

func openSide(ctx context.Context, name string, cfg dbconn.Config) (*side, error) {
	db, d, err := dbconn.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, migerr.New(migerr.Connection, "", "pin connection", fmt.Errorf("%s: %w", name, err))
	}

	s := &side{name: name, cfg: cfg, db: db, conn: conn, d: d}
	if s.schema, err = resolveSchema(ctx, conn, d, cfg); err != nil {
		s.close()
		return nil, migerr.New(migerr.Connection, "", "resolve schema", fmt.Errorf("%s: %w", name, err))
	}
	return s, nil
}

// resolveSchema falls back to asking the server when neither the config nor
// the engine default names one, as with a MySQL DSN that omits the database.
func resolveSchema(ctx context.Context, q dialect.Queryer, d dialect.Dialect, cfg dbconn.Config) (string, error) {
	if s := cfg.SchemaOrDefault(d); s != "" {
		return s, nil
	}
	if d.Name() != "mysql" {
		return "", errors.New("no schema configured")
	}
	var name sql.NullString
	if err := q.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
		return "", err
	}
	if !name.Valid || name.String == "" {
		return "", errors.New("no database selected")
	}
	return name.String, nil
}

func (s *side) close() {
	if s.conn != nil {
		s.conn.Close()
	}
	s.db.Close()
}

// catalog reads over the pinned connection.
func (s *side) catalog() *schema.Catalog { return schema.NewCatalog(s.conn, s.d, s.schema) }

// poolCatalog reads over the pool, for concurrent use.
func (s *side) poolCatalog() *schema.Catalog { return schema.NewCatalog(s.db, s.d, s.schema) }

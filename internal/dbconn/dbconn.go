// Package dbconn turns connection parameters into validated driver DSNs and
// opens verified database handles.
package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"db-move/internal/dialect"
	"db-move/internal/migerr"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	go_ora "github.com/sijms/go-ora/v2"
)

const masked = "****"

// Config holds the connection parameters of one side of a migration.
// DSN, when set, takes precedence over the individual fields.
type Config struct {
	Driver   string            `mapstructure:"driver"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Database string            `mapstructure:"database"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Schema   string            `mapstructure:"schema"`
	SSLMode  string            `mapstructure:"sslmode"`
	Params   map[string]string `mapstructure:"params"`
}

var defaultPorts = map[string]int{
	"postgres":  5432,
	"mysql":     3306,
	"sqlserver": 1433,
	"oracle":    1521,
}

// Dialect resolves the configured driver.
func (c Config) Dialect() (dialect.Dialect, error) {
	if strings.TrimSpace(c.Driver) == "" {
		return nil, errors.New("driver is required")
	}
	return dialect.GetDialect(c.Driver)
}

// Validate checks the parameters before any network access.
func (c Config) Validate() error {
	d, err := c.Dialect()
	if err != nil {
		return err
	}

	if c.DSN != "" {
		return validateDSN(d.Name(), c.DSN)
	}

	if strings.TrimSpace(c.Database) == "" {
		if d.Name() == "sqlite" {
			return errors.New("database (file path) is required")
		}
		return errors.New("database is required")
	}
	if d.Name() == "sqlite" {
		return nil
	}

	host := strings.TrimSpace(c.Host)
	switch {
	case host == "":
		return errors.New("host is required")
	case strings.ContainsAny(host, " /@?#"):
		return fmt.Errorf("host %q is not a valid hostname", c.Host)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if strings.TrimSpace(c.User) == "" {
		return errors.New("user is required")
	}
	return nil
}

func validateDSN(name, dsn string) error {
	switch name {
	case "postgres":
		if _, err := pgconn.ParseConfig(dsn); err != nil {
			return fmt.Errorf("invalid postgres dsn: %w", err)
		}
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return fmt.Errorf("invalid mysql dsn: %w", err)
		}
		if cfg.DBName == "" {
			return errors.New("invalid mysql dsn: no database selected")
		}
	case "sqlserver", "oracle":
		if !strings.Contains(dsn, "://") {
			return nil
		}
		u, err := url.Parse(dsn)
		if err != nil {
			return fmt.Errorf("invalid %s dsn: %w", name, err)
		}
		if u.Hostname() == "" {
			return fmt.Errorf("invalid %s dsn: host is missing", name)
		}
	}
	return nil
}

func (c Config) port(name string) int {
	if c.Port != 0 {
		return c.Port
	}
	return defaultPorts[name]
}

// DSNString builds the driver-specific data source name.
func (c Config) DSNString() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	d, err := c.Dialect()
	if err != nil {
		return "", err
	}
	return c.build(d.Name(), c.Password), nil
}

func (c Config) build(name, password string) string {
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.port(name)))

	switch name {
	case "postgres":
		q := url.Values{}
		sslmode := c.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		q.Set("sslmode", sslmode)
		for k, v := range c.Params {
			q.Set(k, v)
		}
		u := url.URL{Scheme: "postgres", User: url.UserPassword(c.User, password), Host: addr, Path: "/" + c.Database, RawQuery: q.Encode()}
		return u.String()

	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = password
		cfg.Net = "tcp"
		cfg.Addr = addr
		cfg.DBName = c.Database
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		if len(c.Params) > 0 {
			cfg.Params = c.Params
		}
		return cfg.FormatDSN()

	case "sqlserver":
		q := url.Values{}
		q.Set("database", c.Database)
		for k, v := range c.Params {
			q.Set(k, v)
		}
		u := url.URL{Scheme: "sqlserver", User: url.UserPassword(c.User, password), Host: addr, RawQuery: q.Encode()}
		return u.String()

	case "oracle":
		return go_ora.BuildUrl(c.Host, c.port(name), c.Database, c.User, password, c.Params)

	case "sqlite":
		if len(c.Params) == 0 {
			return c.Database
		}
		q := url.Values{}
		for k, v := range c.Params {
			q.Set(k, v)
		}
		return "file:" + c.Database + "?" + q.Encode()
	}
	return ""
}

var (
	kvPasswordRe    = regexp.MustCompile(`(?i)\b(password|pwd)=([^;&\s]+)`)
	mysqlPasswordRe = regexp.MustCompile(`^([^:/@]+):([^@]*)@`)
)

// Masked renders the DSN with the password hidden, for logs.
func (c Config) Masked() string {
	if c.DSN == "" {
		d, err := c.Dialect()
		if err != nil {
			return ""
		}
		if c.Password == "" {
			return c.build(d.Name(), "")
		}
		return c.build(d.Name(), masked)
	}

	if u, err := url.Parse(c.DSN); err == nil && u.User != nil && u.Scheme != "" {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), masked)
		}
		return u.String()
	}
	s := kvPasswordRe.ReplaceAllString(c.DSN, "${1}="+masked)
	return mysqlPasswordRe.ReplaceAllString(s, "${1}:"+masked+"@")
}

// SchemaOrDefault returns the configured schema or the engine default.
func (c Config) SchemaOrDefault(d dialect.Dialect) string {
	if c.Schema != "" {
		return c.Schema
	}
	return d.DefaultSchema(c.Database, c.User)
}

// Open validates c, opens a handle and pings it. Failures are ConnectionErrors.
func Open(ctx context.Context, c Config) (*sql.DB, dialect.Dialect, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, migerr.New(migerr.Connection, "", "validate", err)
	}
	d, err := c.Dialect()
	if err != nil {
		return nil, nil, migerr.New(migerr.Connection, "", "validate", err)
	}
	dsn, err := c.DSNString()
	if err != nil {
		return nil, nil, migerr.New(migerr.Connection, "", "validate", err)
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, nil, migerr.New(migerr.Connection, "", "open", fmt.Errorf("%s: %w", c.Masked(), err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, migerr.New(migerr.Connection, "", "ping", fmt.Errorf("%s: %w", c.Masked(), err))
	}
	return db, d, nil
}

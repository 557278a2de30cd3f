package store

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"robot-explorer/api/internal/explore"
)

// Backend is a snapshot store the command can health-check and close.
type Backend interface {
	explore.Store
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*Postgres)(nil)
	_ Backend = (*SQLite)(nil)
	_ Backend = (*Memory)(nil)
)

// Open picks a backend by kind: postgres, sqlite or memory.
func Open(ctx context.Context, kind, dsn, sqlitePath string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "postgres", "pg":
		if dsn == "" {
			return nil, fmt.Errorf("store: postgres DSN is empty: set DATABASE_URL or POSTGRES_* env vars")
		}
		return OpenPostgres(ctx, dsn)
	case "sqlite", "":
		return OpenSQLite(sqlitePath)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown kind %q; use postgres | sqlite | memory", kind)
	}
}

// SafeDSNSummary describes a DSN for logs without the password.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}

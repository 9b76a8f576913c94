package dbprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const (
	clickhouseDialTimeout = 3 * time.Second
	defaultClickHouseName = "default"
	listTablesQuery       = `SELECT name FROM system.tables WHERE database = ? ORDER BY name LIMIT 10`
)

type clickhouseHandle struct {
	conn driver.Conn
	name string
}

// openClickHouse parses the DSN and opens a pool. The native driver dials
// lazily, so an unreachable server surfaces on the first listing.
func openClickHouse(_ context.Context, dsn, name string) (Handle, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	if opts.DialTimeout == 0 || opts.DialTimeout > clickhouseDialTimeout {
		opts.DialTimeout = clickhouseDialTimeout
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	switch {
	case name != "":
	case opts.Auth.Database != "":
		name = opts.Auth.Database
	default:
		name = defaultClickHouseName
	}
	return &clickhouseHandle{conn: conn, name: name}, nil
}

func (h *clickhouseHandle) Available() bool { return h != nil && h.conn != nil }

func (h *clickhouseHandle) Name() string { return h.name }

func (h *clickhouseHandle) ListCollectionNames(ctx context.Context) ([]string, error) {
	rows, err := h.conn.Query(ctx, listTablesQuery, h.name)
	if err != nil {
		return nil, fmt.Errorf("list clickhouse tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan clickhouse table name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clickhouse tables: %w", err)
	}
	return names, nil
}

func (h *clickhouseHandle) Close() error {
	return h.conn.Close()
}

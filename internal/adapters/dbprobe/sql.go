package dbprobe

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSQLiteName = "main"

// sqlHandle lists tables through gorm's migrator, which works across the
// SQL dialects gorm supports.
type sqlHandle struct {
	db   *gorm.DB
	name string
}

// openSQLite opens dsn read-only. A missing file fails the ping instead of
// being created.
func openSQLite(_ context.Context, dsn, name string) (Handle, error) {
	db, err := gorm.Open(sqlite.Open(readOnlyDSN(dsn)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if name == "" {
		name = defaultSQLiteName
	}
	return NewSQLHandle(db, name), nil
}

// readOnlyDSN rewrites a path or file: URI into a URI with mode=ro. Any mode
// already present is replaced.
func readOnlyDSN(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	base, rawQuery, _ := strings.Cut(dsn, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		q = url.Values{}
	}
	q.Set("mode", "ro")
	return base + "?" + q.Encode()
}

// NewSQLHandle wraps an already opened gorm connection.
func NewSQLHandle(db *gorm.DB, name string) Handle {
	return &sqlHandle{db: db, name: name}
}

func (h *sqlHandle) Available() bool { return h != nil && h.db != nil }

func (h *sqlHandle) Name() string { return h.name }

func (h *sqlHandle) ListCollectionNames(ctx context.Context) ([]string, error) {
	tables, err := h.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (h *sqlHandle) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return sqlDB.Close()
}

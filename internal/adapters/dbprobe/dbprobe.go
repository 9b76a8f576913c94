// Package dbprobe exposes the optional database as a narrow capability used
// only for connectivity diagnostics.
package dbprobe

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Handle is an acquired database connection.
type Handle interface {
	// Available reports whether the handle is usable at all.
	Available() bool
	// Name is the logical database name.
	Name() string
	// ListCollectionNames lists collection or table names.
	ListCollectionNames(ctx context.Context) ([]string, error)
	Close() error
}

// Provider hands out the process-wide Handle.
type Provider interface {
	Acquire(ctx context.Context) (Handle, error)
	Close() error
}

// Config selects and addresses the database backend.
type Config struct {
	// Enabled mirrors the "database module installed" switch. When false,
	// Open returns a nil Provider.
	Enabled bool
	// URL is DATABASE_URL: sqlite://path, sqlite:path, file:..., or clickhouse://...
	URL string
	// Name is DATABASE_NAME; optional.
	Name string
}

type opener func(ctx context.Context) (Handle, error)

// Open builds a Provider for cfg. Nothing is dialed until the first Acquire.
// A nil Provider means the database capability is not installed.
func Open(cfg Config) Provider {
	if !cfg.Enabled {
		return nil
	}
	return &lazyProvider{open: openerFor(cfg)}
}

func openerFor(cfg Config) opener {
	raw := strings.TrimSpace(cfg.URL)
	switch {
	case raw == "":
		return func(context.Context) (Handle, error) { return nil, ErrNotInitialized }
	case strings.HasPrefix(raw, "sqlite://"):
		dsn := strings.TrimPrefix(raw, "sqlite://")
		return func(ctx context.Context) (Handle, error) { return openSQLite(ctx, dsn, cfg.Name) }
	case strings.HasPrefix(raw, "sqlite:"):
		dsn := strings.TrimPrefix(raw, "sqlite:")
		return func(ctx context.Context) (Handle, error) { return openSQLite(ctx, dsn, cfg.Name) }
	case strings.HasPrefix(raw, "file:"):
		return func(ctx context.Context) (Handle, error) { return openSQLite(ctx, raw, cfg.Name) }
	case strings.HasPrefix(raw, "clickhouse://"):
		return func(ctx context.Context) (Handle, error) { return openClickHouse(ctx, raw, cfg.Name) }
	default:
		// Report only the scheme; the URL may carry credentials.
		scheme := raw
		if i := strings.Index(raw, ":"); i >= 0 {
			scheme = raw[:i]
		}
		err := fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
		return func(context.Context) (Handle, error) { return nil, err }
	}
}

// lazyProvider opens the handle on first use and caches it. A failed open is
// retried on the next Acquire.
type lazyProvider struct {
	mu     sync.Mutex
	open   opener
	handle Handle
	closed bool
}

func (p *lazyProvider) Acquire(ctx context.Context) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.handle != nil {
		return p.handle, nil
	}
	h, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	p.handle = h
	return h, nil
}

func (p *lazyProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.handle == nil {
		return nil
	}
	err := p.handle.Close()
	p.handle = nil
	return err
}

// Static returns a Provider that always hands out h. A nil h behaves like a
// module that is installed but not initialized.
func Static(h Handle) Provider {
	return staticProvider{h: h}
}

type staticProvider struct{ h Handle }

func (s staticProvider) Acquire(context.Context) (Handle, error) {
	if s.h == nil {
		return nil, ErrNotInitialized
	}
	return s.h, nil
}

func (s staticProvider) Close() error {
	if s.h == nil {
		return nil
	}
	return s.h.Close()
}

// Package credential persists the login token read by the request client.
package credential

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store keeps a single credential with a fixed expiry. Token returns "" when no
// unexpired credential exists.
type Store interface {
	Close() error
	Token(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
}

// Status describes the stored credential without exposing it.
type Status struct {
	Present   bool
	ExpiresAt time.Time
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TTL time.Duration
}

const defaultTTL = 7 * 24 * time.Hour

const (
	TypeBBolt  = "bbolt"
	TypeMemory = "memory"
	TypeNone   = "none"
)

// NewStore creates the configured credential backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeMemory:
		return newMemoryStore(opts), nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt credential store requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported credential store type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	return opts
}

// Static serves a fixed token and refuses writes. It backs the `token` config override.
type Static string

func (s Static) Close() error                          { return nil }
func (s Static) Token(context.Context) (string, error) { return string(s), nil }
func (s Static) Save(context.Context, string) error {
	return fmt.Errorf("credential is fixed by configuration")
}
func (s Static) Clear(context.Context) error {
	return fmt.Errorf("credential is fixed by configuration")
}
func (s Static) Status(context.Context) (Status, error) {
	return Status{Present: s != ""}, nil
}

type noopStore struct{}

func (noopStore) Close() error                           { return nil }
func (noopStore) Token(context.Context) (string, error)  { return "", nil }
func (noopStore) Save(context.Context, string) error     { return nil }
func (noopStore) Clear(context.Context) error            { return nil }
func (noopStore) Status(context.Context) (Status, error) { return Status{}, nil }

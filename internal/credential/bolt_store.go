package credential

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	credentialBucket = "credentials"
	tokenKey         = "token"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. The value layout is an 8-byte
// big-endian unix expiry followed by the token bytes.
type boltStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create credential directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(credentialBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db, ttl: opts.TTL, now: time.Now}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Token returns the stored token, removing it once expired.
func (b *boltStore) Token(ctx context.Context) (string, error) {
	token, _, err := b.load(ctx)
	return token, err
}

// Status reports presence and expiry of the stored token.
func (b *boltStore) Status(ctx context.Context) (Status, error) {
	token, expiry, err := b.load(ctx)
	if err != nil || token == "" {
		return Status{}, err
	}
	return Status{Present: true, ExpiresAt: expiry}, nil
}

func (b *boltStore) load(ctx context.Context) (string, time.Time, error) {
	if b == nil || b.db == nil {
		return "", time.Time{}, nil
	}
	if err := ctx.Err(); err != nil {
		return "", time.Time{}, err
	}

	var (
		token  string
		expiry time.Time
		stale  bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		value := bucket.Get([]byte(tokenKey))
		if value == nil {
			return nil
		}
		exp, tok, ok := decodeValue(value)
		if !ok || !exp.After(b.now()) {
			stale = true
			return nil
		}
		token, expiry = tok, exp
		return nil
	})
	if err != nil {
		return "", time.Time{}, err
	}
	if stale {
		return "", time.Time{}, b.Clear(ctx)
	}
	return token, expiry, nil
}

// Save stores token with a fresh expiry.
func (b *boltStore) Save(ctx context.Context, token string) error {
	if b == nil || b.db == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		return bucket.Put([]byte(tokenKey), encodeValue(b.now().Add(b.ttl), token))
	})
}

// Clear removes the stored token.
func (b *boltStore) Clear(ctx context.Context) error {
	if b == nil || b.db == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		return bucket.Delete([]byte(tokenKey))
	})
}

func encodeValue(expiry time.Time, token string) []byte {
	buf := make([]byte, expiryValueBytes+len(token))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	copy(buf[expiryValueBytes:], token)
	return buf
}

// decodeValue splits a stored value into expiry and token.
func decodeValue(value []byte) (time.Time, string, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, "", false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, "", false
	}
	return time.Unix(unix, 0), string(value[expiryValueBytes:]), true
}

package recognition

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

const outputBucket = "recognitions"

// Store persists backend outputs by key
type Store interface {
	// Get returns the output stored under key, or nil when absent
	Get(key string) (*Output, error)
	// Put stores out under key
	Put(key string, out *Output) error
	// Close closes the store
	Close() error
}

// BoltStore implements the Store interface using BoltDB
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens or creates a BoltDB file at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(outputBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Get returns the output stored under key, or nil when absent
func (b *BoltStore) Get(key string) (*Output, error) {
	var out *Output
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(outputBucket)).Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("reading cached output: %w", err)
	}
	return out, nil
}

// Put stores out under key
func (b *BoltStore) Put(key string, out *Output) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshaling output: %w", err)
		}
		return tx.Bucket([]byte(outputBucket)).Put([]byte(key), data)
	})
}

// Close closes the database
func (b *BoltStore) Close() error {
	return b.db.Close()
}

// Cache wraps a Recognizer and answers repeated requests from a Store.
// Store failures are logged and fall through to the wrapped backend.
type Cache struct {
	next  Recognizer
	store Store
}

// NewCache creates a new Cache in front of next
func NewCache(next Recognizer, store Store) *Cache {
	return &Cache{next: next, store: store}
}

// Name returns the wrapped backend name
func (c *Cache) Name() string {
	return c.next.Name()
}

// Recognize returns a stored output when one exists for the same region and settings
func (c *Cache) Recognize(ctx context.Context, req Request) (*Output, error) {
	key, err := c.key(req)
	if err != nil {
		return nil, err
	}

	if out, err := c.store.Get(key); err != nil {
		slog.Warn("Recognition cache read failed", "backend", c.next.Name(), "error", err)
	} else if out != nil {
		slog.Debug("Recognition cache hit", "backend", c.next.Name(), "key", key[:12])
		return out, nil
	}

	out, err := c.next.Recognize(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(key, out); err != nil {
		slog.Warn("Recognition cache write failed", "backend", c.next.Name(), "error", err)
	}
	return out, nil
}

func (c *Cache) key(req Request) (string, error) {
	data, err := req.Image.PNG()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, part := range []string{c.next.Name(), req.Languages, strconv.Itoa(int(req.Mode)), strconv.FormatBool(req.PreserveSpaces)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Close closes the wrapped backend and the store
func (c *Cache) Close() error {
	nextErr := c.next.Close()
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("closing cache store: %w", err)
	}
	return nextErr
}

package realm

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("trailmark")

// BoltRealm is the synchronous key/value realm, backed by a bbolt file.
// It is the durable workhorse: every write commits before Set returns.
type BoltRealm struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bbolt-backed realm at path.
func OpenBolt(path string) (*BoltRealm, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt realm: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}
	return &BoltRealm{db: db}, nil
}

func (r *BoltRealm) Name() string { return "bolt" }

func (r *BoltRealm) Capabilities() Capabilities {
	return Capabilities{Synchronous: true}
}

func (r *BoltRealm) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BoltRealm) Set(_ context.Context, key string, value []byte) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *BoltRealm) Delete(_ context.Context, key string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying file.
func (r *BoltRealm) Close() error {
	return r.db.Close()
}

package kvstore

import (
	"bytes"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bolt is the default persistent Store, one bbolt bucket per collection.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database file and ensures all collection
// buckets exist.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range Collections {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Collection(name string) Collection {
	return &boltColl{db: b.db, bucket: []byte(name)}
}

func (b *Bolt) Close() error { return b.db.Close() }

type boltColl struct {
	db     *bolt.DB
	bucket []byte
}

func (c *boltColl) Get(key []byte) ([]byte, error) {
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(c.bucket).Get(key)
		if v == nil {
			return ErrNotFound
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	return out, err
}

func (c *boltColl) Put(key, value []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Put(key, value)
	})
}

func (c *boltColl) Delete(key []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Delete(key)
	})
}

func (c *boltColl) Range(lower, upper []byte, reverse bool, fn func(key, value []byte) error) error {
	return c.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(c.bucket).Cursor()
		in := func(k []byte) bool {
			if lower != nil && bytes.Compare(k, lower) < 0 {
				return false
			}
			if upper != nil && bytes.Compare(k, upper) >= 0 {
				return false
			}
			return true
		}

		if !reverse {
			var k, v []byte
			if lower != nil {
				k, v = cur.Seek(lower)
			} else {
				k, v = cur.First()
			}
			for ; k != nil && in(k); k, v = cur.Next() {
				if err := fn(k, v); err != nil {
					return err
				}
			}
			return nil
		}

		// Descending: position at the last key below upper.
		var k, v []byte
		if upper != nil {
			k, v = cur.Seek(upper)
			if k == nil {
				k, v = cur.Last()
			} else {
				k, v = cur.Prev()
			}
		} else {
			k, v = cur.Last()
		}
		for ; k != nil && in(k); k, v = cur.Prev() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

package kvstore

import (
	"bytes"
	"sort"
	"sync"
)

// Memory is an in-memory Store used by tests and as a scratch cache.
type Memory struct {
	mu    sync.RWMutex
	colls map[string]map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	colls := make(map[string]map[string][]byte, len(Collections))
	for _, name := range Collections {
		colls[name] = make(map[string][]byte)
	}
	return &Memory{colls: colls}
}

func (m *Memory) Collection(name string) Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.colls[name] == nil {
		m.colls[name] = make(map[string][]byte)
	}
	return &memColl{store: m, name: name}
}

func (m *Memory) Close() error { return nil }

type memColl struct {
	store *Memory
	name  string
}

func (c *memColl) Get(key []byte) ([]byte, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	v, ok := c.store.colls[c.name][string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (c *memColl) Put(key, value []byte) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	c.store.colls[c.name][string(key)] = v
	return nil
}

func (c *memColl) Delete(key []byte) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.colls[c.name], string(key))
	return nil
}

func (c *memColl) Range(lower, upper []byte, reverse bool, fn func(key, value []byte) error) error {
	c.store.mu.RLock()
	keys := make([]string, 0, len(c.store.colls[c.name]))
	for k := range c.store.colls[c.name] {
		kb := []byte(k)
		if lower != nil && bytes.Compare(kb, lower) < 0 {
			continue
		}
		if upper != nil && bytes.Compare(kb, upper) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	vals := make(map[string][]byte, len(keys))
	for _, k := range keys {
		vals[k] = c.store.colls[c.name][k]
	}
	c.store.mu.RUnlock()

	sort.Strings(keys)
	if reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	for _, k := range keys {
		if err := fn([]byte(k), vals[k]); err != nil {
			return err
		}
	}
	return nil
}

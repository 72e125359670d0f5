// Package cache stores computed artifacts on disk under a content hash of
// the inputs that produced them.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Cache is a directory of gob-encoded artifacts. A nil *Cache is valid and
// caches nothing.
type Cache struct {
	dir       string
	overwrite bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithOverwrite recomputes artifacts even when they are cached.
func WithOverwrite(overwrite bool) Option {
	return func(c *Cache) {
		c.overwrite = overwrite
	}
}

// New returns a cache rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	c := &Cache{dir: dir}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key hashes parts into a hex digest. Parts are formatted with %v and
// separated, so Key("ab", "c") != Key("a", "bc").
func Key(parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		s := fmt.Sprintf("%v", p)
		fmt.Fprintf(h, "%d:%s;", len(s), s)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".gob")
}

// GetOrCompute returns the artifact stored under key, or calls compute,
// stores its result and returns it. Errors from compute are returned as is
// and nothing is stored.
func GetOrCompute[T any](c *Cache, key string, compute func() (T, error)) (T, error) {
	if c == nil {
		return compute()
	}

	if !c.overwrite {
		v, err := load[T](c.path(key))
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return v, fmt.Errorf("cache %s: %w", key, err)
		}
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	if err := store(c.path(key), v); err != nil {
		return v, fmt.Errorf("cache %s: %w", key, err)
	}
	return v, nil
}

// Remove deletes the artifact stored under key, if any.
func (c *Cache) Remove(key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func load[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

// store writes to a temporary file and renames it so readers never see a
// partial artifact.
func store(path string, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

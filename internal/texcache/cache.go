// Package texcache keeps parsed KTX containers from one directory in memory
// and hands out reference-counted handles to them.
package texcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samcharles93/ktxkit/internal/logger"
	"github.com/samcharles93/ktxkit/pkg/ktx"
)

var (
	ErrNotFound    = errors.New("texcache: texture not found")
	ErrInvalidName = errors.New("texcache: invalid texture name")
	ErrClosed      = errors.New("texcache: cache closed")
)

// Extensions recognised as textures, most specific first.
var Extensions = []string{".ktx.zst", ".ktx"}

type Cache struct {
	dir string
	log logger.Logger

	mu      sync.Mutex
	entries map[string]*ktx.KTX
	closed  bool
}

func New(dir string, log logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{
		dir:     dir,
		log:     log.With("component", "texcache"),
		entries: make(map[string]*ktx.KTX),
	}
}

func (c *Cache) Dir() string { return c.dir }

// List returns the file names of every texture in the directory, sorted.
func (c *Cache) List() ([]string, error) {
	ents, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if e.Type().IsRegular() && hasTextureExt(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Handle pins one cached container. The container stays readable until the
// handle is released, even if the cache evicts it first.
type Handle struct {
	name     string
	k        *ktx.KTX
	released atomic.Bool
}

func (h *Handle) Name() string  { return h.name }
func (h *Handle) KTX() *ktx.KTX { return h.k }

// Release unpins the container. Releasing twice is a no-op.
func (h *Handle) Release() error {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return nil
	}
	return h.k.Storage().Release()
}

// Acquire returns a handle to the named texture, loading it on first use.
// name is a file in the cache directory, with or without its extension.
func (c *Cache) Acquire(name string) (*Handle, error) {
	file, err := c.resolve(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	k, ok := c.entries[file]
	if ok {
		h, err := pin(file, k)
		c.mu.Unlock()
		return h, err
	}
	c.mu.Unlock()

	loaded, err := ktx.Open(filepath.Join(c.dir, file))
	if err != nil {
		return nil, fmt.Errorf("texcache: load %s: %w", file, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = loaded.Close()
		return nil, ErrClosed
	}
	if existing, ok := c.entries[file]; ok {
		_ = loaded.Close()
		return pin(file, existing)
	}
	c.entries[file] = loaded
	c.log.Debug("texture loaded", "name", file,
		"bytes", loaded.Storage().Size(), "levels", loaded.NumberOfLevels())
	return pin(file, loaded)
}

func pin(name string, k *ktx.KTX) (*Handle, error) {
	if !k.Storage().Retain() {
		return nil, ktx.ErrStorageReleased
	}
	return &Handle{name: name, k: k}, nil
}

// Evict drops the cache's reference to name. It reports whether the texture
// was cached. Only cache keys are consulted, so an entry whose file has
// since been removed from disk can still be evicted.
func (c *Cache) Evict(name string) bool {
	if validName(name) != nil {
		return false
	}
	keys := []string{name}
	if !hasTextureExt(name) {
		keys = keys[:0]
		for _, ext := range slices.Backward(Extensions) {
			keys = append(keys, name+ext)
		}
	}

	var (
		file string
		k    *ktx.KTX
		ok   bool
	)
	c.mu.Lock()
	for _, file = range keys {
		if k, ok = c.entries[file]; ok {
			delete(c.entries, file)
			break
		}
	}
	c.mu.Unlock()
	if ok {
		_ = k.Close()
		c.log.Debug("texture evicted", "name", file)
	}
	return ok
}

// Len returns the number of cached containers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close evicts everything. Later Acquire calls fail with ErrClosed.
func (c *Cache) Close() error {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*ktx.KTX)
	c.closed = true
	c.mu.Unlock()

	var errs []error
	for _, k := range entries {
		if err := k.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resolve maps a request name to a file name inside the cache directory.
func (c *Cache) resolve(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if hasTextureExt(name) {
		if !fileExists(filepath.Join(c.dir, name)) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return name, nil
	}
	for _, ext := range slices.Backward(Extensions) {
		if fileExists(filepath.Join(c.dir, name+ext)) {
			return name + ext, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func validName(name string) error {
	switch {
	case name == "", name == ".", strings.Contains(name, ".."),
		strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func hasTextureExt(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

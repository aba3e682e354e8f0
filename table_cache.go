package pixpage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/ryanlewis/pixpage/internal/debug"
)

// TableCache loads glyph tables from one definitions directory and keeps them
// for reuse. It is safe for concurrent use.
//
// Cache Implementation Details:
// - Uses a hash map for O(1) lookups combined with a doubly-linked list for LRU tracking
// - RWMutex allows concurrent reads while protecting writes
// - Concurrent requests for a table that is still loading wait for that load
// - Failed loads are not cached, so a later request retries
//
// Key Generation Strategy:
// - Definitions files: the slash path within the cache's filesystem
// - Byte data: SHA256 hash plus profile name, so identical content parsed for
// the same profile shares one entry
type TableCache struct {
	fsys    fs.FS
	dir     string
	session *debug.Session

	mu        sync.RWMutex
	tables    map[string]*cacheEntry
	loading   map[string]*loadCall
	lru       *lruList
	maxSize   int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type cacheEntry struct {
	key     string
	table   *Table
	size    int64 // Approximate memory size in bytes
	lruNode *lruNode
}

// loadCall is a load in progress. done is closed when table and err are set.
type loadCall struct {
	done  chan struct{}
	table *Table
	err   error
}

type lruNode struct {
	key  string
	prev *lruNode
	next *lruNode
}

type lruList struct {
	head *lruNode
	tail *lruNode
	size int
}

// CacheOption configures a TableCache.
type CacheOption func(*TableCache)

// WithCacheDebug traces loads and degradations to a debug session.
// The session parameter should be a *debug.Session from internal/debug.
func WithCacheDebug(session interface{}) CacheOption {
	return func(c *TableCache) {
		if s, ok := session.(*debug.Session); ok {
			c.session = s
		}
	}
}

// NewTableCache creates a cache reading definitions files from dir within
// fsys. A maxSize of 0 or negative means unlimited cache size.
func NewTableCache(fsys fs.FS, dir string, maxSize int, opts ...CacheOption) *TableCache {
	c := &TableCache{
		fsys:    fsys,
		dir:     dir,
		tables:  make(map[string]*cacheEntry),
		loading: make(map[string]*loadCall),
		lru:     &lruList{},
		maxSize: maxSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the table for profile p, reading its definitions file on
// first use.
func (c *TableCache) Load(p Profile) (*Table, error) {
	key := DefinitionsPath(c.dir, p)
	t, cached, err := c.load(key, func() (*Table, error) {
		return LoadTableFS(c.fsys, key, p)
	})
	if err != nil {
		return nil, err
	}
	c.session.Emit("table", "Loaded", debug.TableLoadedData{
		Profile:  p.Name,
		Source:   key,
		Glyphs:   t.Len(),
		Notdef:   t.HasNotdef(),
		Warnings: len(t.Warnings),
		Cached:   cached,
	})
	return t, nil
}

// LoadOrEmpty returns the table for p, or an empty table when it cannot be
// loaded. The empty table's Err wraps ErrResourceUnavailable and the cause.
func (c *TableCache) LoadOrEmpty(p Profile) *Table {
	t, err := c.Load(p)
	if err == nil {
		return t
	}
	source := DefinitionsPath(c.dir, p)
	c.session.Emit("table", "Degraded", debug.TableDegradedData{
		Resource: "table",
		Source:   source,
		Error:    err.Error(),
	})
	empty := EmptyTable(p)
	empty.err = fmt.Errorf("%w: %s glyph table: %w", ErrResourceUnavailable, p.Name, err)
	return empty
}

// ParseBytes parses definitions data for p with caching.
//
// Content-Based Caching:
// Uses SHA256 hash of the data as the cache key, so identical tables are
// parsed once regardless of where they came from. The "sha256:" prefix
// keeps content keys apart from file path keys.
func (c *TableCache) ParseBytes(data []byte, p Profile) (*Table, error) {
	hash := sha256.Sum256(data)
	key := "sha256:" + hex.EncodeToString(hash[:]) + ":" + p.Name

	t, _, err := c.load(key, func() (*Table, error) {
		return ParseTableBytes(data, p)
	})
	return t, err
}

// load returns the cached table for key or runs fn once for all concurrent
// callers. cached reports whether the table was already present.
func (c *TableCache) load(key string, fn func() (*Table, error)) (t *Table, cached bool, err error) {
	if t := c.get(key); t != nil {
		return t, true, nil
	}

	c.mu.Lock()
	if entry, ok := c.tables[key]; ok {
		// loaded between get and Lock
		c.lru.moveToFront(entry.lruNode)
		c.mu.Unlock()
		return entry.table, true, nil
	}
	if call, ok := c.loading[key]; ok {
		c.mu.Unlock()
		<-call.done
		return call.table, false, call.err
	}
	call := &loadCall{done: make(chan struct{})}
	c.loading[key] = call
	c.mu.Unlock()

	call.table, call.err = fn()

	c.mu.Lock()
	delete(c.loading, key)
	if call.err == nil {
		c.putLocked(key, call.table)
	}
	c.mu.Unlock()
	close(call.done)

	return call.table, false, call.err
}

// get retrieves a table from the cache using optimized locking.
//
// Locking Strategy:
// 1. Fast path: RLock for existence check (allows concurrent reads)
// 2. If found, acquire full Lock only to update LRU position
// 3. This minimizes lock contention for cache hits
func (c *TableCache) get(key string) *Table {
	c.mu.RLock()
	entry, exists := c.tables[key]
	c.mu.RUnlock()

	if !exists {
		c.misses.Add(1)
		return nil
	}

	c.mu.Lock()
	// the entry may have been evicted while unlocked
	if c.tables[key] == entry {
		c.lru.moveToFront(entry.lruNode)
	}
	c.mu.Unlock()

	c.hits.Add(1)
	return entry.table
}

// putLocked adds a table with automatic LRU eviction. c.mu must be held.
func (c *TableCache) putLocked(key string, t *Table) {
	if _, exists := c.tables[key]; exists {
		return
	}

	if c.maxSize > 0 && len(c.tables) >= c.maxSize {
		c.evictLRU()
	}

	node := c.lru.pushFront(key)
	c.tables[key] = &cacheEntry{
		key:     key,
		table:   t,
		size:    estimateTableSize(t),
		lruNode: node,
	}
}

// evictLRU removes the least recently used table from the cache
func (c *TableCache) evictLRU() {
	if c.lru.tail == nil {
		return
	}

	key := c.lru.tail.key
	delete(c.tables, key)
	c.lru.remove(c.lru.tail)
	c.evictions.Add(1)
}

// Clear removes all tables from the cache. Loads in progress still complete
// for their callers.
func (c *TableCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tables = make(map[string]*cacheEntry)
	c.lru = &lruList{}
}

// Stats returns cache statistics.
// This method is safe for concurrent use.
func (c *TableCache) Stats() CacheStats {
	c.mu.RLock()
	size := len(c.tables)
	var bytes int64
	for _, e := range c.tables {
		bytes += e.size
	}
	c.mu.RUnlock()

	return CacheStats{
		Size:      size,
		MaxSize:   c.maxSize,
		Bytes:     bytes,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// CacheStats contains cache performance statistics
type CacheStats struct {
	Size      int    // Current number of cached tables
	MaxSize   int    // Maximum cache size
	Bytes     int64  // Approximate memory held by cached tables
	Hits      uint64 // Number of cache hits
	Misses    uint64 // Number of cache misses
	Evictions uint64 // Number of evictions
}

// HitRate returns the cache hit rate as a percentage (0-100)
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) * 100 / float64(total)
}

// estimateTableSize estimates the memory size of a table in bytes.
// It counts one byte per grid cell, slice headers, and ~40 bytes of map
// overhead per glyph. Good enough for capacity planning, not for profiling.
func estimateTableSize(t *Table) int64 {
	if t == nil {
		return 0
	}

	size := int64(100) // Approximate base struct overhead
	for _, r := range t.glyphs.Runes() {
		g, _ := t.glyphs.Lookup(r)
		for _, row := range g.Rows {
			size += int64(len(row)) + 24
		}
		size += 40
	}
	return size
}

// LRU list operations
func (l *lruList) pushFront(key string) *lruNode {
	node := &lruNode{key: key}

	if l.head == nil {
		l.head = node
		l.tail = node
	} else {
		node.next = l.head
		l.head.prev = node
		l.head = node
	}

	l.size++
	return node
}

func (l *lruList) moveToFront(node *lruNode) {
	if node == l.head {
		return
	}

	// Remove from current position
	if node.prev != nil {
		node.prev.next = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	}
	if node == l.tail {
		l.tail = node.prev
	}

	// Move to front
	node.prev = nil
	node.next = l.head
	l.head.prev = node
	l.head = node
}

func (l *lruList) remove(node *lruNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	l.size--
}

package cube

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/alitto/pond"
)

// tileKey identifies a tile by its tile-grid (not node-grid) position.
type tileKey struct {
	row, col int
}

// TileCache presents the grid as a random-access array of nodes while
// keeping only a bounded working set resident in RAM.
// Grounded on the corpus's OpenGSF/GsfFile lazy-handle idiom, combined
// with an explicit LRU list since nothing in the pack ships an LRU
// library (all caching in the corpus is delegated to the OS page cache
// behind TileDB's VFS).
type TileCache struct {
	grid  *Grid
	cfg   *Config
	store *BackingStore

	mu       sync.Mutex
	resident map[tileKey]*list.Element // -> *cacheEntry
	lru      *list.List                // front = most recently used

	// pending tracks tiles whose eviction write was handed to the
	// background pool but has not yet completed. A node reload for a
	// pending tile must wait for the write to finish first, so a reload
	// never races a tile still mid-flight to the backing store.
	pending map[tileKey]*sync.WaitGroup

	pool  *pond.Pool // nil when BackgroundWriters == 0 (synchronous eviction)
	bgErr error      // first background write failure, if any
}

type cacheEntry struct {
	key  tileKey
	tile *Tile
}

// NewTileCache constructs a cache bound to grid/backing store g/store,
// configured per cfg.CacheCapacity and cfg.BackgroundWriters.
func NewTileCache(g *Grid, cfg *Config, store *BackingStore) *TileCache {
	tc := &TileCache{
		grid:     g,
		cfg:      cfg,
		store:    store,
		resident: make(map[tileKey]*list.Element),
		lru:      list.New(),
		pending:  make(map[tileKey]*sync.WaitGroup),
	}

	if cfg.BackgroundWriters > 0 {
		tc.pool = pond.New(cfg.BackgroundWriters, 0, pond.MinWorkers(cfg.BackgroundWriters))
	}

	return tc
}

func (tc *TileCache) tileKeyFor(row, col int) tileKey {
	return tileKey{row / tc.cfg.TileSize, col / tc.cfg.TileSize}
}

func (tc *TileCache) tileOrigin(k tileKey) (int, int) {
	return k.row * tc.cfg.TileSize, k.col * tc.cfg.TileSize
}

// GetNode returns a pointer to the node at the given global grid index.
// If forWrite, the containing tile is marked dirty. The cache loads the
// containing tile from the backing store if it is not already resident,
// evicting another tile first if the cache is full.
func (tc *TileCache) GetNode(row, col int, forWrite bool) (*Node, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tile, err := tc.loadLocked(tc.tileKeyFor(row, col), forWrite)
	if err != nil {
		return nil, err
	}

	return tile.node(row, col), nil
}

// loadLocked returns the resident tile for key, paging it in from the
// backing store (evicting another tile first if the cache is full) when
// it is not already resident. Must be called with tc.mu held.
func (tc *TileCache) loadLocked(key tileKey, forWrite bool) (*Tile, error) {
	if elem, ok := tc.resident[key]; ok {
		entry := elem.Value.(*cacheEntry)
		tc.lru.MoveToFront(elem)
		entry.tile.touch(time.Now(), forWrite)
		return entry.tile, nil
	}

	// Wait for any in-flight eviction write of this exact tile to land
	// before reloading it, so the reload never races a stale read.
	if wg, ok := tc.pending[key]; ok {
		tc.mu.Unlock()
		wg.Wait()
		tc.mu.Lock()

		if elem, ok := tc.resident[key]; ok {
			entry := elem.Value.(*cacheEntry)
			tc.lru.MoveToFront(elem)
			entry.tile.touch(time.Now(), forWrite)
			return entry.tile, nil
		}
	}

	if len(tc.resident) >= tc.cfg.CacheCapacity {
		if err := tc.evictLocked(); err != nil {
			return nil, err
		}
	}

	rowOrigin, colOrigin := tc.tileOrigin(key)
	tile, err := tc.store.ReadTile(rowOrigin, colOrigin, tc.cfg.TileSize)
	if err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}

	elem := tc.lru.PushFront(&cacheEntry{key: key, tile: tile})
	tc.resident[key] = elem

	tile.touch(time.Now(), forWrite)

	return tile, nil
}

// GetTile returns the resident tile containing (row, col), paging it in
// read-only if necessary. Used by readback, which walks whole tiles
// rather than node-by-node.
func (tc *TileCache) GetTile(row, col int) (*Tile, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	return tc.loadLocked(tc.tileKeyFor(row, col), false)
}

// evictLocked removes the least-recently-used clean tile from the cache.
// If every resident tile is dirty, the LRU tile is written first and then
// evicted. Must be called with tc.mu held.
func (tc *TileCache) evictLocked() error {
	// Prefer the LRU clean tile.
	for e := tc.lru.Back(); e != nil; e = e.Prev() {
		entry := e.Value.(*cacheEntry)
		if !entry.tile.Dirty {
			tc.lru.Remove(e)
			delete(tc.resident, entry.key)
			return nil
		}
	}

	// All resident tiles are dirty; evict the LRU one after writing it.
	e := tc.lru.Back()
	if e == nil {
		return nil
	}
	entry := e.Value.(*cacheEntry)
	tc.lru.Remove(e)
	delete(tc.resident, entry.key)

	return tc.persistLocked(entry)
}

// persistLocked writes a dirty tile to the backing store, either
// synchronously or via the background pool, per cfg.BackgroundWriters.
// Must be called with tc.mu held. The synchronous path holds the lock
// for the duration of the write, stalling other cache callers; the
// background-writer path exists to avoid that on the hot path.
func (tc *TileCache) persistLocked(entry *cacheEntry) error {
	if tc.pool == nil {
		return tc.store.WriteTile(entry.tile)
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	tc.pending[entry.key] = wg

	tile := entry.tile
	key := entry.key

	tc.pool.Submit(func() {
		err := tc.store.WriteTile(tile)

		tc.mu.Lock()
		delete(tc.pending, key)
		tc.mu.Unlock()

		wg.Done()

		if err != nil {
			tc.recordBackgroundErrorLocked(err)
		}
	})

	return nil
}

// bgErr latches the first background write failure so Flush/Finalise can
// surface it; background writes happen off the assimilating goroutine so
// there is no synchronous caller to return the error to directly.
func (tc *TileCache) recordBackgroundErrorLocked(err error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.bgErr == nil {
		tc.bgErr = err
	}
}

// Flush writes every dirty resident tile to the backing store, leaving
// the cache consistent.
func (tc *TileCache) Flush() error {
	tc.mu.Lock()

	var toWrite []*Tile
	for e := tc.lru.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*cacheEntry)
		if entry.tile.Dirty {
			toWrite = append(toWrite, entry.tile)
		}
	}
	tc.mu.Unlock()

	for _, t := range toWrite {
		if err := tc.store.WriteTile(t); err != nil {
			return errors.Join(ErrTileWrite, err)
		}
	}

	if tc.pool != nil {
		tc.pool.StopAndWait()
		tc.pool = nil
	}

	tc.mu.Lock()
	bgErr := tc.bgErr
	tc.mu.Unlock()

	return bgErr
}

// Finalise flushes every dirty tile and closes the backing store.
func (tc *TileCache) Finalise() error {
	if err := tc.Flush(); err != nil {
		return err
	}

	return tc.store.Close()
}

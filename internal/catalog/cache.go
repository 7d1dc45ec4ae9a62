package catalog

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// bump when filePayload changes
const cacheSchemaVersion uint16 = 1

// DiskCache keeps per-file parse results keyed by content hash, so unchanged
// resource files are not re-parsed between runs. A nil *DiskCache is valid
// and caches nothing. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// filePayload is what one resource file contributes to the catalog. The
// culture is not stored: it depends on the path and configuration, not on
// content.
type filePayload struct {
	Schema uint16
	Parsed bool
	Leaves []cachedLeaf
	Dups   []cachedLeaf
}

type cachedLeaf struct {
	Key   string
	Value string
	Start uint32
	End   uint32
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens the cache rooted at dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(hash [32]byte) string {
	return filepath.Join(c.dir, "res", hex.EncodeToString(hash[:])+".mp")
}

func (c *DiskCache) put(hash [32]byte, payload *filePayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(hash)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// атомарная замена
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (c *DiskCache) get(hash [32]byte) (*filePayload, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(hash))
	if err != nil {
		return nil, err
	}
	var out filePayload
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out.Schema != cacheSchemaVersion {
		return nil, errStaleSchema
	}
	return &out, nil
}

var errStaleSchema = errors.New("catalog cache: stale schema")

// lookup treats every read failure as a miss.
func (c *DiskCache) lookup(hash [32]byte) (*filePayload, bool) {
	if c == nil {
		return nil, false
	}
	p, err := c.get(hash)
	if err != nil {
		return nil, false
	}
	return p, true
}

func (c *DiskCache) store(hash [32]byte, parsed bool, leaves []Leaf, dups []rawDuplicate) error {
	if c == nil {
		return nil
	}
	p := &filePayload{Schema: cacheSchemaVersion, Parsed: parsed}
	p.Leaves = make([]cachedLeaf, len(leaves))
	for i, l := range leaves {
		p.Leaves[i] = cachedLeaf(l)
	}
	p.Dups = make([]cachedLeaf, len(dups))
	for i, d := range dups {
		p.Dups[i] = cachedLeaf{Key: d.Key, Start: d.Start, End: d.End}
	}
	return c.put(hash, p)
}

func (p *filePayload) leaves() []Leaf {
	if len(p.Leaves) == 0 {
		return nil
	}
	out := make([]Leaf, len(p.Leaves))
	for i, l := range p.Leaves {
		out[i] = Leaf(l)
	}
	return out
}

func (p *filePayload) duplicates() []rawDuplicate {
	if len(p.Dups) == 0 {
		return nil
	}
	out := make([]rawDuplicate, len(p.Dups))
	for i, d := range p.Dups {
		out[i] = rawDuplicate{Key: d.Key, Start: d.Start, End: d.End}
	}
	return out
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

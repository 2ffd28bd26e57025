package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const diskExt = ".zst"

// DiskCache implements an L2 cache of zstd-compressed files, one per key.
// The index is rebuilt from the directory when the cache opens.
type DiskCache struct {
	dir      string
	capacity int64 // Maximum size in bytes (compressed)
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	path       string
	size       int64
	lastAccess time.Time
}

// NewDiskCache opens (or creates) a disk cache in dir.
func NewDiskCache(dir string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	if compressionLevel < 1 {
		compressionLevel = 1
	}
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		encoder:  encoder,
		decoder:  decoder,
		index:    make(map[string]*diskEntry),
	}
	if err := dc.scan(); err != nil {
		dc.Close()
		return nil, err
	}
	return dc, nil
}

// Get retrieves and decompresses a value.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.path)
	if err == nil {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		log.Debug("Dropping unreadable cache entry", "path", entry.path, "error", err)
		dc.removeLocked(key, entry)
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	entry.lastAccess = now
	_ = os.Chtimes(entry.path, now, now)

	dc.stats.Hits++
	return data, true
}

// Put compresses and stores a value.
func (dc *DiskCache) Put(key string, value []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid cache key %q", key)
	}

	compressed := dc.encoder.EncodeAll(value, nil)
	diskSize := int64(len(compressed))

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if diskSize > dc.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.removeLocked(key, existing)
	}
	for dc.size+diskSize > dc.capacity && len(dc.index) > 0 {
		dc.evictOldestLocked()
	}

	path := filepath.Join(dc.dir, key+diskExt)
	if err := writeFileAtomic(path, compressed); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	dc.index[key] = &diskEntry{path: path, size: diskSize, lastAccess: time.Now()}
	dc.size += diskSize
	return nil
}

// Delete removes an entry.
func (dc *DiskCache) Delete(key string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if entry, ok := dc.index[key]; ok {
		dc.removeLocked(key, entry)
	}
}

// Prune removes entries not accessed within maxAge and returns how many.
func (dc *DiskCache) Prune(maxAge time.Duration) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, entry := range dc.index {
		if entry.lastAccess.Before(cutoff) {
			dc.removeLocked(key, entry)
			removed++
		}
	}
	return removed
}

// Contains checks if a key exists without touching its access time.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	_, ok := dc.index[key]
	return ok
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Capacity = dc.capacity
	stats.Size = dc.size
	stats.Items = int64(len(dc.index))
	return stats
}

// Close releases the codec resources.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	return dc.encoder.Close()
}

func (dc *DiskCache) scan() error {
	entries, err := os.ReadDir(dc.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(dc.dir, name)
		if strings.HasSuffix(name, ".tmp") {
			_ = os.Remove(path)
			continue
		}
		key, ok := strings.CutSuffix(name, diskExt)
		if !ok || e.IsDir() || !validKey(key) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dc.index[key] = &diskEntry{path: path, size: info.Size(), lastAccess: info.ModTime()}
		dc.size += info.Size()
	}

	log.Debug("Disk cache opened", "dir", dc.dir, "items", len(dc.index), "size", dc.size)
	return nil
}

func (dc *DiskCache) evictOldestLocked() {
	var oldestKey string
	var oldest *diskEntry
	for key, entry := range dc.index {
		if oldest == nil || entry.lastAccess.Before(oldest.lastAccess) {
			oldestKey, oldest = key, entry
		}
	}
	if oldest != nil {
		dc.removeLocked(oldestKey, oldest)
		dc.stats.Evictions++
	}
}

func (dc *DiskCache) removeLocked(key string, entry *diskEntry) {
	_ = os.Remove(entry.path)
	delete(dc.index, key)
	dc.size -= entry.size
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

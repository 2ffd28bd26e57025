package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when cache data is corrupted
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level represents the cache tier
type Level int

const (
	// LevelL1 represents the memory cache (fastest)
	LevelL1 Level = iota

	// LevelL2 represents the disk cache (persistent)
	LevelL2
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelL1:
		return "L1-Memory"
	case LevelL2:
		return "L2-Disk"
	default:
		return "Unknown"
	}
}

// Stats holds cache performance metrics
type Stats struct {
	Capacity  int64
	Size      int64
	Items     int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses).
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// String formats the stats for humans.
func (s Stats) String() string {
	return fmt.Sprintf("%d items, %s of %s, %.0f%% hit rate, %d evicted",
		s.Items,
		humanize.Bytes(uint64(s.Size)),
		humanize.Bytes(uint64(s.Capacity)),
		s.HitRate()*100,
		s.Evictions)
}

// Config holds configuration for a Manager.
type Config struct {
	// MemoryCapacity bounds the L1 cache in bytes.
	MemoryCapacity int64

	// Dir is the L2 directory. Empty disables the disk cache.
	Dir string
	// DiskCapacity bounds the L2 cache in bytes (compressed).
	DiskCapacity int64
	// CompressionLevel is the zstd level (1-22).
	CompressionLevel int

	// TTL removes disk entries older than this when the cache opens.
	TTL time.Duration
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   16 * 1024 * 1024,  // 16MB
		DiskCapacity:     100 * 1024 * 1024, // 100MB
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
	}
}

// Key derives the cache key for a synthesis request.
func Key(model, voice, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(voice))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

package cache

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Manager coordinates the memory and disk levels. Disk hits are promoted
// to memory.
type Manager struct {
	l1 *MemoryCache
	l2 *DiskCache // nil when the disk cache is disabled

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates hits across levels.
type ManagerStats struct {
	L1Hits  int64
	L2Hits  int64
	Misses  int64
	Memory  Stats
	Disk    Stats
	HasDisk bool
}

// NewManager creates a cache manager.
func NewManager(cfg Config) (*Manager, error) {
	def := DefaultConfig()
	if cfg.MemoryCapacity <= 0 {
		cfg.MemoryCapacity = def.MemoryCapacity
	}
	if cfg.DiskCapacity <= 0 {
		cfg.DiskCapacity = def.DiskCapacity
	}

	m := &Manager{l1: NewMemoryCache(cfg.MemoryCapacity)}

	if cfg.Dir != "" {
		l2, err := NewDiskCache(cfg.Dir, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		if cfg.TTL > 0 {
			if n := l2.Prune(cfg.TTL); n > 0 {
				log.Debug("Pruned expired cache entries", "count", n)
			}
		}
		m.l2 = l2
	}
	return m, nil
}

// Get checks memory, then disk.
func (m *Manager) Get(key string) ([]byte, Level, bool) {
	if data, ok := m.l1.Get(key); ok {
		m.count(func(s *ManagerStats) { s.L1Hits++ })
		return data, LevelL1, true
	}

	if m.l2 != nil {
		if data, ok := m.l2.Get(key); ok {
			m.count(func(s *ManagerStats) { s.L2Hits++ })
			if err := m.l1.Put(key, data); err != nil {
				log.Debug("Cache promotion skipped", "error", err)
			}
			return data, LevelL2, true
		}
	}

	m.count(func(s *ManagerStats) { s.Misses++ })
	return nil, 0, false
}

// Put stores value in every level. An item too large for memory is still
// written to disk.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.l1.Put(key, value); err != nil && err != ErrItemTooLarge {
		return fmt.Errorf("L1 cache error: %w", err)
	}
	if m.l2 != nil {
		if err := m.l2.Put(key, value); err != nil {
			return fmt.Errorf("L2 cache error: %w", err)
		}
	}
	return nil
}

// Delete removes key from every level.
func (m *Manager) Delete(key string) {
	m.l1.Delete(key)
	if m.l2 != nil {
		m.l2.Delete(key)
	}
}

// Stats returns aggregated statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	s := m.stats
	m.mu.Unlock()

	s.Memory = m.l1.Stats()
	if m.l2 != nil {
		s.HasDisk = true
		s.Disk = m.l2.Stats()
	}
	return s
}

// Close closes the disk level.
func (m *Manager) Close() error {
	if m.l2 != nil {
		return m.l2.Close()
	}
	return nil
}

func (m *Manager) count(f func(*ManagerStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.stats)
}

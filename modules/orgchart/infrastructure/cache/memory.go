package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

// MemoryCache keeps one snapshot in process memory.
type MemoryCache struct {
	mu       sync.RWMutex
	snapshot []employee.Employee
	storedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryCache returns a cache whose entry expires after ttl. A zero ttl
// keeps the entry until it is invalidated.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context) ([]employee.Employee, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().Sub(c.storedAt) >= c.ttl {
		return nil, false, nil
	}
	return copySnapshot(c.snapshot), true, nil
}

func (c *MemoryCache) Set(_ context.Context, snapshot []employee.Employee) error {
	cp := copySnapshot(snapshot)
	if cp == nil {
		cp = []employee.Employee{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = cp
	c.storedAt = c.now()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	return nil
}

func copySnapshot(in []employee.Employee) []employee.Employee {
	if in == nil {
		return nil
	}
	out := slices.Clone(in)
	for i := range out {
		if out[i].ManagerID != nil {
			id := *out[i].ManagerID
			out[i].ManagerID = &id
		}
	}
	return out
}

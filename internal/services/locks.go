package services

import "sync"

// productLocks serializes mutating operations per product id: at most one
// in-flight mutation per product, full parallelism across products. Entries
// are never evicted; the map is bounded by the catalog size.
type productLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newProductLocks() *productLocks {
	return &productLocks{m: make(map[string]*sync.Mutex)}
}

func (l *productLocks) lock(productID string) func() {
	l.mu.Lock()
	pl, ok := l.m[productID]
	if !ok {
		pl = &sync.Mutex{}
		l.m[productID] = pl
	}
	l.mu.Unlock()

	pl.Lock()
	return pl.Unlock
}

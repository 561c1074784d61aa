package usecase

import "sync"

// ScanGuard lets at most one queue scan run in this process. It never
// blocks: a caller that finds it held skips its scan.
type ScanGuard struct {
	mu sync.Mutex
}

func NewScanGuard() *ScanGuard {
	return &ScanGuard{}
}

func (g *ScanGuard) TryAcquire() (release func(), ok bool) {
	if !g.mu.TryLock() {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(g.mu.Unlock) }, true
}

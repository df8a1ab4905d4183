package matching

import "sync"

// instrumentLocks hands out one mutex per instrument so writers on the same
// instrument run one at a time while different instruments proceed in parallel
type instrumentLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newInstrumentLocks() *instrumentLocks {
	return &instrumentLocks{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until the instrument is free and returns its unlock func
func (l *instrumentLocks) lock(instrument string) func() {
	l.mu.Lock()
	m, ok := l.locks[instrument]
	if !ok {
		m = &sync.Mutex{}
		l.locks[instrument] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

package lock

import "sync"

// MemLocker is a process-local Locker backed by a plain map. It is the
// right choice for a single scheduler instance; a multi-instance
// deployment should use RaftLocker instead so two instances never
// admit the same candidate concurrently.
type MemLocker struct {
	mu    sync.Mutex
	held  map[string]string // name -> holder
}

// NewMemLocker returns an empty MemLocker.
func NewMemLocker() *MemLocker {
	return &MemLocker{held: make(map[string]string)}
}

func (l *MemLocker) TryLock(name, holder string) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.held[name]; ok && existing != holder {
		return nil, &HeldError{Name: name, Holder: existing}
	}
	l.held[name] = holder
	return &memLock{locker: l, name: name, holder: holder}, nil
}

func (l *MemLocker) release(name, holder string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] == holder {
		delete(l.held, name)
	}
}

type memLock struct {
	locker   *MemLocker
	name     string
	holder   string
	released bool
	mu       sync.Mutex
}

func (m *memLock) Name() string   { return m.name }
func (m *memLock) Holder() string { return m.holder }

func (m *memLock) Unlock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil
	}
	m.released = true
	m.locker.release(m.name, m.holder)
	return nil
}

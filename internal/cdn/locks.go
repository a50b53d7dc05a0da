package cdn

import "sync"

// nameLocks serializes mutations of the same entry name within the process.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*nameLock
}

type nameLock struct {
	sync.Mutex
	refs int
}

func newNameLocks() *nameLocks {
	return &nameLocks{locks: make(map[string]*nameLock)}
}

// lock blocks until name is free and returns its release func.
func (n *nameLocks) lock(name string) func() {
	n.mu.Lock()

	l, ok := n.locks[name]
	if !ok {
		l = &nameLock{}
		n.locks[name] = l
	}

	l.refs++
	n.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		n.mu.Lock()
		defer n.mu.Unlock()

		l.refs--
		if l.refs == 0 {
			delete(n.locks, name)
		}
	}
}

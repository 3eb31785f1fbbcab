package incident

import (
	"sync"

	"github.com/vigil-monitoring/vigil/pkg/model"
)

// identityLocks serialises lifecycle decisions per endpoint identity so two
// workers handling the same endpoint cannot interleave their
// read-decide-write sequences.
type identityLocks struct {
	mu    sync.Mutex
	locks map[model.Identity]*sync.Mutex
}

func newIdentityLocks() *identityLocks {
	return &identityLocks{locks: make(map[model.Identity]*sync.Mutex)}
}

func (l *identityLocks) lock(id model.Identity) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

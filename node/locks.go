package node

import "sync"

// Locks hands out one mutex per node id. Every flow that reads
// aggregate usage and then writes a reservation (provisioning, split,
// transfer admission) must hold the node's mutex across the whole
// check-and-reserve sequence, otherwise two concurrent requests can
// both observe headroom and both commit.
type Locks struct {
	mtx   sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sync.Mutex)}
}

func (l *Locks) Mutex(nodeID string) *sync.Mutex {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	m, ok := l.locks[nodeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[nodeID] = m
	}
	return m
}

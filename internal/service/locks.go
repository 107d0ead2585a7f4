package service

import "sync"

// roomLocks hands out one mutex per room so that all mutations of a single
// room are serialized while different rooms never contend. Entries are never
// removed: dropping one while a goroutine still waits on it would let a
// recreated room run under two different mutexes for the same code.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *roomLocks) get(roomCode string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[roomCode]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[roomCode] = lock
	}
	return lock
}

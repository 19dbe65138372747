package shared

import "sync"

// KeyedMutex serializes work per key (a user or a product) while letting
// different keys proceed in parallel. Idle keys are released.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*refLock)}
}

// Lock blocks until key is free and returns the matching unlock func
func (k *KeyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of keys currently held or waited on
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

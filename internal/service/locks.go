package service

import "sync"

// EntityLocks serializes mutations per session and per game. Locks for
// different entities never contend. Locks are always taken in the order
// user, session, game.
type EntityLocks struct {
	users    keyedMutex
	sessions keyedMutex
	games    keyedMutex
}

// NewEntityLocks creates an empty lock table
func NewEntityLocks() *EntityLocks {
	return &EntityLocks{}
}

// User locks session creation for one user and returns its unlock function
func (l *EntityLocks) User(id string) func() {
	return l.users.lock(id)
}

// Session locks the session and returns its unlock function
func (l *EntityLocks) Session(id string) func() {
	return l.sessions.lock(id)
}

// Game locks the game and returns its unlock function
func (l *EntityLocks) Game(id string) func() {
	return l.games.lock(id)
}

// keyedMutex hands out one mutex per key and forgets it once no goroutine
// holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

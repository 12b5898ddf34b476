package services

import (
	"sync"

	"github.com/google/uuid"
)

// ConversationLocker serializes state transitions per conversation. The
// state machine's read-modify-write of assessment state is not safe under
// concurrent mutation, so at most one transition runs per conversation id at
// a time; distinct conversations proceed in parallel.
type ConversationLocker interface {
	// Lock blocks until the conversation's mutex is held and returns the
	// release function.
	Lock(id uuid.UUID) func()
}

type convLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func NewConversationLocker() ConversationLocker {
	return &convLocker{locks: map[uuid.UUID]*convLock{}}
}

func (l *convLocker) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &convLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestLockSerializesSameConversation(t *testing.T) {
	locker := NewConversationLocker()
	id := uuid.New()

	const workers = 16
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			release := locker.Lock(id)
			defer release()
			// Unsynchronized increment; the race detector flags any overlap.
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("expected %d increments, got %d", workers, counter)
	}
}

func TestLockDistinctConversationsDoNotBlock(t *testing.T) {
	locker := NewConversationLocker()

	releaseA := locker.Lock(uuid.New())
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := locker.Lock(uuid.New())
		release()
		close(done)
	}()

	select {
	case <-done:
	default:
		// Give the goroutine a chance to run; if it deadlocked behind the
		// first lock this receive hangs and the test times out.
		<-done
	}
}

func TestLockEntryReleasedWhenUncontended(t *testing.T) {
	locker := NewConversationLocker().(*convLocker)
	id := uuid.New()

	release := locker.Lock(id)
	release()

	locker.mu.Lock()
	defer locker.mu.Unlock()
	if len(locker.locks) != 0 {
		t.Fatalf("expected lock table to be empty, have %d entries", len(locker.locks))
	}
}

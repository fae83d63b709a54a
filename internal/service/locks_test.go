package service

import (
	"sync"
	"testing"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	t.Parallel()
	var k keyedMutex

	counter := 0
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.lock("g1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
	if n := k.size(); n != 0 {
		t.Errorf("size() = %d after all unlocks, want 0", n)
	}
}

func TestKeyedMutex_DifferentKeysDoNotContend(t *testing.T) {
	t.Parallel()
	var k keyedMutex

	unlockA := k.lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := k.lock("b")
		unlockB()
		close(done)
	}()
	<-done

	if n := k.size(); n != 1 {
		t.Errorf("size() = %d while a is held, want 1", n)
	}
	unlockA()
	if n := k.size(); n != 0 {
		t.Errorf("size() = %d, want 0", n)
	}
}

func TestEntityLocks_IndependentTables(t *testing.T) {
	t.Parallel()
	locks := NewEntityLocks()

	// the same ID in different tables must not deadlock
	unlockUser := locks.User("x")
	unlockSession := locks.Session("x")
	unlockGame := locks.Game("x")
	unlockGame()
	unlockSession()
	unlockUser()
}

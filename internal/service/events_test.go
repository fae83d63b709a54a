package service

import (
	"sync"
	"testing"
	"time"
)

func TestEventHub_BroadcastAndUserSubscribers(t *testing.T) {
	t.Parallel()
	hub := NewEventHub(4)
	defer hub.Close()

	all := hub.Subscribe("archiver")
	alice := hub.SubscribeUser("alice", "alice-1")
	bob := hub.SubscribeUser("bob", "bob-1")

	hub.Publish(&Event{Type: EventGameCompleted, UserID: "alice", GameID: "g1"})

	select {
	case e := <-all.Events:
		if e.GameID != "g1" {
			t.Errorf("broadcast subscriber got %+v", e)
		}
	default:
		t.Fatal("broadcast subscriber got nothing")
	}
	select {
	case e := <-alice.Events:
		if e.UserID != "alice" {
			t.Errorf("user subscriber got %+v", e)
		}
	default:
		t.Fatal("user subscriber got nothing")
	}
	select {
	case e := <-bob.Events:
		t.Errorf("other user received %+v", e)
	default:
	}
}

func TestEventHub_PublishNeverBlocks(t *testing.T) {
	t.Parallel()
	hub := NewEventHub(2)
	defer hub.Close()
	hub.Subscribe("slow")

	done := make(chan struct{})
	go func() {
		for range 10 {
			hub.Publish(&Event{Type: EventSessionCompleted, UserID: "u1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if got := hub.Dropped(); got != 8 {
		t.Errorf("Dropped() = %d, want 8", got)
	}
}

func TestEventHub_UnsubscribeClosesChannels(t *testing.T) {
	t.Parallel()
	hub := NewEventHub(1)

	sub := hub.Subscribe("s1")
	hub.Unsubscribe("s1")
	if _, ok := <-sub.Events; ok {
		t.Error("Events still open after Unsubscribe")
	}
	<-sub.Done

	userSub := hub.SubscribeUser("u1", "s2")
	hub.UnsubscribeUser("u1", "s2")
	if _, ok := <-userSub.Events; ok {
		t.Error("user Events still open after UnsubscribeUser")
	}

	// publishing with no subscribers and a nil event are both no-ops
	hub.Publish(&Event{Type: EventSessionAborted, UserID: "u1"})
	hub.Publish(nil)
	hub.Close()
}

func TestEventHub_ConcurrentPublishAndSubscribe(t *testing.T) {
	t.Parallel()
	hub := NewEventHub(16)
	defer hub.Close()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				hub.Publish(&Event{Type: EventGameCompleted, UserID: "u1"})
			}
		}()
		go func(id int) {
			defer wg.Done()
			name := string(rune('a' + id))
			hub.SubscribeUser("u1", name)
			hub.UnsubscribeUser("u1", name)
		}(i)
	}
	wg.Wait()
}

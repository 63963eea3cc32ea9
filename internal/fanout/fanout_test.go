package fanout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	b := New(8)
	sub := b.Subscribe(Filter{})
	defer b.Unsubscribe(sub)

	b.Publish(Event{Type: EventRunStarted, ScriptID: 1})

	select {
	case e := <-sub.C:
		require.Equal(t, EventRunStarted, e.Type)
		require.EqualValues(t, 1, e.ScriptID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestFilterByScriptIDExcludesOthers(t *testing.T) {
	b := New(8)
	one := uint(1)
	sub := b.Subscribe(Filter{ScriptID: &one})
	defer b.Unsubscribe(sub)

	b.Publish(Event{Type: EventRunStarted, ScriptID: 2})
	b.Publish(Event{Type: EventRunStarted, ScriptID: 1})

	select {
	case e := <-sub.C:
		require.EqualValues(t, 1, e.ScriptID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestPublishStampsTimestamp(t *testing.T) {
	b := New(8)
	sub := b.Subscribe(Filter{})
	defer b.Unsubscribe(sub)

	before := time.Now()
	b.Publish(Event{Type: EventRunStarted})

	select {
	case e := <-sub.C:
		require.False(t, e.Timestamp.Before(before))
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestConcurrentUnsubscribeDuringPublishDoesNotPanic(t *testing.T) {
	b := New(8)
	for i := 0; i < 50; i++ {
		sub := b.Subscribe(Filter{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			b.Unsubscribe(sub)
		}()
		b.Publish(Event{Type: EventRunStarted})
		<-done
	}
}

func TestOverflowDropsOldestAndBumpsLag(t *testing.T) {
	b := New(2)
	sub := b.Subscribe(Filter{})
	defer b.Unsubscribe(sub)

	b.Publish(Event{Type: EventRunStdout, Seq: 1})
	b.Publish(Event{Type: EventRunStdout, Seq: 2})
	b.Publish(Event{Type: EventRunStdout, Seq: 3})

	require.Equal(t, uint64(1), sub.Lag())

	first := <-sub.C
	require.Equal(t, uint64(2), first.Seq)
}

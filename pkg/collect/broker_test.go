package collect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, c chan T) (T, bool) {
	t.Helper()
	select {
	case v, ok := <-c:
		return v, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broker")
	}
	var zero T
	return zero, false
}

func TestBrokerBroadcast(t *testing.T) {
	b := NewBroker[int]()
	go b.Start()
	defer b.Stop()

	first := b.Subscribe()
	second := b.Subscribe()
	require.NotNil(t, first)
	require.NotNil(t, second)

	b.Broadcast(7)

	v, ok := receive(t, first)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	v, ok = receive(t, second)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker[string]()
	go b.Start()
	defer b.Stop()

	c := b.Subscribe()
	b.Unsubscribe(c)

	_, ok := receive(t, c)
	assert.False(t, ok, "unsubscribed channel is closed")

	// unknown channels are ignored
	b.Unsubscribe(make(chan string))
}

func TestBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker[int]()
	go b.Start()
	defer b.Stop()

	slow := b.Subscribe()
	for i := 0; i < 50; i++ {
		b.Broadcast(i)
	}

	fast := b.Subscribe()
	b.Broadcast(99)

	for {
		v, ok := receive(t, fast)
		require.True(t, ok)
		if v == 99 {
			break
		}
	}
	assert.LessOrEqual(t, len(slow), cap(slow))
}

func TestBrokerStop(t *testing.T) {
	b := NewBroker[int]()
	go b.Start()

	c := b.Subscribe()
	b.Stop()
	b.Stop()

	_, ok := receive(t, c)
	assert.False(t, ok)
	assert.Nil(t, b.Subscribe())

	// no panics after stop
	b.Broadcast(1)
	b.Unsubscribe(c)
}

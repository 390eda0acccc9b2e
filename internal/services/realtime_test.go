package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	written chan MiningEvent
	closed  chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		written: make(chan MiningEvent, 8),
		closed:  make(chan struct{}, 1),
	}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.written <- v.(MiningEvent)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed <- struct{}{}
	return nil
}

func TestFanOutDeliversToOwner(t *testing.T) {
	conn := newFakeConn()
	RegisterMiningConn("user-a", conn)
	defer UnregisterMiningConn("user-a", conn)

	FanOutMiningEvent(MiningEvent{Type: EventMiningUpdate, UserID: "user-a"})

	select {
	case evt := <-conn.written:
		assert.Equal(t, EventMiningUpdate, evt.Type)
		assert.Equal(t, "user-a", evt.UserID)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestFanOutIgnoresUnconnectedUsers(t *testing.T) {
	conn := newFakeConn()
	RegisterMiningConn("user-b", conn)
	defer UnregisterMiningConn("user-b", conn)

	FanOutMiningEvent(MiningEvent{Type: EventMiningUpdate, UserID: "someone-else"})

	select {
	case <-conn.written:
		t.Fatal("event delivered to the wrong user")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegisterReplacesAndClosesOldConn(t *testing.T) {
	old := newFakeConn()
	RegisterMiningConn("user-c", old)
	replacement := newFakeConn()
	RegisterMiningConn("user-c", replacement)
	defer UnregisterMiningConn("user-c", replacement)

	select {
	case <-old.closed:
	case <-time.After(time.Second):
		t.Fatal("old connection was not closed")
	}

	// Closing the old connection makes its handler's read loop exit and
	// run its deferred unregister. That late cleanup must not evict the
	// replacement.
	UnregisterMiningConn("user-c", old)

	FanOutMiningEvent(MiningEvent{Type: EventMiningComplete, UserID: "user-c"})
	select {
	case evt := <-replacement.written:
		require.Equal(t, EventMiningComplete, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("replacement connection did not receive the event")
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	conn := newFakeConn()
	RegisterMiningConn("user-d", conn)
	UnregisterMiningConn("user-d", conn)

	FanOutMiningEvent(MiningEvent{Type: EventMiningUpdate, UserID: "user-d"})

	select {
	case <-conn.written:
		t.Fatal("event delivered after unregister")
	case <-time.After(50 * time.Millisecond):
	}
}

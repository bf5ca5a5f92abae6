package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/events"
)

func newTestHub() *Hub {
	return NewHub(zap.NewNop().Sugar())
}

func drain(t *testing.T, c *Client) *Envelope {
	t.Helper()
	select {
	case frame := <-c.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return &env
	default:
		return nil
	}
}

func TestRegisterJoinsPersonalRoom(t *testing.T) {
	hub := newTestHub()
	c := NewClient("conn-1", "alice", nil)
	hub.Register(c)

	assert.Equal(t, []string{"alice"}, hub.MembersOf(events.UserRoom("alice")))
}

func TestBroadcastReachesAllRoomMembers(t *testing.T) {
	hub := newTestHub()
	a := NewClient("conn-a", "alice", nil)
	b := NewClient("conn-b", "bob", nil)
	hub.Register(a)
	hub.Register(b)

	room := events.ConversationRoom("k1")
	hub.Join(room, a)
	hub.Join(room, b)

	hub.Broadcast(room, "new_message", map[string]string{"id": "m1"})

	for _, c := range []*Client{a, b} {
		env := drain(t, c)
		require.NotNil(t, env)
		assert.Equal(t, "new_message", env.Event)
	}
}

func TestBroadcastExceptSkipsOriginator(t *testing.T) {
	hub := newTestHub()
	a := NewClient("conn-a", "alice", nil)
	b := NewClient("conn-b", "bob", nil)
	hub.Register(a)
	hub.Register(b)

	room := events.ConversationRoom("k1")
	hub.Join(room, a)
	hub.Join(room, b)

	hub.BroadcastExcept(room, "conn-a", "user_typing", map[string]string{"user_id": "alice"})

	assert.Nil(t, drain(t, a))
	env := drain(t, b)
	require.NotNil(t, env)
	assert.Equal(t, "user_typing", env.Event)
}

func TestPersonalRoomFansOutToAllDevices(t *testing.T) {
	hub := newTestHub()
	phone := NewClient("conn-phone", "alice", nil)
	laptop := NewClient("conn-laptop", "alice", nil)
	hub.Register(phone)
	hub.Register(laptop)

	hub.Broadcast(events.UserRoom("alice"), "message_notification", map[string]int{"unread_count": 3})

	require.NotNil(t, drain(t, phone))
	require.NotNil(t, drain(t, laptop))
}

func TestUnregisterReportsRemainingConnections(t *testing.T) {
	hub := newTestHub()
	phone := NewClient("conn-phone", "alice", nil)
	laptop := NewClient("conn-laptop", "alice", nil)
	hub.Register(phone)
	hub.Register(laptop)

	assert.Equal(t, 1, hub.Unregister(phone))
	assert.Equal(t, 0, hub.Unregister(laptop))
	assert.Empty(t, hub.MembersOf(events.UserRoom("alice")))
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	hub := newTestHub()
	a := NewClient("conn-a", "alice", nil)
	b := NewClient("conn-b", "bob", nil)
	hub.Register(a)
	hub.Register(b)

	room := events.ConversationRoom("k1")
	hub.Join(room, a)
	hub.Join(room, b)
	hub.Unregister(a)

	assert.Equal(t, []string{"bob"}, hub.MembersOf(room))

	// Broadcast after unregister must not deliver to the closed client.
	hub.Broadcast(room, "new_message", map[string]string{"id": "m1"})
	require.NotNil(t, drain(t, b))
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	hub := newTestHub()
	c := NewClient("conn-1", "alice", nil)
	hub.Register(c)
	hub.Unregister(c)
	assert.NotPanics(t, func() { hub.Unregister(c) })
}

func TestLeaveRemovesOnlyThatRoom(t *testing.T) {
	hub := newTestHub()
	a := NewClient("conn-a", "alice", nil)
	hub.Register(a)

	room := events.ConversationRoom("k1")
	hub.Join(room, a)
	hub.Leave(room, a)

	assert.Empty(t, hub.MembersOf(room))
	assert.Equal(t, []string{"alice"}, hub.MembersOf(events.UserRoom("alice")))
}

func TestEnqueueAfterDisconnectDropsFrame(t *testing.T) {
	hub := newTestHub()
	a := NewClient("conn-a", "alice", nil)
	b := NewClient("conn-b", "bob", nil)
	hub.Register(a)
	hub.Register(b)

	hub.Unregister(a)
	assert.NotPanics(t, func() { a.Enqueue([]byte(`{}`)) })

	// Hub shutdown may race a read loop still emitting an error frame.
	hub.Close()
	assert.NotPanics(t, func() { b.Enqueue([]byte(`{}`)) })
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	hub := newTestHub()
	assert.NotPanics(t, func() {
		hub.Broadcast(events.ConversationRoom("ghost"), "new_message", nil)
	})
}

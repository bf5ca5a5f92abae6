package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/models"
)

type broadcastCall struct {
	room   string
	except string
	event  string
	data   any
}

type captureBroadcaster struct {
	calls []broadcastCall
}

func (b *captureBroadcaster) Broadcast(room, event string, data any) {
	b.calls = append(b.calls, broadcastCall{room: room, event: event, data: data})
}

func (b *captureBroadcaster) BroadcastExcept(room, exceptConnID, event string, data any) {
	b.calls = append(b.calls, broadcastCall{room: room, except: exceptConnID, event: event, data: data})
}

func (b *captureBroadcaster) find(event string) *broadcastCall {
	for i := range b.calls {
		if b.calls[i].event == event {
			return &b.calls[i]
		}
	}
	return nil
}

type stubCounter struct {
	count int64
	err   error
}

func (s stubCounter) UnreadCount(context.Context, string) (int64, error) {
	return s.count, s.err
}

func testMessage() *models.MessageWithProfiles {
	return &models.MessageWithProfiles{
		Message: models.Message{
			ID:             "m1",
			ConversationID: "k1",
			SenderID:       "alice",
			ReceiverID:     "bob",
			Content:        "hello",
			MessageType:    models.MessageTypeText,
		},
	}
}

func TestMessageCreatedEmitsToThreadAndReceiver(t *testing.T) {
	hub := &captureBroadcaster{}
	fanout := NewFanout(hub, nil, stubCounter{count: 4}, zap.NewNop().Sugar())

	msg := testMessage()
	fanout.MessageCreated(context.Background(), msg)

	require.Len(t, hub.calls, 2)

	thread := hub.find(NewMessage)
	require.NotNil(t, thread)
	assert.Equal(t, ConversationRoom("k1"), thread.room)
	assert.Equal(t, msg, thread.data)

	badge := hub.find(MessageNotification)
	require.NotNil(t, badge)
	assert.Equal(t, UserRoom("bob"), badge.room)
	payload, ok := badge.data.(notificationPayload)
	require.True(t, ok)
	assert.Equal(t, msg, payload.Message)
	assert.Equal(t, int64(4), payload.UnreadCount)
}

func TestMessageCreatedSurvivesUnreadCountFailure(t *testing.T) {
	hub := &captureBroadcaster{}
	fanout := NewFanout(hub, nil, stubCounter{err: errors.New("store down")}, zap.NewNop().Sugar())

	fanout.MessageCreated(context.Background(), testMessage())

	badge := hub.find(MessageNotification)
	require.NotNil(t, badge)
	payload := badge.data.(notificationPayload)
	assert.Zero(t, payload.UnreadCount)
}

func TestMessagesReadExcludesOriginatingConnection(t *testing.T) {
	hub := &captureBroadcaster{}
	fanout := NewFanout(hub, nil, stubCounter{}, zap.NewNop().Sugar())

	fanout.MessagesRead("k1", "bob", "conn-7")

	require.Len(t, hub.calls, 1)
	call := hub.calls[0]
	assert.Equal(t, MessagesRead, call.event)
	assert.Equal(t, ConversationRoom("k1"), call.room)
	assert.Equal(t, "conn-7", call.except)
	assert.Equal(t, readPayload{ConversationID: "k1", ReadBy: "bob"}, call.data)
}

func TestMessagesReadFromRestReachesEveryone(t *testing.T) {
	hub := &captureBroadcaster{}
	fanout := NewFanout(hub, nil, stubCounter{}, zap.NewNop().Sugar())

	fanout.MessagesRead("k1", "bob", "")

	require.Len(t, hub.calls, 1)
	assert.Empty(t, hub.calls[0].except)
}

func TestTypingEventNames(t *testing.T) {
	hub := &captureBroadcaster{}
	fanout := NewFanout(hub, nil, stubCounter{}, zap.NewNop().Sugar())

	fanout.Typing("k1", "alice", "conn-1", false)
	fanout.Typing("k1", "alice", "conn-1", true)

	require.Len(t, hub.calls, 2)
	assert.Equal(t, UserTyping, hub.calls[0].event)
	assert.Equal(t, UserStopTyping, hub.calls[1].event)
	assert.Equal(t, "conn-1", hub.calls[0].except)
}

func TestConversationDeletedNotifiesPeersAndRoom(t *testing.T) {
	hub := &captureBroadcaster{}
	fanout := NewFanout(hub, nil, stubCounter{}, zap.NewNop().Sugar())

	conv := &models.Conversation{
		ID:           "k1",
		Participants: []string{"alice", "bob"},
		ClientID:     "alice",
		ExpertID:     "bob",
	}
	fanout.ConversationDeleted(conv, "alice")

	require.Len(t, hub.calls, 2)
	assert.Equal(t, UserRoom("bob"), hub.calls[0].room)
	assert.Equal(t, ConversationRoom("k1"), hub.calls[1].room)
	for _, call := range hub.calls {
		assert.Equal(t, ConversationDeleted, call.event)
		assert.Equal(t, deletedPayload{ConversationID: "k1", DeletedBy: "alice"}, call.data)
	}
}

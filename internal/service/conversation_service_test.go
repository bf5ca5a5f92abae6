package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/apperror"
	"github.com/automatehub/messaging/internal/models"
	"github.com/automatehub/messaging/internal/repository/memory"
)

const (
	clientID      = "user-client"
	expertUserID  = "user-expert"
	expertProfile = "expert-profile-1"
	outsiderID    = "user-outsider"
)

func newTestEnv(t *testing.T) (*memory.Store, *ConversationService, *MessageService) {
	t.Helper()
	store := memory.NewStore()
	store.AddUser(models.UserSummary{ID: clientID, Name: "Carol Client"})
	store.AddUser(models.UserSummary{ID: expertUserID, Name: "Eve Expert", Title: "Automation Engineer"})
	store.AddUser(models.UserSummary{ID: outsiderID, Name: "Oscar Outsider"})
	store.AddExpert(models.ExpertProfile{ID: expertProfile, UserID: expertUserID, Name: "Eve Expert"})

	log := zap.NewNop().Sugar()
	return store, NewConversationService(store, log), NewMessageService(store, log)
}

func TestStartOrGetIsIdempotent(t *testing.T) {
	_, convs, _ := newTestEnv(t)
	ctx := context.Background()

	first, err := convs.StartOrGet(ctx, clientID, expertProfile)
	require.NoError(t, err)
	second, err := convs.StartOrGet(ctx, clientID, expertProfile)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	list, err := convs.List(ctx, clientID, time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStartOrGetSetsParticipantsAndRoles(t *testing.T) {
	_, convs, _ := newTestEnv(t)

	conv, err := convs.StartOrGet(context.Background(), clientID, expertProfile)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{clientID, expertUserID}, conv.Participants)
	assert.Equal(t, clientID, conv.ClientID)
	assert.Equal(t, expertUserID, conv.ExpertID)
	assert.Empty(t, conv.LastMessage)
	assert.False(t, conv.LastMessageAt.IsZero())
	assert.Equal(t, "Eve Expert", conv.Counterpart.Name)
}

func TestStartOrGetValidation(t *testing.T) {
	_, convs, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := convs.StartOrGet(ctx, clientID, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = convs.StartOrGet(ctx, clientID, "no-such-profile")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = convs.StartOrGet(ctx, expertUserID, expertProfile)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGetIsOpaqueToNonParticipants(t *testing.T) {
	_, convs, _ := newTestEnv(t)
	ctx := context.Background()

	conv, err := convs.StartOrGet(ctx, clientID, expertProfile)
	require.NoError(t, err)

	_, existsErr := convs.Get(ctx, outsiderID, conv.ID)
	_, absentErr := convs.Get(ctx, outsiderID, "no-such-conversation")

	// A non-participant must not be able to distinguish a real id from a
	// fabricated one.
	assert.ErrorIs(t, existsErr, apperror.ErrNotFound)
	assert.ErrorIs(t, absentErr, apperror.ErrNotFound)
	assert.Equal(t, existsErr, absentErr)
}

func TestDeleteCascadesMessages(t *testing.T) {
	store, convs, msgs := newTestEnv(t)
	ctx := context.Background()

	conv, err := convs.StartOrGet(ctx, clientID, expertProfile)
	require.NoError(t, err)
	_, err = msgs.Send(ctx, clientID, conv.ID, expertUserID, "hello", "")
	require.NoError(t, err)
	_, err = msgs.Send(ctx, expertUserID, conv.ID, clientID, "hi", "")
	require.NoError(t, err)

	deleted, err := convs.Delete(ctx, clientID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, deleted.ID)

	_, err = convs.Get(ctx, clientID, conv.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, total, err := store.MessagesByConversation(ctx, conv.ID, 1, 50)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeleteByNonParticipantIsNotFound(t *testing.T) {
	_, convs, _ := newTestEnv(t)
	ctx := context.Background()

	conv, err := convs.StartOrGet(ctx, clientID, expertProfile)
	require.NoError(t, err)

	_, err = convs.Delete(ctx, outsiderID, conv.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// Still intact for a real participant.
	_, err = convs.Get(ctx, expertUserID, conv.ID)
	assert.NoError(t, err)
}

func TestListSortsByRecency(t *testing.T) {
	store, convs, msgs := newTestEnv(t)
	ctx := context.Background()

	store.AddUser(models.UserSummary{ID: "user-expert-2", Name: "Ed Expert"})
	store.AddExpert(models.ExpertProfile{ID: "expert-profile-2", UserID: "user-expert-2"})

	older, err := convs.StartOrGet(ctx, clientID, expertProfile)
	require.NoError(t, err)
	newer, err := convs.StartOrGet(ctx, clientID, "expert-profile-2")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	_, err = msgs.Send(ctx, clientID, older.ID, expertUserID, "bump", "")
	require.NoError(t, err)

	list, err := convs.List(ctx, clientID, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)

	// Cursor: everything strictly older than the newest entry.
	page, err := convs.List(ctx, clientID, list[0].LastMessageAt, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, newer.ID, page[0].ID)
}

func TestListAttachesCounterpartProfile(t *testing.T) {
	_, convs, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := convs.StartOrGet(ctx, clientID, expertProfile)
	require.NoError(t, err)

	fromClient, err := convs.List(ctx, clientID, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, fromClient, 1)
	assert.Equal(t, expertUserID, fromClient[0].Counterpart.ID)
	assert.Equal(t, "Eve Expert", fromClient[0].Counterpart.Name)

	fromExpert, err := convs.List(ctx, expertUserID, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, fromExpert, 1)
	assert.Equal(t, clientID, fromExpert[0].Counterpart.ID)
	assert.Equal(t, "Carol Client", fromExpert[0].Counterpart.Name)
}

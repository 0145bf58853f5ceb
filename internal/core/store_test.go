package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BathiyaRanasinghe/safe-zone/internal/core"
	database "github.com/BathiyaRanasinghe/safe-zone/internal/db"
)

const (
	testUser      = "temp-user-id"
	testOtherUser = "other_user"
)

func newStore(t *testing.T) *core.Store {
	pg := database.StartTestPostgres(t)
	return &core.Store{DB: pg}
}

func createMib(t *testing.T, s *core.Store, userID string, emails ...string) int64 {
	t.Helper()
	id, err := s.CreateMib(context.Background(), core.CreateParams{
		UserID:   userID,
		Message:  "test",
		SendTime: time.Now().UTC(),
		Emails:   emails,
	})
	require.NoError(t, err)
	return id
}

func countMessages(t *testing.T, s *core.Store, userID string) int {
	t.Helper()
	var n int
	err := s.DB.Pool.QueryRow(context.Background(),
		`SELECT count(*) FROM messages WHERE user_id=$1`, userID).Scan(&n)
	require.NoError(t, err)
	return n
}

func countRecipients(t *testing.T, s *core.Store, messageID int64) int {
	t.Helper()
	var n int
	err := s.DB.Pool.QueryRow(context.Background(),
		`SELECT count(*) FROM email_recipients WHERE message_id=$1`, messageID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestCreateMib_PersistsMessageAndRecipients(t *testing.T) {
	s := newStore(t)
	id := createMib(t, s, testUser, "a@b.com", "c@d.com")

	mibs, err := s.GetMibsForUser(context.Background(), testUser, &id)
	require.NoError(t, err)
	require.Len(t, mibs, 1)

	m := mibs[0]
	require.Equal(t, id, m.MessageID)
	require.Equal(t, testUser, m.UserID)
	require.Equal(t, "test", m.Message)
	require.False(t, m.Sent)
	require.Nil(t, m.LastSentTime)

	require.Len(t, m.EmailRecipients, 2)
	require.Equal(t, "a@b.com", m.EmailRecipients[0].Email)
	require.Equal(t, "c@d.com", m.EmailRecipients[1].Email)
	for _, rec := range m.EmailRecipients {
		require.False(t, rec.Sent)
		require.Nil(t, rec.SendAttemptTime)
	}
}

func TestDeleteAll_NoMibs(t *testing.T) {
	s := newStore(t)
	deleted, err := s.DeleteMibsForUser(context.Background(), testUser, nil)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestDeleteAll_OtherUserUntouched(t *testing.T) {
	s := newStore(t)
	createMib(t, s, testOtherUser, "x@y.com")

	deleted, err := s.DeleteMibsForUser(context.Background(), testUser, nil)
	require.NoError(t, err)
	require.False(t, deleted)
	require.Equal(t, 1, countMessages(t, s, testOtherUser))
}

func TestDeleteAll_RemovesEverythingOwned(t *testing.T) {
	s := newStore(t)
	createMib(t, s, testUser, "a@b.com")
	createMib(t, s, testUser, "c@d.com")
	keep := createMib(t, s, testOtherUser, "x@y.com")

	deleted, err := s.DeleteMibsForUser(context.Background(), testUser, nil)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, 0, countMessages(t, s, testUser))
	require.Equal(t, 1, countMessages(t, s, testOtherUser))
	require.Equal(t, 1, countRecipients(t, s, keep))
}

func TestDeleteSpecific_OnlyThatMib(t *testing.T) {
	s := newStore(t)
	first := createMib(t, s, testUser, "a@b.com")
	second := createMib(t, s, testUser, "c@d.com")

	deleted, err := s.DeleteMibsForUser(context.Background(), testUser, &first)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, 1, countMessages(t, s, testUser))

	remaining, err := s.GetMibsForUser(context.Background(), testUser, nil)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, second, remaining[0].MessageID)
}

func TestDeleteSpecific_OtherUsersMib_NoSideEffects(t *testing.T) {
	s := newStore(t)
	theirs := createMib(t, s, testOtherUser, "x@y.com")

	deleted, err := s.DeleteMibsForUser(context.Background(), testUser, &theirs)
	require.NoError(t, err)
	require.False(t, deleted)
	require.Equal(t, 1, countMessages(t, s, testOtherUser))
	require.Equal(t, 1, countRecipients(t, s, theirs))
}

func TestDeleteSpecific_NonexistentID(t *testing.T) {
	s := newStore(t)
	missing := int64(424242)
	deleted, err := s.DeleteMibsForUser(context.Background(), testUser, &missing)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestDelete_CascadesToRecipients(t *testing.T) {
	s := newStore(t)
	id := createMib(t, s, testUser, "a@b.com", "c@d.com")
	require.Equal(t, 2, countRecipients(t, s, id))

	deleted, err := s.DeleteMibsForUser(context.Background(), testUser, &id)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, 0, countRecipients(t, s, id))
}

func TestGetMibsForUser_EmptyStore(t *testing.T) {
	s := newStore(t)

	mibs, err := s.GetMibsForUser(context.Background(), testUser, nil)
	require.NoError(t, err)
	require.NotNil(t, mibs)
	require.Empty(t, mibs)
}

func TestGetMibsForUser_IDFilter(t *testing.T) {
	s := newStore(t)
	first := createMib(t, s, testUser, "a@b.com")
	createMib(t, s, testUser, "c@d.com")

	one, err := s.GetMibsForUser(context.Background(), testUser, &first)
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, first, one[0].MessageID)

	missing := int64(999999)
	none, err := s.GetMibsForUser(context.Background(), testUser, &missing)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetMibsForUser_ScopedToOwner_IDOrder(t *testing.T) {
	s := newStore(t)
	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, createMib(t, s, testUser, "a@b.com"))
	}
	createMib(t, s, testOtherUser, "x@y.com")

	mibs, err := s.GetMibsForUser(context.Background(), testUser, nil)
	require.NoError(t, err)
	require.Len(t, mibs, 5)
	for i, m := range mibs {
		require.Equal(t, ids[i], m.MessageID)
		require.Equal(t, testUser, m.UserID)
	}
}

package stores

import (
	"context"
	"strings"
	"testing"
	"time"

	"stickgpt/stickgpt/sources/codec"
	"stickgpt/stickgpt/sources/kv"
	"stickgpt/stickgpt/sources/psql/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatStore(storage kv.Storage, opts ...Option) *ChatStore {
	if opts == nil {
		opts = testOptions()
	}
	chats := func(userID string) codec.Collection[models.Chat] {
		return codec.NewKVCollection[models.Chat](storage, codec.UserEntry(ChatsEntry, userID))
	}
	return NewChatStore(chats, storage, opts...)
}

func TestChatStore_AddMessageCreatesChat(t *testing.T) {
	ctx := context.Background()
	s := newChatStore(kv.NewMemoryStorage())

	msg, err := s.AddMessage(ctx, "u1", "chat1", models.RoleUser, "Hello world")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	chat, err := s.Get(ctx, "u1", "chat1")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "Hello world", chat.Title)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, msg, chat.Messages[0])
	assert.False(t, chat.UpdatedAt.Before(chat.CreatedAt))
}

func TestChatStore_TitleTruncation(t *testing.T) {
	ctx := context.Background()
	s := newChatStore(kv.NewMemoryStorage())
	long := strings.Repeat("abcdefghij", 6)

	_, err := s.AddMessage(ctx, "u1", "chat1", models.RoleUser, long)
	require.NoError(t, err)
	chat, err := s.Get(ctx, "u1", "chat1")
	require.NoError(t, err)
	assert.Equal(t, long[:50]+"...", chat.Title)

	_, err = s.AddMessage(ctx, "u1", "chat1", models.RoleUser, "a different question")
	require.NoError(t, err)
	chat, err = s.Get(ctx, "u1", "chat1")
	require.NoError(t, err)
	assert.Equal(t, long[:50]+"...", chat.Title)
	assert.Len(t, chat.Messages, 2)
}

func TestChatStore_TitleFromFirstUserMessageOnly(t *testing.T) {
	ctx := context.Background()
	s := newChatStore(kv.NewMemoryStorage())

	_, err := s.AddMessage(ctx, "u1", "chat1", models.RoleSystem, "You are helpful")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, "u1", "chat1", models.RoleAssistant, "How can I help?")
	require.NoError(t, err)
	chat, _ := s.Get(ctx, "u1", "chat1")
	assert.Equal(t, models.DefaultChatTitle, chat.Title)

	_, err = s.AddMessage(ctx, "u1", "chat1", models.RoleUser, "Compare React vs Vue")
	require.NoError(t, err)
	chat, _ = s.Get(ctx, "u1", "chat1")
	assert.Equal(t, "Compare React vs Vue", chat.Title)
	assert.Equal(t, []string{models.RoleSystem, models.RoleAssistant, models.RoleUser},
		[]string{chat.Messages[0].Role, chat.Messages[1].Role, chat.Messages[2].Role})
}

func TestChatStore_CustomTitleIsKept(t *testing.T) {
	ctx := context.Background()
	s := newChatStore(kv.NewMemoryStorage())

	_, err := s.Create(ctx, "u1", "chat1", "Trip planning")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, "u1", "chat1", models.RoleUser, "Where should I go?")
	require.NoError(t, err)

	chat, _ := s.Get(ctx, "u1", "chat1")
	assert.Equal(t, "Trip planning", chat.Title)
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short", "Hello", "Hello"},
		{"exactly fifty", strings.Repeat("x", 50), strings.Repeat("x", 50)},
		{"fifty one", strings.Repeat("x", 51), strings.Repeat("x", 50) + "..."},
		{"multibyte", strings.Repeat("é", 60), strings.Repeat("é", 50) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.content))
		})
	}
}

func TestChatStore_InvalidRole(t *testing.T) {
	s := newChatStore(kv.NewMemoryStorage())
	_, err := s.AddMessage(context.Background(), "u1", "chat1", "robot", "beep")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestChatStore_AddMessageUnavailableDoesNotLoop(t *testing.T) {
	s := newChatStore(kv.Unavailable{})
	_, err := s.AddMessage(context.Background(), "u1", "chat1", models.RoleUser, "hi")
	assert.ErrorIs(t, err, codec.ErrUnavailable)
}

func TestChatStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := newChatStore(kv.NewMemoryStorage())

	_, err := s.Create(ctx, "u1", "a", "")
	require.NoError(t, err)
	b, err := s.Create(ctx, "u1", "b", "Second")
	require.NoError(t, err)
	assert.Equal(t, "Second", b.Title)
	assert.NotNil(t, b.Messages)
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)

	_, err = s.Create(ctx, "u1", "a", "dup")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	generated, err := s.Create(ctx, "u1", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, generated.ID)
	assert.Equal(t, models.DefaultChatTitle, generated.Title)

	// touching "a" moves it to the front
	_, err = s.AddMessage(ctx, "u1", "a", models.RoleAssistant, "ping")
	require.NoError(t, err)

	chats, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, chats, 3)
	assert.Equal(t, "a", chats[0].ID)
	for i := 1; i < len(chats); i++ {
		assert.False(t, chats[i].UpdatedAt.After(chats[i-1].UpdatedAt))
	}
}

func TestChatStore_ListTiesKeepCollectionOrder(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	s := newChatStore(kv.NewMemoryStorage(), WithClock(func() time.Time { return fixed }))

	for _, id := range []string{"x", "y", "z"} {
		_, err := s.Create(ctx, "u1", id, "")
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		chats, err := s.List(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, []string{chats[0].ID, chats[1].ID, chats[2].ID})
	}
}

func TestChatStore_Update(t *testing.T) {
	ctx := context.Background()
	s := newChatStore(kv.NewMemoryStorage())

	title := "Renamed"
	assert.ErrorIs(t, s.Update(ctx, "u1", "missing", ChatUpdate{Title: &title}), ErrNotFound)

	created, err := s.Create(ctx, "u1", "chat1", "")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, "u1", "chat1", ChatUpdate{Title: &title}))

	chat, _ := s.Get(ctx, "u1", "chat1")
	assert.Equal(t, "Renamed", chat.Title)
	assert.True(t, chat.UpdatedAt.After(created.UpdatedAt))

	require.NoError(t, s.Update(ctx, "u1", "chat1", ChatUpdate{Messages: []models.ChatMessage{{ID: "m", Role: models.RoleUser, Content: "x"}}}))
	chat, _ = s.Get(ctx, "u1", "chat1")
	assert.Len(t, chat.Messages, 1)
	assert.Equal(t, "Renamed", chat.Title)
}

func TestChatStore_UpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(-time.Minute)
		return now
	}
	s := newChatStore(kv.NewMemoryStorage(), WithClock(clock), WithIDGenerator(seqIDs()))

	created, err := s.Create(ctx, "u1", "chat1", "")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, "u1", "chat1", models.RoleUser, "hi")
	require.NoError(t, err)

	chat, _ := s.Get(ctx, "u1", "chat1")
	assert.True(t, chat.UpdatedAt.Equal(created.CreatedAt))
}

func TestChatStore_DeleteAndSearch(t *testing.T) {
	ctx := context.Background()
	s := newChatStore(kv.NewMemoryStorage())

	_, err := s.AddMessage(ctx, "u1", "c1", models.RoleUser, "Explain quantum computing")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, "u1", "c2", models.RoleUser, "Best practices for TypeScript")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, "u1", "c2", models.RoleAssistant, "Use strict mode and QUANTUM leaps")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, "u1", "c3", models.RoleUser, "What is DeepSeek R1?")
	require.NoError(t, err)

	found, err := s.Search(ctx, "u1", "Quantum")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "c2", found[0].ID)
	assert.Equal(t, "c1", found[1].ID)

	require.NoError(t, s.Delete(ctx, "u1", "c1"))
	require.NoError(t, s.Delete(ctx, "u1", "c1"))
	require.NoError(t, s.DeleteMany(ctx, "u1", []string{"c2", "missing"}))

	chats, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "c3", chats[0].ID)
}

func TestChatStore_CurrentChatPointer(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()
	s := newChatStore(storage)

	_, ok, err := s.CurrentChatID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	// the pointer does not need a matching chat
	require.NoError(t, s.SetCurrentChatID(ctx, "u1", "chat42"))
	id, ok, err := s.CurrentChatID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "chat42", id)

	require.NoError(t, s.SetCurrentChatID(ctx, "u1", ""))
	_, ok, err = s.CurrentChatID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChatStore_ClearAll(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()
	s := newChatStore(storage)

	_, err := s.AddMessage(ctx, "u1", "chat1", models.RoleUser, "hi")
	require.NoError(t, err)
	require.NoError(t, s.SetCurrentChatID(ctx, "u1", "chat1"))

	require.NoError(t, s.ClearAll(ctx, "u1"))

	chats, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, chats)
	_, ok, _ := s.CurrentChatID(ctx, "u1")
	assert.False(t, ok)
	_, found, _ := storage.Get(ctx, ChatsEntry+":u1")
	assert.False(t, found, "collection entry is removed, not emptied")
}

func TestChatStore_AddMessageRejectsEmptyChatID(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()
	s := newChatStore(storage)

	_, err := s.AddMessage(ctx, "u1", "", models.RoleUser, "hi")
	assert.ErrorIs(t, err, ErrEmptyChatID)

	chats, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, chats)
	_, found, _ := storage.Get(ctx, ChatsEntry+":u1")
	assert.False(t, found, "nothing is written")
}

func TestChatStore_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := newChatStore(kv.NewMemoryStorage())

	_, err := s.AddMessage(ctx, "alice", "chat1", models.RoleUser, "alice secret")
	require.NoError(t, err)
	require.NoError(t, s.SetCurrentChatID(ctx, "alice", "chat1"))

	chats, err := s.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, chats)
	chat, err := s.Get(ctx, "bob", "chat1")
	require.NoError(t, err)
	assert.Nil(t, chat)
	found, err := s.Search(ctx, "bob", "secret")
	require.NoError(t, err)
	assert.Empty(t, found)
	_, ok, err := s.CurrentChatID(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	// the same id is free for another user
	_, err = s.AddMessage(ctx, "bob", "chat1", models.RoleUser, "bob question")
	require.NoError(t, err)
	require.NoError(t, s.ClearAll(ctx, "bob"))

	chat, err = s.Get(ctx, "alice", "chat1")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "alice secret", chat.Title)
	id, ok, err := s.CurrentChatID(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "chat1", id)
}

func TestChatStore_WritesRequireUser(t *testing.T) {
	ctx := context.Background()
	s := newChatStore(kv.NewMemoryStorage())

	_, err := s.Create(ctx, "", "chat1", "")
	assert.ErrorIs(t, err, ErrMissingUser)
	_, err = s.AddMessage(ctx, "", "chat1", models.RoleUser, "hi")
	assert.ErrorIs(t, err, ErrMissingUser)
	assert.ErrorIs(t, s.SetCurrentChatID(ctx, "", "chat1"), ErrMissingUser)
	assert.ErrorIs(t, s.ClearAll(ctx, ""), ErrMissingUser)
}

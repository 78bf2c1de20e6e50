package stores

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"stickgpt/stickgpt/sources/codec"
	"stickgpt/stickgpt/sources/kv"
	"stickgpt/stickgpt/sources/psql/models"

	"gorm.io/datatypes"
)

const (
	maxTitleRunes = 50
	titleEllipsis = "..."
)

// ChatUpdate carries the fields of a partial chat update. Nil fields are left alone.
type ChatUpdate struct {
	Title    *string
	Messages []models.ChatMessage
}

// ChatStore keeps each user's conversations plus their current chat pointer,
// which lives in its own entry independent of the collection.
type ChatStore struct {
	chats   codec.PerUser[models.Chat]
	pointer kv.Storage
	options
}

func NewChatStore(chats codec.PerUser[models.Chat], pointer kv.Storage, opts ...Option) *ChatStore {
	return &ChatStore{chats: chats, pointer: pointer, options: buildOptions(opts)}
}

// List returns every chat of the user, most recently updated first.
func (s *ChatStore) List(ctx context.Context, userID string) ([]models.Chat, error) {
	chats, err := s.chats(userID).Load(ctx)
	if err != nil {
		return []models.Chat{}, fmt.Errorf("load chats: %w", err)
	}
	sortNewestFirst(chats, func(c models.Chat) time.Time { return c.UpdatedAt })
	return chats, nil
}

// Get returns nil, nil when the user has no chat with the id.
func (s *ChatStore) Get(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	chats, err := s.chats(userID).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chats: %w", err)
	}
	for i := range chats {
		if chats[i].ID == chatID {
			return &chats[i], nil
		}
	}
	return nil, nil
}

// Create appends an empty chat. An empty id gets a generated one and an
// empty title the default title.
func (s *ChatStore) Create(ctx context.Context, userID, chatID, title string) (models.Chat, error) {
	if userID == "" {
		return models.Chat{}, ErrMissingUser
	}
	coll := s.chats(userID)
	chats, err := loadForWrite(ctx, coll)
	if err != nil {
		return models.Chat{}, fmt.Errorf("load chats: %w", err)
	}
	if chatID == "" {
		chatID = s.newID()
	}
	if slices.ContainsFunc(chats, func(c models.Chat) bool { return c.ID == chatID }) {
		return models.Chat{}, fmt.Errorf("chat %s: %w", chatID, ErrAlreadyExists)
	}
	if title == "" {
		title = models.DefaultChatTitle
	}

	now := s.now()
	chat := models.Chat{
		UserID:    userID,
		ID:        chatID,
		Title:     title,
		Messages:  datatypes.JSONSlice[models.ChatMessage]{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := coll.Save(ctx, append(chats, chat)); err != nil {
		return models.Chat{}, fmt.Errorf("save chats: %w", err)
	}
	return chat, nil
}

// Update merges the set fields into the chat and refreshes updated_at.
func (s *ChatStore) Update(ctx context.Context, userID, chatID string, update ChatUpdate) error {
	if userID == "" {
		return ErrMissingUser
	}
	coll := s.chats(userID)
	chats, err := loadForWrite(ctx, coll)
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}
	i := slices.IndexFunc(chats, func(c models.Chat) bool { return c.ID == chatID })
	if i < 0 {
		return fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	if update.Title != nil {
		chats[i].Title = *update.Title
	}
	if update.Messages != nil {
		chats[i].Messages = datatypes.JSONSlice[models.ChatMessage](update.Messages)
	}
	s.touch(&chats[i])
	if err := coll.Save(ctx, chats); err != nil {
		return fmt.Errorf("save chats: %w", err)
	}
	return nil
}

// AddMessage appends a message, creating the chat first when the id is
// unknown. The first user message names a chat still carrying the default title.
func (s *ChatStore) AddMessage(ctx context.Context, userID, chatID, role, content string) (models.ChatMessage, error) {
	switch {
	case userID == "":
		return models.ChatMessage{}, ErrMissingUser
	case chatID == "":
		return models.ChatMessage{}, ErrEmptyChatID
	case !models.ValidRole(role):
		return models.ChatMessage{}, fmt.Errorf("role %q: %w", role, ErrInvalidRole)
	}
	msg, err := s.appendMessage(ctx, userID, chatID, role, content)
	if !errors.Is(err, ErrNotFound) {
		return msg, err
	}
	if _, err := s.Create(ctx, userID, chatID, models.DefaultChatTitle); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return models.ChatMessage{}, err
	}
	// one retry only: if the chat is still missing the save did not stick
	return s.appendMessage(ctx, userID, chatID, role, content)
}

func (s *ChatStore) appendMessage(ctx context.Context, userID, chatID, role, content string) (models.ChatMessage, error) {
	coll := s.chats(userID)
	chats, err := loadForWrite(ctx, coll)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("load chats: %w", err)
	}
	i := slices.IndexFunc(chats, func(c models.Chat) bool { return c.ID == chatID })
	if i < 0 {
		return models.ChatMessage{}, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	chat := &chats[i]

	firstUserMessage := role == models.RoleUser &&
		!slices.ContainsFunc(chat.Messages, func(m models.ChatMessage) bool { return m.Role == models.RoleUser })

	msg := models.ChatMessage{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
	chat.Messages = append(chat.Messages, msg)
	s.touch(chat)

	if firstUserMessage && chat.Title == models.DefaultChatTitle && strings.TrimSpace(content) != "" {
		chat.Title = DeriveTitle(content)
	}

	if err := coll.Save(ctx, chats); err != nil {
		return models.ChatMessage{}, fmt.Errorf("save chats: %w", err)
	}
	return msg, nil
}

// DeriveTitle truncates content to 50 characters, marking the cut with "...".
func DeriveTitle(content string) string {
	if utf8.RuneCountInString(content) <= maxTitleRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxTitleRunes]) + titleEllipsis
}

// touch refreshes updated_at without letting it fall behind created_at.
func (s *ChatStore) touch(chat *models.Chat) {
	now := s.now()
	if now.Before(chat.CreatedAt) {
		now = chat.CreatedAt
	}
	chat.UpdatedAt = now
}

// Delete removes the chat. Deleting an unknown id succeeds.
func (s *ChatStore) Delete(ctx context.Context, userID, chatID string) error {
	return s.DeleteMany(ctx, userID, []string{chatID})
}

// DeleteMany removes every listed chat of the user with a single save.
func (s *ChatStore) DeleteMany(ctx context.Context, userID string, chatIDs []string) error {
	if userID == "" {
		return ErrMissingUser
	}
	coll := s.chats(userID)
	chats, err := loadForWrite(ctx, coll)
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}
	kept := slices.DeleteFunc(chats, func(c models.Chat) bool {
		return slices.Contains(chatIDs, c.ID)
	})
	if err := coll.Save(ctx, kept); err != nil {
		return fmt.Errorf("save chats: %w", err)
	}
	return nil
}

// Search matches term case-insensitively against titles and message contents.
func (s *ChatStore) Search(ctx context.Context, userID, term string) ([]models.Chat, error) {
	chats, err := s.List(ctx, userID)
	if err != nil {
		return chats, err
	}
	term = strings.ToLower(term)
	return slices.DeleteFunc(chats, func(c models.Chat) bool {
		if strings.Contains(strings.ToLower(c.Title), term) {
			return false
		}
		return !slices.ContainsFunc(c.Messages, func(m models.ChatMessage) bool {
			return strings.Contains(strings.ToLower(m.Content), term)
		})
	}), nil
}

// CurrentChatID reports ok=false when the user has no active chat.
func (s *ChatStore) CurrentChatID(ctx context.Context, userID string) (string, bool, error) {
	id, ok, err := s.pointer.Get(ctx, codec.UserEntry(CurrentChatEntry, userID))
	if err != nil {
		return "", false, fmt.Errorf("read current chat: %w", err)
	}
	if !ok || id == "" {
		return "", false, nil
	}
	return id, true, nil
}

// SetCurrentChatID stores the user's pointer; an empty id clears it.
func (s *ChatStore) SetCurrentChatID(ctx context.Context, userID, chatID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	name := codec.UserEntry(CurrentChatEntry, userID)
	var err error
	if chatID == "" {
		err = s.pointer.Remove(ctx, name)
	} else {
		err = s.pointer.Set(ctx, name, chatID)
	}
	if err != nil {
		return fmt.Errorf("write current chat: %w", err)
	}
	return nil
}

// ClearAll drops the user's whole collection and current chat pointer.
func (s *ChatStore) ClearAll(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	var errs []error
	if err := s.chats(userID).Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear chats: %w", err))
	}
	if err := s.pointer.Remove(ctx, codec.UserEntry(CurrentChatEntry, userID)); err != nil {
		errs = append(errs, fmt.Errorf("clear current chat: %w", err))
	}
	return errors.Join(errs...)
}

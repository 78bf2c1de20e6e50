package controllers

import (
	"context"

	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/utils/metrics"
)

// ChatController exposes one user's chats. Every call is scoped to userID.
type ChatController struct {
	store   *stores.ChatStore
	metrics metrics.Collector
}

func NewChatController(store *stores.ChatStore, m metrics.Collector) *ChatController {
	return &ChatController{store: store, metrics: orNoop(m)}
}

func (c *ChatController) GetAllChats(ctx context.Context, userID string) []models.Chat {
	done := track(ctx, c.metrics, "chats.list")
	chats, err := c.store.List(ctx, userID)
	done(err)
	if err != nil {
		return []models.Chat{}
	}
	return chats
}

// GetChat returns nil when the chat is unknown or cannot be read.
func (c *ChatController) GetChat(ctx context.Context, userID, chatID string) *models.Chat {
	done := track(ctx, c.metrics, "chats.get")
	chat, err := c.store.Get(ctx, userID, chatID)
	done(err)
	if err != nil {
		return nil
	}
	return chat
}

// CreateChat returns nil when the new chat could not be persisted.
func (c *ChatController) CreateChat(ctx context.Context, userID, chatID, title string) *models.Chat {
	done := track(ctx, c.metrics, "chats.create")
	chat, err := c.store.Create(ctx, userID, chatID, title)
	done(err)
	if err != nil {
		return nil
	}
	return &chat
}

// UpdateChat reports false for an unknown chat or a failed save.
func (c *ChatController) UpdateChat(ctx context.Context, userID, chatID string, update stores.ChatUpdate) bool {
	done := track(ctx, c.metrics, "chats.update")
	err := c.store.Update(ctx, userID, chatID, update)
	done(err)
	return err == nil
}

// AddMessageToChat creates the chat when needed. ok is false when nothing was persisted.
func (c *ChatController) AddMessageToChat(ctx context.Context, userID, chatID, role, content string) (models.ChatMessage, bool) {
	done := track(ctx, c.metrics, "chats.add_message")
	msg, err := c.store.AddMessage(ctx, userID, chatID, role, content)
	done(err)
	return msg, err == nil
}

func (c *ChatController) DeleteChat(ctx context.Context, userID, chatID string) bool {
	done := track(ctx, c.metrics, "chats.delete")
	err := c.store.Delete(ctx, userID, chatID)
	done(err)
	return err == nil
}

func (c *ChatController) DeleteChats(ctx context.Context, userID string, chatIDs []string) bool {
	done := track(ctx, c.metrics, "chats.delete_many")
	err := c.store.DeleteMany(ctx, userID, chatIDs)
	done(err)
	return err == nil
}

func (c *ChatController) SearchChats(ctx context.Context, userID, term string) []models.Chat {
	done := track(ctx, c.metrics, "chats.search")
	chats, err := c.store.Search(ctx, userID, term)
	done(err)
	if err != nil {
		return []models.Chat{}
	}
	return chats
}

// GetCurrentChatID returns "" when no chat is current.
func (c *ChatController) GetCurrentChatID(ctx context.Context, userID string) string {
	done := track(ctx, c.metrics, "chats.current.get")
	id, ok, err := c.store.CurrentChatID(ctx, userID)
	done(err)
	if err != nil || !ok {
		return ""
	}
	return id
}

// SetCurrentChatID points at chatID; "" clears the pointer.
func (c *ChatController) SetCurrentChatID(ctx context.Context, userID, chatID string) {
	done := track(ctx, c.metrics, "chats.current.set")
	done(c.store.SetCurrentChatID(ctx, userID, chatID))
}

func (c *ChatController) ClearAllChats(ctx context.Context, userID string) {
	done := track(ctx, c.metrics, "chats.clear")
	done(c.store.ClearAll(ctx, userID))
}

// Package types holds the JSON bodies exchanged over HTTP and the websocket.
package types

import (
	"stickgpt/stickgpt/sources/psql/models"
)

type AddBookmarkRequest struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type CreateChatRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
}

// UpdateChatRequest is a partial update: absent fields are left alone.
type UpdateChatRequest struct {
	Title    *string              `json:"title,omitempty"`
	Messages []models.ChatMessage `json:"messages,omitempty"`
}

type AddMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// CurrentChat is both the body of PUT /chats/current and the answer of
// GET /chats/current. A nil ChatID means no chat is current.
type CurrentChat struct {
	ChatID *string `json:"chat_id"`
}

type SaveMemoryRequest struct {
	MemoryType models.MemoryType `json:"memory_type"`
	Value      map[string]any    `json:"value"`
	Context    string            `json:"context,omitempty"`
	Confidence *float64          `json:"confidence,omitempty"`
}

type RecordChoiceRequest struct {
	Key      string `json:"key"`
	Question string `json:"question"`
	Selected string `json:"selected"`
	Context  string `json:"context,omitempty"`
}

type AddQueryRequest struct {
	Query string `json:"query"`
}

// SocketFrame is one websocket message. The first frame must carry Token;
// any frame with Content appends a message to ChatID.
type SocketFrame struct {
	Token   string `json:"token,omitempty"`
	ChatID  string `json:"chat_id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SocketReply struct {
	Type    string              `json:"type"`
	ChatID  string              `json:"chat_id,omitempty"`
	Message *models.ChatMessage `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

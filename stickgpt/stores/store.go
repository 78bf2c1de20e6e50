// Package stores implements the chat history, bookmark, user memory and
// recent query stores. Every operation loads the whole collection, works on
// it in memory and, for writes, saves the whole collection back.
package stores

import (
	"context"
	"errors"
	"slices"
	"time"

	"stickgpt/stickgpt/sources"
	"stickgpt/stickgpt/sources/codec"
	"stickgpt/stickgpt/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry names shared by every backend. Changing them orphans existing data.
// Per-user entries append ":<user id>", see codec.UserEntry.
const (
	ChatsEntry         = sources.ChatsEntry
	CurrentChatEntry   = "stickgpt_current_chat"
	BookmarksEntry     = sources.BookmarksEntry
	UserMemoryEntry    = sources.UserMemoryEntry
	RecentQueriesEntry = sources.RecentQueriesEntry
)

type options struct {
	now   func() time.Time
	newID func() string
}

type Option func(*options)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// loadForWrite loads a collection that is about to be rewritten. A corrupt
// entry is set aside first when the collection supports it, so the write
// starts from empty without losing the unreadable data.
func loadForWrite[T any](ctx context.Context, c codec.Collection[T]) ([]T, error) {
	records, err := c.Load(ctx)
	if err == nil || !errors.Is(err, codec.ErrCorrupt) {
		return records, err
	}
	q, ok := c.(codec.Quarantiner)
	if !ok {
		return nil, err
	}
	backup, qerr := q.Quarantine(ctx)
	if qerr != nil {
		return nil, errors.Join(err, qerr)
	}
	logging.AppLogger.Warn("corrupt collection set aside", zap.String("backup", backup), zap.Error(err))
	return []T{}, nil
}

// sortNewestFirst orders records by the given timestamp, most recent first.
// Equal timestamps keep their collection order.
func sortNewestFirst[T any](records []T, at func(T) time.Time) {
	slices.SortStableFunc(records, func(a, b T) int {
		return at(b).Compare(at(a))
	})
}

// Set groups the stores built over one backend.
type Set struct {
	Chats     *ChatStore
	Bookmarks *BookmarkStore
	Memory    *MemoryStore
	Queries   *QueryStore
}

func NewSet(b *sources.Backend, opts ...Option) *Set {
	return &Set{
		Chats:     NewChatStore(b.Chats, b.KV, opts...),
		Bookmarks: NewBookmarkStore(b.Bookmarks, opts...),
		Memory:    NewMemoryStore(b.Memories, opts...),
		Queries:   NewQueryStore(b.Queries),
	}
}

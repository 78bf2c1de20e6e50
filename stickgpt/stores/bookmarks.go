package stores

import (
	"context"
	"fmt"
	"time"

	"stickgpt/stickgpt/sources/codec"
	"stickgpt/stickgpt/sources/psql/models"
)

// BookmarkStore keeps saved messages, at most one per (user, message).
type BookmarkStore struct {
	bookmarks codec.Collection[models.Bookmark]
	options
}

func NewBookmarkStore(bookmarks codec.Collection[models.Bookmark], opts ...Option) *BookmarkStore {
	return &BookmarkStore{bookmarks: bookmarks, options: buildOptions(opts)}
}

// List returns the user's bookmarks, most recent first.
func (s *BookmarkStore) List(ctx context.Context, userID string) ([]models.Bookmark, error) {
	all, err := s.bookmarks.Load(ctx)
	if err != nil {
		return []models.Bookmark{}, fmt.Errorf("load bookmarks: %w", err)
	}
	out := make([]models.Bookmark, 0, len(all))
	for _, b := range all {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sortNewestFirst(out, func(b models.Bookmark) time.Time { return b.CreatedAt })
	return out, nil
}

// Count reports how many bookmarks the collection holds across all users.
func (s *BookmarkStore) Count(ctx context.Context) (int, error) {
	all, err := s.bookmarks.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load bookmarks: %w", err)
	}
	return len(all), nil
}

// Add bookmarks a message. Bookmarking an already bookmarked message returns
// the existing record and writes nothing.
func (s *BookmarkStore) Add(ctx context.Context, userID, chatID, messageID, content string) (models.Bookmark, error) {
	if userID == "" {
		return models.Bookmark{}, ErrMissingUser
	}
	all, err := loadForWrite(ctx, s.bookmarks)
	if err != nil {
		return models.Bookmark{}, fmt.Errorf("load bookmarks: %w", err)
	}
	for _, b := range all {
		if b.UserID == userID && b.MessageID == messageID {
			return b, nil
		}
	}

	bookmark := models.Bookmark{
		ID:        s.newID(),
		UserID:    userID,
		ChatID:    chatID,
		MessageID: messageID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.bookmarks.Save(ctx, append(all, bookmark)); err != nil {
		return models.Bookmark{}, fmt.Errorf("save bookmarks: %w", err)
	}
	return bookmark, nil
}

// Remove deletes the user's bookmark on a message. Removing a missing
// bookmark still rewrites the collection and succeeds.
func (s *BookmarkStore) Remove(ctx context.Context, userID, messageID string) error {
	all, err := loadForWrite(ctx, s.bookmarks)
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}
	kept := make([]models.Bookmark, 0, len(all))
	for _, b := range all {
		if b.UserID == userID && b.MessageID == messageID {
			continue
		}
		kept = append(kept, b)
	}
	if err := s.bookmarks.Save(ctx, kept); err != nil {
		return fmt.Errorf("save bookmarks: %w", err)
	}
	return nil
}

func (s *BookmarkStore) IsBookmarked(ctx context.Context, userID, messageID string) (bool, error) {
	all, err := s.bookmarks.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load bookmarks: %w", err)
	}
	for _, b := range all {
		if b.UserID == userID && b.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

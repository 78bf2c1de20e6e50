package controllers

import (
	"context"

	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/utils/metrics"
)

type BookmarksController struct {
	store   *stores.BookmarkStore
	metrics metrics.Collector
}

func NewBookmarksController(store *stores.BookmarkStore, m metrics.Collector) *BookmarksController {
	return &BookmarksController{store: store, metrics: orNoop(m)}
}

func (c *BookmarksController) GetBookmarks(ctx context.Context, userID string) []models.Bookmark {
	done := track(ctx, c.metrics, "bookmarks.list")
	bookmarks, err := c.store.List(ctx, userID)
	done(err)
	if err != nil {
		return []models.Bookmark{}
	}
	return bookmarks
}

// AddBookmark reports false only when the bookmark could not be persisted.
func (c *BookmarksController) AddBookmark(ctx context.Context, userID, chatID, messageID, content string) bool {
	done := track(ctx, c.metrics, "bookmarks.add")
	_, err := c.store.Add(ctx, userID, chatID, messageID, content)
	done(err)
	if err != nil {
		return false
	}
	c.recordSize(ctx)
	return true
}

func (c *BookmarksController) RemoveBookmark(ctx context.Context, userID, messageID string) bool {
	done := track(ctx, c.metrics, "bookmarks.remove")
	err := c.store.Remove(ctx, userID, messageID)
	done(err)
	if err != nil {
		return false
	}
	c.recordSize(ctx)
	return true
}

func (c *BookmarksController) IsBookmarked(ctx context.Context, userID, messageID string) bool {
	done := track(ctx, c.metrics, "bookmarks.exists")
	ok, err := c.store.IsBookmarked(ctx, userID, messageID)
	done(err)
	return err == nil && ok
}

// recordSize refreshes the size gauge after a write.
func (c *BookmarksController) recordSize(ctx context.Context) {
	if n, err := c.store.Count(ctx); err == nil {
		c.metrics.SetCollectionSize(ctx, stores.BookmarksEntry, int64(n))
	}
}

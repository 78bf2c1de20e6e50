package controllers

import (
	"context"

	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/utils/metrics"
)

type MemoryController struct {
	store   *stores.MemoryStore
	metrics metrics.Collector
}

func NewMemoryController(store *stores.MemoryStore, m metrics.Collector) *MemoryController {
	return &MemoryController{store: store, metrics: orNoop(m)}
}

func (c *MemoryController) SaveUserMemory(ctx context.Context, userID string, memoryType models.MemoryType, key string, value map[string]any, opts ...stores.SaveOption) bool {
	done := track(ctx, c.metrics, "memory.save")
	_, err := c.store.Save(ctx, userID, memoryType, key, value, opts...)
	done(err)
	if err != nil {
		return false
	}
	c.recordSize(ctx)
	return true
}

// GetUserMemory returns nil when there is no such memory or it cannot be read.
func (c *MemoryController) GetUserMemory(ctx context.Context, userID, key string) *models.UserMemory {
	done := track(ctx, c.metrics, "memory.get")
	m, err := c.store.Get(ctx, userID, key)
	done(err)
	if err != nil {
		return nil
	}
	return m
}

func (c *MemoryController) GetUserMemoriesByType(ctx context.Context, userID string, memoryType models.MemoryType) []models.UserMemory {
	done := track(ctx, c.metrics, "memory.list_by_type")
	memories, err := c.store.ListByType(ctx, userID, memoryType)
	done(err)
	if err != nil {
		return []models.UserMemory{}
	}
	return memories
}

func (c *MemoryController) GetAllUserMemories(ctx context.Context, userID string) []models.UserMemory {
	done := track(ctx, c.metrics, "memory.list")
	memories, err := c.store.List(ctx, userID)
	done(err)
	if err != nil {
		return []models.UserMemory{}
	}
	return memories
}

func (c *MemoryController) DeleteUserMemory(ctx context.Context, userID, key string) bool {
	done := track(ctx, c.metrics, "memory.delete")
	err := c.store.Delete(ctx, userID, key)
	done(err)
	if err != nil {
		return false
	}
	c.recordSize(ctx)
	return true
}

func (c *MemoryController) SearchUserMemories(ctx context.Context, userID, term string) []models.UserMemory {
	done := track(ctx, c.metrics, "memory.search")
	memories, err := c.store.Search(ctx, userID, term)
	done(err)
	if err != nil {
		return []models.UserMemory{}
	}
	return memories
}

// GetUserContextForAI falls back to the no-context placeholder on failure.
func (c *MemoryController) GetUserContextForAI(ctx context.Context, userID string, limit int) string {
	done := track(ctx, c.metrics, "memory.context")
	text, err := c.store.ContextForAI(ctx, userID, limit)
	done(err)
	if err != nil {
		return stores.NoContextPlaceholder
	}
	return text
}

func (c *MemoryController) RecordChoice(ctx context.Context, userID, key, question, selected, memoryContext string) bool {
	done := track(ctx, c.metrics, "memory.record_choice")
	_, err := c.store.RecordChoice(ctx, userID, key, question, selected, memoryContext)
	done(err)
	if err != nil {
		return false
	}
	c.recordSize(ctx)
	return true
}

func (c *MemoryController) recordSize(ctx context.Context) {
	if n, err := c.store.Count(ctx); err == nil {
		c.metrics.SetCollectionSize(ctx, stores.UserMemoryEntry, int64(n))
	}
}

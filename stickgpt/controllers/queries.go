package controllers

import (
	"context"

	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/utils/metrics"
)

type QueriesController struct {
	store   *stores.QueryStore
	metrics metrics.Collector
}

func NewQueriesController(store *stores.QueryStore, m metrics.Collector) *QueriesController {
	return &QueriesController{store: store, metrics: orNoop(m)}
}

func (c *QueriesController) GetRecentQueries(ctx context.Context, userID string) []string {
	done := track(ctx, c.metrics, "queries.list")
	queries, err := c.store.List(ctx, userID)
	done(err)
	if err != nil {
		return []string{}
	}
	return queries
}

// AddQuery returns the updated list, or the stored list unchanged when the
// query could not be saved.
func (c *QueriesController) AddQuery(ctx context.Context, userID, query string) []string {
	done := track(ctx, c.metrics, "queries.add")
	queries, err := c.store.Add(ctx, userID, query)
	done(err)
	if err != nil {
		return c.GetRecentQueries(ctx, userID)
	}
	return queries
}

func (c *QueriesController) ClearRecentQueries(ctx context.Context, userID string) {
	done := track(ctx, c.metrics, "queries.clear")
	done(c.store.Clear(ctx, userID))
}

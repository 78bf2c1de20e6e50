package stores

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"stickgpt/stickgpt/sources/codec"
)

const (
	maxRecentQueries = 10
	minQueryLength   = 3
)

// QueryStore remembers each user's recent search queries, newest first,
// without duplicates.
type QueryStore struct {
	queries codec.PerUser[string]
}

func NewQueryStore(queries codec.PerUser[string]) *QueryStore {
	return &QueryStore{queries: queries}
}

func (s *QueryStore) List(ctx context.Context, userID string) ([]string, error) {
	queries, err := s.queries(userID).Load(ctx)
	if err != nil {
		return []string{}, fmt.Errorf("load recent queries: %w", err)
	}
	return queries, nil
}

// Add moves query to the front. Queries shorter than three characters once
// trimmed are ignored and the list is returned unchanged.
func (s *QueryStore) Add(ctx context.Context, userID, query string) ([]string, error) {
	if userID == "" {
		return []string{}, ErrMissingUser
	}
	coll := s.queries(userID)
	queries, err := loadForWrite(ctx, coll)
	if err != nil {
		return []string{}, fmt.Errorf("load recent queries: %w", err)
	}
	if len(strings.TrimSpace(query)) < minQueryLength {
		return queries, nil
	}
	queries = slices.DeleteFunc(queries, func(q string) bool { return q == query })
	queries = append([]string{query}, queries...)
	if len(queries) > maxRecentQueries {
		queries = queries[:maxRecentQueries]
	}
	if err := coll.Save(ctx, queries); err != nil {
		return []string{}, fmt.Errorf("save recent queries: %w", err)
	}
	return queries, nil
}

func (s *QueryStore) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	if err := s.queries(userID).Clear(ctx); err != nil {
		return fmt.Errorf("clear recent queries: %w", err)
	}
	return nil
}

package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"stickgpt/stickgpt/sources/codec"
	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/utils/logging"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	// NoContextPlaceholder is returned by ContextForAI for users without memories.
	NoContextPlaceholder = "No previous context available."
	contextHeader        = "User Context:"
	DefaultContextLimit  = 10
)

type saveOptions struct {
	context    string
	confidence float64
}

type SaveOption func(*saveOptions)

// WithMemoryContext records where the memory came from.
func WithMemoryContext(note string) SaveOption {
	return func(o *saveOptions) { o.context = note }
}

// WithConfidence overrides the default confidence of 1.0.
func WithConfidence(confidence float64) SaveOption {
	return func(o *saveOptions) { o.confidence = confidence }
}

// MemoryStore keeps typed key/value memories per user, unique per (user, key).
type MemoryStore struct {
	memories codec.Collection[models.UserMemory]
	options
}

func NewMemoryStore(memories codec.Collection[models.UserMemory], opts ...Option) *MemoryStore {
	return &MemoryStore{memories: memories, options: buildOptions(opts)}
}

// Save creates the memory or updates the existing one for (userID, key) in
// place, keeping its id and created_at.
func (s *MemoryStore) Save(ctx context.Context, userID string, memoryType models.MemoryType, key string, value map[string]any, opts ...SaveOption) (models.UserMemory, error) {
	o := saveOptions{confidence: 1.0}
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case userID == "":
		return models.UserMemory{}, ErrMissingUser
	case key == "":
		return models.UserMemory{}, ErrEmptyKey
	case !memoryType.Valid():
		return models.UserMemory{}, fmt.Errorf("%q: %w", memoryType, ErrInvalidMemoryType)
	case o.confidence < 0 || o.confidence > 1:
		return models.UserMemory{}, fmt.Errorf("%v: %w", o.confidence, ErrInvalidConfidence)
	}
	if value == nil {
		value = map[string]any{}
	}

	memories, err := loadForWrite(ctx, s.memories)
	if err != nil {
		return models.UserMemory{}, fmt.Errorf("load memories: %w", err)
	}

	now := s.now()
	i := slices.IndexFunc(memories, func(m models.UserMemory) bool {
		return m.UserID == userID && m.Key == key
	})
	if i >= 0 {
		m := &memories[i]
		m.Value = datatypes.JSONMap(value)
		m.MemoryType = memoryType
		m.Context = o.context
		m.Confidence = o.confidence
		m.UpdatedAt = now
		m.LastAccessed = now
	} else {
		memories = append(memories, models.UserMemory{
			ID:           s.newID(),
			UserID:       userID,
			MemoryType:   memoryType,
			Key:          key,
			Value:        datatypes.JSONMap(value),
			Context:      o.context,
			Confidence:   o.confidence,
			CreatedAt:    now,
			UpdatedAt:    now,
			LastAccessed: now,
		})
		i = len(memories) - 1
	}

	if err := s.memories.Save(ctx, memories); err != nil {
		return models.UserMemory{}, fmt.Errorf("save memories: %w", err)
	}
	return memories[i], nil
}

// Get returns nil, nil when the user has no memory under key. A hit refreshes
// last_accessed; failing to persist that refresh does not fail the read.
func (s *MemoryStore) Get(ctx context.Context, userID, key string) (*models.UserMemory, error) {
	memories, err := s.memories.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}
	i := slices.IndexFunc(memories, func(m models.UserMemory) bool {
		return m.UserID == userID && m.Key == key
	})
	if i < 0 {
		return nil, nil
	}
	memories[i].LastAccessed = s.now()
	if err := s.memories.Save(ctx, memories); err != nil {
		logging.AppLogger.Warn("could not refresh memory last_accessed",
			zap.String("user_id", userID), zap.String("key", key), zap.Error(err))
	}
	m := memories[i]
	return &m, nil
}

// ListByType returns the user's memories of one type, most recently updated first.
func (s *MemoryStore) ListByType(ctx context.Context, userID string, memoryType models.MemoryType) ([]models.UserMemory, error) {
	return s.filter(ctx, func(m models.UserMemory) bool {
		return m.UserID == userID && m.MemoryType == memoryType
	})
}

// List returns all of the user's memories, most recently updated first.
func (s *MemoryStore) List(ctx context.Context, userID string) ([]models.UserMemory, error) {
	return s.filter(ctx, func(m models.UserMemory) bool { return m.UserID == userID })
}

// Search matches term case-insensitively against keys and contexts.
func (s *MemoryStore) Search(ctx context.Context, userID, term string) ([]models.UserMemory, error) {
	term = strings.ToLower(term)
	return s.filter(ctx, func(m models.UserMemory) bool {
		if m.UserID != userID {
			return false
		}
		return strings.Contains(strings.ToLower(m.Key), term) ||
			(m.Context != "" && strings.Contains(strings.ToLower(m.Context), term))
	})
}

// Count reports the collection size across all users.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	memories, err := s.memories.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load memories: %w", err)
	}
	return len(memories), nil
}

func (s *MemoryStore) filter(ctx context.Context, keep func(models.UserMemory) bool) ([]models.UserMemory, error) {
	memories, err := s.memories.Load(ctx)
	if err != nil {
		return []models.UserMemory{}, fmt.Errorf("load memories: %w", err)
	}
	out := make([]models.UserMemory, 0, len(memories))
	for _, m := range memories {
		if keep(m) {
			out = append(out, m)
		}
	}
	sortNewestFirst(out, func(m models.UserMemory) time.Time { return m.UpdatedAt })
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, key string) error {
	memories, err := loadForWrite(ctx, s.memories)
	if err != nil {
		return fmt.Errorf("load memories: %w", err)
	}
	kept := slices.DeleteFunc(memories, func(m models.UserMemory) bool {
		return m.UserID == userID && m.Key == key
	})
	if err := s.memories.Save(ctx, kept); err != nil {
		return fmt.Errorf("save memories: %w", err)
	}
	return nil
}

// ContextForAI formats the user's most recently updated memories as prompt
// context, one "[type] key: value (context)" line each under a header.
// A limit of zero or less uses DefaultContextLimit.
func (s *MemoryStore) ContextForAI(ctx context.Context, userID string, limit int) (string, error) {
	memories, err := s.List(ctx, userID)
	if err != nil {
		return NoContextPlaceholder, err
	}
	if len(memories) == 0 {
		return NoContextPlaceholder, nil
	}
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	if len(memories) > limit {
		memories = memories[:limit]
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	for _, m := range memories {
		value, err := json.Marshal(m.Value)
		if err != nil {
			return NoContextPlaceholder, fmt.Errorf("encode memory %s: %w", m.Key, err)
		}
		fmt.Fprintf(&b, "\n[%s] %s: %s", m.MemoryType, m.Key, value)
		if m.Context != "" {
			fmt.Fprintf(&b, " (%s)", m.Context)
		}
	}
	return b.String(), nil
}

// RecordChoice saves an explicit user choice as a preference with full confidence.
func (s *MemoryStore) RecordChoice(ctx context.Context, userID, key, question, selected, memoryContext string) (models.UserMemory, error) {
	value := map[string]any{
		"selected":  selected,
		"question":  question,
		"timestamp": s.now().Format(time.RFC3339Nano),
	}
	return s.Save(ctx, userID, models.MemoryPreference, key, value, WithMemoryContext(memoryContext), WithConfidence(1.0))
}

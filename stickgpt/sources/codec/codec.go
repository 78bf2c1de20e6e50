// Package codec persists whole record collections as JSON text.
package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"stickgpt/stickgpt/sources/kv"
)

var (
	// ErrCorrupt marks a stored entry that is not a JSON array of the record shape.
	ErrCorrupt = errors.New("corrupt collection")
	// ErrUnavailable is kv.ErrUnavailable, re-exported for store callers.
	ErrUnavailable = kv.ErrUnavailable
)

// Collection loads and saves every record of one store at once.
// Load never fails with a nil slice: an absent collection is empty.
type Collection[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, records []T) error
	Clear(ctx context.Context) error
}

// PerUser hands out the collection holding one user's records.
type PerUser[T any] func(userID string) Collection[T]

// UserEntry names the entry holding base for one user. The id is escaped so
// it can never introduce a path separator.
func UserEntry(base, userID string) string {
	if userID == "" {
		return base
	}
	return base + ":" + url.PathEscape(userID)
}

// maxBackups bounds the search for a free quarantine name.
const maxBackups = 100

// Quarantiner is implemented by collections that can set a corrupt entry
// aside so the next save starts from an empty collection without destroying it.
type Quarantiner interface {
	Quarantine(ctx context.Context) (backup string, err error)
}

// KVCollection keeps a collection as one JSON array under a named entry.
type KVCollection[T any] struct {
	storage kv.Storage
	name    string
}

func NewKVCollection[T any](storage kv.Storage, name string) *KVCollection[T] {
	return &KVCollection[T]{storage: storage, name: name}
}

// Load returns an empty collection when the entry is absent. A parse failure
// also yields an empty collection, together with an error wrapping ErrCorrupt.
func (c *KVCollection[T]) Load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.storage.Get(ctx, c.name)
	if err != nil {
		return []T{}, fmt.Errorf("read %s: %w", c.name, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return []T{}, fmt.Errorf("decode %s: %w: %v", c.name, ErrCorrupt, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (c *KVCollection[T]) Save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.storage.Set(ctx, c.name, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", c.name, err)
	}
	return nil
}

func (c *KVCollection[T]) Clear(ctx context.Context) error {
	if err := c.storage.Remove(ctx, c.name); err != nil {
		return fmt.Errorf("remove %s: %w", c.name, err)
	}
	return nil
}

// Quarantine copies the raw entry to the first free backup name,
// "<name>.corrupt" then "<name>.corrupt.1" and so on, and removes the original.
// Existing backups are never overwritten.
func (c *KVCollection[T]) Quarantine(ctx context.Context) (string, error) {
	raw, ok, err := c.storage.Get(ctx, c.name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", c.name, err)
	}
	if !ok {
		return "", nil
	}
	backup, err := c.freeBackupName(ctx)
	if err != nil {
		return "", err
	}
	if err := c.storage.Set(ctx, backup, raw); err != nil {
		return "", fmt.Errorf("write %s: %w", backup, err)
	}
	if err := c.storage.Remove(ctx, c.name); err != nil {
		return "", fmt.Errorf("remove %s: %w", c.name, err)
	}
	return backup, nil
}

func (c *KVCollection[T]) freeBackupName(ctx context.Context) (string, error) {
	for i := 0; i < maxBackups; i++ {
		name := c.name + ".corrupt"
		if i > 0 {
			name = fmt.Sprintf("%s.%d", name, i)
		}
		_, taken, err := c.storage.Get(ctx, name)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		if !taken {
			return name, nil
		}
	}
	return "", fmt.Errorf("%s: too many corrupt backups", c.name)
}

// Package sources opens the configured persistence backend.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/sources/codec"
	"stickgpt/stickgpt/sources/kv"
	"stickgpt/stickgpt/sources/psql"
	"stickgpt/stickgpt/sources/psql/dao"
	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/sources/storage"
	"stickgpt/stickgpt/utils/logging"

	"go.uber.org/zap"
)

// Entry names of the stored collections.
const (
	ChatsEntry         = "stickgpt_chats"
	BookmarksEntry     = "stickgpt_bookmarks"
	UserMemoryEntry    = "stickgpt_user_memory"
	RecentQueriesEntry = "stickgpt-recent-queries"
)

// Backend bundles the collections every store is built on. KV holds single
// named entries such as the current chat pointer. Chats and recent queries
// are kept apart per user; bookmarks and memories carry a user_id on every
// record and share one collection.
type Backend struct {
	Name      string
	KV        kv.Storage
	Chats     codec.PerUser[models.Chat]
	Bookmarks codec.Collection[models.Bookmark]
	Memories  codec.Collection[models.UserMemory]
	Queries   codec.PerUser[string]

	closers []io.Closer
}

// Open connects the backend named by cfg.StorageBackend.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	logging.AppLogger.Info("opening storage backend", zap.String("backend", cfg.StorageBackend))

	switch cfg.StorageBackend {
	case config.BackendMemory:
		return FromKV(config.BackendMemory, kv.NewMemoryStorage()), nil
	case config.BackendNone:
		return FromKV(config.BackendNone, kv.Unavailable{}), nil
	case config.BackendFile, "":
		fs, err := kv.NewFileStorage(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		return FromKV(config.BackendFile, fs), nil
	case config.BackendRedis:
		rs, err := kv.NewRedisStorage(ctx, kv.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		b := FromKV(config.BackendRedis, rs)
		b.closers = append(b.closers, rs)
		return b, nil
	case config.BackendMinIO:
		mc, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open minio storage: %w", err)
		}
		return FromKV(config.BackendMinIO, mc), nil
	case config.BackendSQLite:
		db, err := psql.NewSQLiteDatabase(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return FromDatabase(config.BackendSQLite, db), nil
	case config.BackendPostgres:
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return FromDatabase(config.BackendPostgres, db), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// FromKV keeps every collection as a JSON array entry in s.
func FromKV(name string, s kv.Storage) *Backend {
	return &Backend{
		Name:      name,
		KV:        s,
		Chats:     kvPerUser[models.Chat](s, ChatsEntry),
		Bookmarks: codec.NewKVCollection[models.Bookmark](s, BookmarksEntry),
		Memories:  codec.NewKVCollection[models.UserMemory](s, UserMemoryEntry),
		Queries:   kvPerUser[string](s, RecentQueriesEntry),
	}
}

// kvPerUser keeps each user's collection under its own entry, "<base>:<user>".
func kvPerUser[T any](s kv.Storage, base string) codec.PerUser[T] {
	return func(userID string) codec.Collection[T] {
		return codec.NewKVCollection[T](s, codec.UserEntry(base, userID))
	}
}

// FromDatabase keeps records in tables and single entries in kv_entries.
func FromDatabase(name string, db *psql.Database) *Backend {
	entries := dao.NewKVDAO(db.DB)
	chats := dao.NewChatDAO(db.DB)
	return &Backend{
		Name: name,
		KV:   entries,
		Chats: func(userID string) codec.Collection[models.Chat] {
			return chats.ForUser(userID)
		},
		Bookmarks: dao.NewBookmarkDAO(db.DB),
		Memories:  dao.NewUserMemoryDAO(db.DB),
		Queries:   kvPerUser[string](entries, RecentQueriesEntry),
		closers:   []io.Closer{db},
	}
}

func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

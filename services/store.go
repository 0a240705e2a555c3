package services

import (
	"context"
	"errors"
	"fmt"

	"dopplapi/models"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	gocache_store "github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyValueStore persists the small set of user settings.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// DBKeyValueStore keeps settings in the settings table.
type DBKeyValueStore struct {
	db *gorm.DB
}

func NewDBKeyValueStore(db *gorm.DB) *DBKeyValueStore {
	return &DBKeyValueStore{db: db}
}

func (s *DBKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return setting.Value, true, nil
}

func (s *DBKeyValueStore) Set(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting)
	if result.Error != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, result.Error)
	}
	return nil
}

func (s *DBKeyValueStore) Remove(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove setting %s: %w", key, result.Error)
	}
	return nil
}

func newMemoryCache() *cache.Cache[string] {
	client := gocache.New(gocache.NoExpiration, 0)
	return cache.New[string](gocache_store.NewGoCache(client))
}

// MemoryKeyValueStore keeps settings in process memory only. Used when no
// database is configured and in tests.
type MemoryKeyValueStore struct {
	cache *cache.Cache[string]
}

func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{cache: newMemoryCache()}
}

func (s *MemoryKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		// go-cache only fails on a miss
		return "", false, nil
	}
	return value, true, nil
}

func (s *MemoryKeyValueStore) Set(ctx context.Context, key, value string) error {
	return s.cache.Set(ctx, key, value, store.WithExpiration(gocache.NoExpiration))
}

func (s *MemoryKeyValueStore) Remove(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}

// CachedKeyValueStore reads through an in-memory cache in front of another
// store. Writes go to the backing store first and then to the cache.
type CachedKeyValueStore struct {
	backing KeyValueStore
	cache   *cache.Cache[string]
}

func NewCachedKeyValueStore(backing KeyValueStore) *CachedKeyValueStore {
	return &CachedKeyValueStore{backing: backing, cache: newMemoryCache()}
}

func (s *CachedKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	if value, err := s.cache.Get(ctx, key); err == nil {
		return value, true, nil
	}
	value, found, err := s.backing.Get(ctx, key)
	if err != nil || !found {
		return value, found, err
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		fmt.Println("[Cache] Failed to cache setting", key, err)
	}
	return value, true, nil
}

func (s *CachedKeyValueStore) Set(ctx context.Context, key, value string) error {
	if err := s.backing.Set(ctx, key, value); err != nil {
		return err
	}
	return s.cache.Set(ctx, key, value)
}

func (s *CachedKeyValueStore) Remove(ctx context.Context, key string) error {
	if err := s.backing.Remove(ctx, key); err != nil {
		return err
	}
	return s.cache.Delete(ctx, key)
}

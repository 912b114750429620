package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mapbook/mapbook/internal/db"
	"github.com/mapbook/mapbook/internal/domain"
)

// store is the consumer interface for run persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Compile-time check: KV implements Repository.
var _ Repository = (*KV)(nil)

// KV persists runs as JSON documents in a key-value store, one key per run.
type KV struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// NewKV creates a key-value backed repository. A zero ttl keeps runs until
// deleted.
func NewKV(s store, keyPrefix string, ttl time.Duration) *KV {
	return &KV{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// Save stores or replaces a run.
func (k *KV) Save(ctx context.Context, r domain.Run) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", r.ID, err)
	}
	key := k.key(r.ID)
	if k.ttl > 0 {
		if err := k.store.SetWithTTL(ctx, key, data, k.ttl); err != nil {
			return fmt.Errorf("set run %s: %w", r.ID, err)
		}
		return nil
	}
	if err := k.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set run %s: %w", r.ID, err)
	}
	return nil
}

// Get retrieves a run by ID.
func (k *KV) Get(ctx context.Context, id string) (domain.Run, error) {
	data, err := k.store.Get(ctx, k.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Run{}, domain.ErrRunNotFound
		}
		return domain.Run{}, fmt.Errorf("get run %s: %w", id, err)
	}

	var r domain.Run
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Run{}, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return r, nil
}

// Delete removes a run by ID. The existence check keeps delete semantics
// aligned with the in-memory driver.
func (k *KV) Delete(ctx context.Context, id string) error {
	if _, err := k.store.Get(ctx, k.key(id)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrRunNotFound
		}
		return fmt.Errorf("get run %s: %w", id, err)
	}
	if err := k.store.Del(ctx, k.key(id)); err != nil {
		return fmt.Errorf("del run %s: %w", id, err)
	}
	return nil
}

func (k *KV) key(id string) string {
	return k.keyPrefix + "run:" + id
}

package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dfryer1193/journal/blog/domain"
)

// LoadJSON decodes the value stored under key into v. It reports false when
// the key is absent or the value does not decode.
func LoadJSON(ctx context.Context, store domain.KeyValueStore, key string, v any) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, store domain.KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", domain.ErrStorage, key, err)
	}
	return store.Put(ctx, key, raw)
}

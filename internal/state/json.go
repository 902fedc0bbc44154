package state

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON reads a key and unmarshals it into dst.
// Returns (false, nil) when the key is absent; dst is left untouched.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("state: decoding %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// GetString reads a key stored as a JSON string.
// Returns ("", false, nil) when absent.
func GetString(ctx context.Context, s Store, key string) (string, bool, error) {
	var v string
	ok, err := GetJSON(ctx, s, key, &v)
	return v, ok, err
}

// SetString stores a string value as JSON under key.
func SetString(ctx context.Context, s Store, key, v string) error {
	return SetJSON(ctx, s, key, v)
}

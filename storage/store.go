package storage

import (
	"encoding/json"
	"strings"
)

// Storage keys used by the session layer. Both are removed together on teardown.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
)

// Store is the secure storage contract. Implementations never return errors to
// callers: underlying faults are logged and degrade to a cache-miss (nil).
type Store interface {
	// SetItem persists value under key. Non-string values are serialized to JSON.
	SetItem(key string, value any)

	// GetItem returns the previously stored value, attempting structured
	// deserialization and falling back to the raw string. Returns nil if the key
	// is absent or on any underlying fault.
	GetItem(key string) any

	// RemoveItem deletes key. Best effort.
	RemoveItem(key string)

	// Clear removes all stored items. Best effort.
	Clear()
}

// encode converts a value to its stored textual form.
func encode(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	bytes, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// decode attempts structured deserialization of a stored value. Only values that
// look like JSON objects or arrays are decoded, so plain strings (including
// numeric strings) round-trip unchanged.
func decode(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return raw
	}
	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return raw
	}
	return value
}

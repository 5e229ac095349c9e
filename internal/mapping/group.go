// Package mapping groups identity keys from different providers that refer
// to the same title. Groups only ever grow; nothing here merges records on
// its own.
package mapping

import (
	"fmt"
	"slices"

	"github.com/lepinkainen/naoka/internal/media"
)

// Group is one confirmed set of identity keys for a single title.
type Group struct {
	ID   int64       `json:"id"`
	Keys []media.Key `json:"keys"`
}

// NewGroup validates keys and returns them as an unsaved group. Duplicate
// keys are collapsed; a group needs at least one key.
func NewGroup(keys ...media.Key) (Group, error) {
	normalized, err := normalizeKeys(keys)
	if err != nil {
		return Group{}, err
	}
	if len(normalized) == 0 {
		return Group{}, fmt.Errorf("mapping group needs at least one key")
	}
	return Group{Keys: normalized}, nil
}

// Extend returns g with keys added. Existing keys are never removed.
func (g Group) Extend(keys ...media.Key) (Group, error) {
	added, err := normalizeKeys(keys)
	if err != nil {
		return g, err
	}

	merged := slices.Clone(g.Keys)
	for _, key := range added {
		if !slices.Contains(merged, key) {
			merged = append(merged, key)
		}
	}
	return Group{ID: g.ID, Keys: merged}, nil
}

// Contains reports whether key belongs to the group.
func (g Group) Contains(key media.Key) bool {
	return slices.Contains(g.Keys, key)
}

// Overlaps reports whether the two groups share any key.
func (g Group) Overlaps(other Group) bool {
	for _, key := range other.Keys {
		if g.Contains(key) {
			return true
		}
	}
	return false
}

func normalizeKeys(keys []media.Key) ([]media.Key, error) {
	out := make([]media.Key, 0, len(keys))
	for _, key := range keys {
		parsed, err := media.ParseKey(string(key))
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, parsed) {
			out = append(out, parsed)
		}
	}
	return out, nil
}

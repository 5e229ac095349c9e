package media

import (
	"errors"
	"fmt"
	"strings"
)

const keySeparator = ":"

// ErrInvalidKey is wrapped by every identity key validation failure.
var ErrInvalidKey = errors.New("invalid identity key")

// Key identifies one provider entry as <media-type>:<provider-code>:<provider-id>.
type Key string

// BuildKey composes the identity key for a provider entry. The media type and
// provider code are lowercased so keys compare equal regardless of how the
// provider was addressed.
func BuildKey(t Type, providerCode, providerID string) Key {
	return Key(strings.Join([]string{
		strings.ToLower(string(t)),
		strings.ToLower(strings.TrimSpace(providerCode)),
		strings.TrimSpace(providerID),
	}, keySeparator))
}

// KeyPrefix returns the prefix shared by every key of one provider and media
// type, e.g. "anime:myanimelist:".
func KeyPrefix(t Type, providerCode string) string {
	return strings.ToLower(string(t)) + keySeparator + strings.ToLower(strings.TrimSpace(providerCode)) + keySeparator
}

// ParseKey validates s and returns it in canonical form, with the media type
// and provider code lowercased.
func ParseKey(s string) (Key, error) {
	k := Key(strings.TrimSpace(s))
	if err := k.Validate(); err != nil {
		return "", err
	}
	t, provider, id := k.Parts()
	return BuildKey(t, provider, id), nil
}

// Validate checks that k has exactly three non-empty segments and a known
// media type.
func (k Key) Validate() error {
	parts := strings.Split(string(k), keySeparator)
	if len(parts) != 3 {
		return fmt.Errorf("%w %q: want 3 segments, got %d", ErrInvalidKey, string(k), len(parts))
	}
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			return fmt.Errorf("%w %q: segment %d is empty", ErrInvalidKey, string(k), i+1)
		}
	}
	if !Type(strings.ToLower(parts[0])).Valid() {
		return fmt.Errorf("%w %q: unknown media type %q", ErrInvalidKey, string(k), parts[0])
	}
	return nil
}

// Parts splits a valid key into its segments. The result is undefined for
// keys that fail Validate.
func (k Key) Parts() (Type, string, string) {
	parts := strings.SplitN(string(k), keySeparator, 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return Type(strings.ToLower(parts[0])), parts[1], parts[2]
}

func (k Key) String() string {
	return string(k)
}

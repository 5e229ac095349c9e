// Package normalize maps raw provider vocabulary onto the canonical media
// enumerations. Tables are plain data; each provider declares its own.
package normalize

import (
	"strings"

	"github.com/lepinkainen/naoka/internal/media"
)

// Table is a case-insensitive lookup from raw provider strings to a canonical
// value. Unknown keys resolve to absent.
type Table[T ~string] struct {
	entries map[string]T
}

// NewTable builds a Table. Keys are folded to lower case.
func NewTable[T ~string](entries map[string]T) Table[T] {
	folded := make(map[string]T, len(entries))
	for raw, canonical := range entries {
		folded[fold(raw)] = canonical
	}
	return Table[T]{entries: folded}
}

// IdentityTable maps every canonical value to itself, for providers whose
// vocabulary already matches the canonical one.
func IdentityTable[T ~string](values []T) Table[T] {
	entries := make(map[string]T, len(values))
	for _, v := range values {
		entries[string(v)] = v
	}
	return NewTable(entries)
}

// Lookup returns the canonical value for raw.
func (t Table[T]) Lookup(raw string) (T, bool) {
	v, ok := t.entries[fold(raw)]
	return v, ok
}

func fold(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// canonical returns raw as a T when it already is a canonical token.
func canonical[T ~string](raw string, valid func(T) bool) (T, bool) {
	v := T(fold(raw))
	return v, valid(v)
}

// Tables bundles the lookups one provider uses. Every lookup also accepts
// the canonical tokens themselves, so normalizing a normalized value returns
// it unchanged.
type Tables struct {
	GenreTable  Table[media.Genre]
	FormatTable Table[media.Format]
	RatingTable Table[media.Rating]
	StatusTable Table[media.Status]
}

// Genre normalizes a single genre name.
func (t Tables) Genre(raw string) (media.Genre, bool) {
	if genre, ok := canonical(raw, media.Genre.Valid); ok {
		return genre, true
	}
	return t.GenreTable.Lookup(raw)
}

// Format normalizes a format after turning whitespace and hyphens into
// underscores, so "One-shot" and "Light Novel" match one_shot and light_novel.
func (t Tables) Format(raw string) (media.Format, bool) {
	token := FormatToken(raw)
	if format, ok := canonical(token, media.Format.Valid); ok {
		return format, true
	}
	return t.FormatTable.Lookup(token)
}

// Rating normalizes an audience rating.
func (t Tables) Rating(raw string) (media.Rating, bool) {
	if rating, ok := canonical(raw, media.Rating.Valid); ok {
		return rating, true
	}
	return t.RatingTable.Lookup(raw)
}

// Status normalizes a lifecycle status. Unknown values fall back to
// media.StatusAuto.
func (t Tables) Status(raw string) media.Status {
	if status, ok := canonical(raw, media.Status.Valid); ok {
		return status
	}
	if status, ok := t.StatusTable.Lookup(raw); ok {
		return status
	}
	return media.StatusAuto
}

// FormatToken lowercases raw and replaces runs of whitespace and hyphens with
// a single underscore.
func FormatToken(raw string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(raw)), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}

// GenreList normalizes every list in lists, concatenated in order. Values with
// no canonical mapping are dropped and the first occurrence of each genre is
// kept.
func (t Tables) GenreList(lists ...[]string) []media.Genre {
	seen := make(map[media.Genre]struct{})
	genres := make([]media.Genre, 0)
	for _, list := range lists {
		for _, raw := range list {
			genre, ok := t.Genre(raw)
			if !ok {
				continue
			}
			if _, dup := seen[genre]; dup {
				continue
			}
			seen[genre] = struct{}{}
			genres = append(genres, genre)
		}
	}
	return genres
}

// Package media holds the canonical catalog record and the closed
// enumerations every provider normalizes into.
package media

import (
	"fmt"
	"strings"
)

// Type is the kind of work a record describes.
type Type string

const (
	Anime       Type = "anime"
	Manga       Type = "manga"
	VisualNovel Type = "visual_novel"
)

// Types lists every media type in declaration order.
var Types = []Type{Anime, Manga, VisualNovel}

// Valid reports whether t is one of the known media types.
func (t Type) Valid() bool {
	switch t {
	case Anime, Manga, VisualNovel:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// ParseType converts a case-insensitive name into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown media type %q", s)
	}
	return t, nil
}

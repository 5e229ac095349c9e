// Package normalizetest holds assertions shared by provider vocabulary tests.
package normalizetest

import (
	"testing"

	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/normalize"
	"github.com/stretchr/testify/assert"
)

// AssertIdempotent checks that every canonical genre, format, rating and
// status normalizes to itself through tables.
func AssertIdempotent(t testing.TB, tables normalize.Tables) {
	t.Helper()

	for _, genre := range media.Genres {
		got, ok := tables.Genre(string(genre))
		assert.True(t, ok, "genre %s", genre)
		assert.Equal(t, genre, got)
	}
	for _, format := range media.Formats {
		got, ok := tables.Format(string(format))
		assert.True(t, ok, "format %s", format)
		assert.Equal(t, format, got)
	}
	for _, rating := range media.Ratings {
		got, ok := tables.Rating(string(rating))
		assert.True(t, ok, "rating %s", rating)
		assert.Equal(t, rating, got)
	}
	for _, status := range media.Statuses {
		assert.Equal(t, status, tables.Status(string(status)), "status %s", status)
	}
}

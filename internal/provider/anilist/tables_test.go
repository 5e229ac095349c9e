package anilist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/normalize/normalizetest"
)

func TestTables_Idempotent(t *testing.T) {
	normalizetest.AssertIdempotent(t, Tables)

	genre, ok := Tables.Genre("yaoi")
	assert.True(t, ok)
	assert.Equal(t, media.GenreYaoi, genre)
	assert.Equal(t, media.StatusAuto, Tables.Status("RELEASING"))
}

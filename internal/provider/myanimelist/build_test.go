package myanimelist

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/testutil"
)

func loadEntries(t *testing.T, fixture string) []Entry {
	t.Helper()
	var resp listResponse
	require.NoError(t, json.Unmarshal(testutil.Fixture(t, fixture), &resp))
	return resp.Data
}

func TestBuild_AnimeGolden(t *testing.T) {
	entries := loadEntries(t, "anime_page1.json")

	record, err := Build(entries[0], media.Anime)
	require.NoError(t, err)

	testutil.GoldenJSON(t, "anime_849.json", record)
}

func TestBuild_ImageFallsBackToJPG(t *testing.T) {
	entries := loadEntries(t, "anime_page1.json")

	record, err := Build(entries[1], media.Anime)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.myanimelist.net/images/anime/4/19644l.jpg", record.Images.Large)
	assert.Equal(t, "https://cdn.myanimelist.net/images/anime/4/19644t.jpg", record.Images.Small)
	assert.Equal(t, media.RatingR, record.Rating)
	assert.Equal(t, []media.Genre{media.GenreAction, media.GenreAwardWinning, media.GenreSciFi}, record.Genres)
	assert.Empty(t, record.Titles.Spanish)
}

func TestBuild_MovieDuration(t *testing.T) {
	entries := loadEntries(t, "anime_page2.json")

	record, err := Build(entries[0], media.Anime)
	require.NoError(t, err)
	require.NotNil(t, record.Duration)
	assert.Equal(t, time.Hour+55*time.Minute, *record.Duration)
	assert.Equal(t, media.FormatMovie, record.Format)
	assert.Nil(t, record.FinishDate)
}

func TestBuild_Manga(t *testing.T) {
	entries := loadEntries(t, "manga_page1.json")

	record, err := Build(entries[0], media.Manga)
	require.NoError(t, err)

	assert.Equal(t, media.Key("manga:myanimelist:2"), record.Key)
	assert.Equal(t, media.FormatManga, record.Format)
	assert.Equal(t, media.StatusHiatus, record.Status)
	assert.Nil(t, record.Chapters)
	assert.Nil(t, record.Volumes)
	assert.Nil(t, record.Duration)
	assert.Empty(t, record.Rating)
	require.NotNil(t, record.StartDate)
	assert.Equal(t, time.Date(1989, 8, 25, 0, 0, 0, 0, time.UTC), *record.StartDate)
	assert.Equal(t, []string{"https://myanimelist.net/manga/2/Berserk"}, record.Links)
	assert.Len(t, record.Genres, 6)
}

func validEntry() Entry {
	episodes := 12
	return Entry{
		MalID:    42,
		Title:    "Test Title",
		Images:   images{JPG: imageSet{LargeImageURL: "https://cdn.example.com/42l.jpg"}},
		Type:     "TV",
		Episodes: &episodes,
		Status:   "Currently Airing",
		Duration: "23 min per ep",
	}
}

func TestBuild_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Entry)
		field  string
	}{
		{
			name:   "no title candidates",
			mutate: func(e *Entry) { e.Title = "" },
			field:  "titles",
		},
		{
			name:   "no image candidates",
			mutate: func(e *Entry) { e.Images = images{} },
			field:  "images",
		},
		{
			name:   "unit without value",
			mutate: func(e *Entry) { e.Duration = "min per ep" },
			field:  "duration",
		},
		{
			name:   "missing id",
			mutate: func(e *Entry) { e.MalID = 0 },
			field:  "mapping",
		},
		{
			name:   "relative image url",
			mutate: func(e *Entry) { e.Images.JPG.LargeImageURL = "/images/42.jpg" },
			field:  "images.large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(&entry)

			_, err := Build(entry, media.Anime)
			require.Error(t, err)

			buildErr, ok := errors.AsBuildError(err)
			require.True(t, ok, "expected BuildError, got %T", err)
			assert.Equal(t, tt.field, buildErr.Field)
		})
	}
}

func TestBuild_Defaults(t *testing.T) {
	entry := validEntry()
	entry.Duration = "Unknown"
	entry.Type = "TV Special"

	record, err := Build(entry, media.Anime)
	require.NoError(t, err)
	assert.Equal(t, media.StatusAuto, record.Status)
	assert.Nil(t, record.Duration)
	assert.Empty(t, record.Format)
	assert.Empty(t, record.Genres)
	assert.Equal(t, []string{"https://myanimelist.net/anime/42"}, record.Links)
}

func TestBuild_AdultFlag(t *testing.T) {
	rated := validEntry()
	rated.Rating = "Rx - Hentai"
	record, err := Build(rated, media.Anime)
	require.NoError(t, err)
	assert.True(t, record.IsAdult)

	explicit := validEntry()
	explicit.ExplicitGenres = []named{{Name: "Erotica"}}
	record, err = Build(explicit, media.Anime)
	require.NoError(t, err)
	assert.True(t, record.IsAdult)
	assert.Equal(t, []media.Genre{media.GenreErotica}, record.Genres)

	record, err = Build(validEntry(), media.Anime)
	require.NoError(t, err)
	assert.False(t, record.IsAdult)
}

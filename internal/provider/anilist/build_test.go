package anilist

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
	var resp pageResponse
	require.NoError(t, json.Unmarshal(testutil.Fixture(t, fixture), &resp))
	return resp.Data.Page.Media
}

func TestBuild_Anime(t *testing.T) {
	entries := loadEntries(t, "anime_page1.json")

	record, err := Build(entries[0], media.Anime)
	require.NoError(t, err)

	assert.Equal(t, media.Key("anime:anilist:1"), record.Key)
	assert.Equal(t, "Cowboy Bebop", record.Titles.Romaji)
	assert.Equal(t, "Enter a world in the distant future.\n\n(Source: Sunrise)", record.Description)
	assert.Equal(t, "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx1.jpg", record.Images.Large)
	assert.Equal(t, "https://s4.anilist.co/file/anilistcdn/media/anime/cover/small/bx1.jpg", record.Images.Small)
	assert.Equal(t, "https://s4.anilist.co/file/anilistcdn/media/anime/banner/1.jpg", record.Banner)
	assert.Equal(t, media.FormatTV, record.Format)
	assert.Equal(t, media.StatusFinished, record.Status)
	assert.Equal(t, []media.Genre{media.GenreAction, media.GenreAdventure, media.GenreDrama, media.GenreSciFi}, record.Genres)
	require.NotNil(t, record.Duration)
	assert.Equal(t, 24*time.Minute, *record.Duration)
	assert.Equal(t, time.Date(1999, 4, 24, 0, 0, 0, 0, time.UTC), *record.FinishDate)
	assert.Equal(t, []media.Key{"anime:myanimelist:1"}, record.Related)
	assert.Empty(t, record.Rating)
}

func TestBuild_PartialData(t *testing.T) {
	entries := loadEntries(t, "anime_page1.json")

	record, err := Build(entries[1], media.Anime)
	require.NoError(t, err)

	assert.Equal(t, "https://s4.anilist.co/file/anilistcdn/media/anime/cover/medium/bx5.jpg", record.Images.Large)
	assert.Equal(t, record.Images.Large, record.Images.Small)
	assert.Equal(t, media.StatusAuto, record.Status)
	assert.Equal(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), *record.StartDate)
	assert.Nil(t, record.FinishDate)
	assert.Empty(t, record.Description)
	assert.Nil(t, record.Related)
	assert.Equal(t, []string{"https://anilist.co/anime/5"}, record.Links)
}

func TestBuild_MangaCountryFormat(t *testing.T) {
	entries := loadEntries(t, "manga_page1.json")

	onePiece, err := Build(entries[0], media.Manga)
	require.NoError(t, err)
	assert.Equal(t, media.FormatManga, onePiece.Format)
	assert.Nil(t, onePiece.Chapters)
	assert.Nil(t, onePiece.Duration)
	assert.Equal(t, []media.Key{"manga:myanimelist:13"}, onePiece.Related)

	soloLeveling, err := Build(entries[1], media.Manga)
	require.NoError(t, err)
	assert.Equal(t, media.FormatManhwa, soloLeveling.Format)
	assert.Equal(t, 201, *soloLeveling.Chapters)
	assert.Equal(t, 14, *soloLeveling.Volumes)
}

func TestBuild_Rejections(t *testing.T) {
	base := func() Entry {
		year := 2020
		return Entry{
			ID:         99,
			Title:      title{Romaji: "Title"},
			CoverImage: coverImage{Large: "https://s4.anilist.co/99.jpg"},
			StartDate:  fuzzyDate{Year: &year},
		}
	}

	tests := []struct {
		name   string
		mutate func(e *Entry)
		field  string
	}{
		{name: "no titles", mutate: func(e *Entry) { e.Title = title{} }, field: "titles"},
		{name: "no images", mutate: func(e *Entry) { e.CoverImage = coverImage{} }, field: "images"},
		{name: "no id", mutate: func(e *Entry) { e.ID = 0 }, field: "mapping"},
		{name: "bad banner", mutate: func(e *Entry) { e.BannerImage = "banner.jpg" }, field: "banner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := base()
			tt.mutate(&entry)

			_, err := Build(entry, media.Anime)
			buildErr, ok := errors.AsBuildError(err)
			require.True(t, ok, "expected BuildError, got %v", err)
			assert.Equal(t, tt.field, buildErr.Field)
		})
	}
}

func TestBuild_AdultFlag(t *testing.T) {
	entry := Entry{
		ID:         7,
		Title:      title{Native: "作品"},
		CoverImage: coverImage{Medium: "https://s4.anilist.co/7.jpg"},
		Genres:     []string{"Hentai"},
	}
	record, err := Build(entry, media.Anime)
	require.NoError(t, err)
	assert.True(t, record.IsAdult)

	entry.Genres = []string{"Ecchi"}
	entry.IsAdult = true
	record, err = Build(entry, media.Anime)
	require.NoError(t, err)
	assert.True(t, record.IsAdult)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "plain", plainText("  plain "))
	assert.Equal(t, "", plainText(""))
	assert.Equal(t, "a & b", plainText("a &amp; b"))
	assert.Equal(t, "line one\nline two", plainText("<b>line one</b><br>line two"))
}

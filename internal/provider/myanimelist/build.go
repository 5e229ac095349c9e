package myanimelist

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/normalize"
)

const siteURL = "https://myanimelist.net"

// Build converts a Jikan entry into a normalized record of mediaType.
func Build(e Entry, mediaType media.Type) (media.Record, error) {
	if e.MalID <= 0 {
		return media.Record{}, errors.NewBuildError("mapping", "missing mal_id")
	}
	key := media.BuildKey(mediaType, Code, strconv.Itoa(e.MalID))

	r := media.Record{
		Type: mediaType,
		Key:  key,
		Titles: media.Titles{
			Romaji:  e.Title,
			English: e.TitleEnglish,
			Native:  e.TitleJapanese,
			Spanish: e.spanishTitle(),
		},
		Description: e.Synopsis,
		Images: media.Images{
			Large: firstNonEmpty(e.Images.WebP.LargeImageURL, e.Images.JPG.LargeImageURL),
			Small: firstNonEmpty(e.Images.WebP.SmallImageURL, e.Images.JPG.SmallImageURL),
		},
		Status: Tables.Status(e.Status),
		Genres: Tables.GenreList(e.genreNames(), e.explicitGenreNames()),
	}

	if !r.Titles.Any() {
		return media.Record{}, buildError(key, "titles", "no title candidates")
	}
	if !r.Images.Any() {
		return media.Record{}, buildError(key, "images", "no image candidates")
	}

	if format, ok := Tables.Format(e.Type); ok {
		r.Format = format
	}

	dates := e.Aired
	switch mediaType {
	case media.Anime:
		r.Episodes = e.Episodes
		if rating, ok := Tables.Rating(e.Rating); ok {
			r.Rating = rating
		}
		if e.Duration != "" {
			d, err := normalize.ParseDuration(e.Duration)
			if err != nil {
				return media.Record{}, buildError(key, "duration", err.Error())
			}
			if d > 0 {
				r.Duration = &d
			}
		}
	case media.Manga:
		r.Chapters = e.Chapters
		r.Volumes = e.Volumes
		dates = e.Published
	}
	r.StartDate = dateOnly(dates.From)
	r.FinishDate = dateOnly(dates.To)

	r.IsAdult = r.Rating == media.RatingRX || hasGenre(r.Genres, media.GenreHentai, media.GenreErotica)

	link := e.URL
	if link == "" {
		link = fmt.Sprintf("%s/%s/%d", siteURL, mediaType, e.MalID)
	}
	r.Links = []string{link}

	if err := media.Validate(r); err != nil {
		return media.Record{}, err
	}
	return r, nil
}

func buildError(key media.Key, field, reason string) error {
	err := errors.NewBuildError(field, reason)
	err.Key = string(key)
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func hasGenre(genres []media.Genre, wanted ...media.Genre) bool {
	for _, g := range genres {
		for _, w := range wanted {
			if g == w {
				return true
			}
		}
	}
	return false
}

package anilist

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/media"
)

const (
	siteURL = "https://anilist.co"

	// malCode is the provider code AniList's idMal cross-references.
	malCode = "myanimelist"
)

// Build converts an AniList media object into a normalized record of
// mediaType.
func Build(e Entry, mediaType media.Type) (media.Record, error) {
	if e.ID <= 0 {
		return media.Record{}, errors.NewBuildError("mapping", "missing id")
	}
	key := media.BuildKey(mediaType, Code, strconv.Itoa(e.ID))

	r := media.Record{
		Type: mediaType,
		Key:  key,
		Titles: media.Titles{
			Romaji:  e.Title.Romaji,
			English: e.Title.English,
			Native:  e.Title.Native,
		},
		Description: plainText(e.Description),
		Images: media.Images{
			Large: firstNonEmpty(e.CoverImage.ExtraLarge, e.CoverImage.Large),
			Small: firstNonEmpty(e.CoverImage.Medium, e.CoverImage.Large),
		},
		Banner:     e.BannerImage,
		Status:     Tables.Status(e.Status),
		Genres:     Tables.GenreList(e.Genres),
		StartDate:  e.StartDate.Time(),
		FinishDate: e.EndDate.Time(),
		IsAdult:    e.IsAdult,
	}

	if !r.Titles.Any() {
		return media.Record{}, buildError(key, "titles", "no title candidates")
	}
	if !r.Images.Any() {
		return media.Record{}, buildError(key, "images", "no image candidates")
	}

	if format, ok := Tables.Format(e.Format); ok {
		if refined, ok := countryFormats[e.CountryOfOrigin]; ok && format == media.FormatManga {
			format = refined
		}
		r.Format = format
	}

	switch mediaType {
	case media.Anime:
		r.Episodes = e.Episodes
		if e.Duration != nil && *e.Duration > 0 {
			d := time.Duration(*e.Duration) * time.Minute
			r.Duration = &d
		}
	case media.Manga:
		r.Chapters = e.Chapters
		r.Volumes = e.Volumes
	}

	for _, g := range r.Genres {
		if g == media.GenreHentai {
			r.IsAdult = true
		}
	}

	link := e.SiteURL
	if link == "" {
		link = fmt.Sprintf("%s/%s/%d", siteURL, mediaType, e.ID)
	}
	r.Links = []string{link}

	if e.IDMal != nil && *e.IDMal > 0 {
		r.Related = []media.Key{media.BuildKey(mediaType, malCode, strconv.Itoa(*e.IDMal))}
	}

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

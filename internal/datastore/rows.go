package datastore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lepinkainen/naoka/internal/media"
)

const dateLayout = "2006-01-02"

// mediaRow is the stored shape of a media.Record.
type mediaRow struct {
	ID          int64          `db:"id"`
	Type        string         `db:"type"`
	TitleRo     string         `db:"title_ro"`
	TitleEn     string         `db:"title_en"`
	TitleEs     string         `db:"title_es"`
	TitleNa     string         `db:"title_na"`
	Description string         `db:"description"`
	ImageLarge  string         `db:"image_large"`
	ImageSmall  string         `db:"image_small"`
	Banner      string         `db:"banner"`
	Episodes    sql.NullInt64  `db:"episodes"`
	Chapters    sql.NullInt64  `db:"chapters"`
	Volumes     sql.NullInt64  `db:"volumes"`
	Duration    sql.NullInt64  `db:"duration"`
	Status      string         `db:"status"`
	DateStart   sql.NullString `db:"date_start"`
	DateFinish  sql.NullString `db:"date_finish"`
	Genres      string         `db:"genres"`
	Format      string         `db:"format"`
	Rating      string         `db:"rating"`
	IsAdult     bool           `db:"is_adult"`
	Links       string         `db:"links"`
	Mapping     string         `db:"mapping"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
}

func newMediaRow(r media.Record, now time.Time) (mediaRow, error) {
	genres := r.Genres
	if genres == nil {
		genres = []media.Genre{}
	}
	genresJSON, err := json.Marshal(genres)
	if err != nil {
		return mediaRow{}, fmt.Errorf("failed to encode genres: %w", err)
	}

	links := r.Links
	if links == nil {
		links = []string{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return mediaRow{}, fmt.Errorf("failed to encode links: %w", err)
	}

	stamp := now.UTC().Format(time.RFC3339)
	row := mediaRow{
		Type:        string(r.Type),
		TitleRo:     r.Titles.Romaji,
		TitleEn:     r.Titles.English,
		TitleEs:     r.Titles.Spanish,
		TitleNa:     r.Titles.Native,
		Description: r.Description,
		ImageLarge:  r.Images.Large,
		ImageSmall:  r.Images.Small,
		Banner:      r.Banner,
		Episodes:    nullInt(r.Episodes),
		Chapters:    nullInt(r.Chapters),
		Volumes:     nullInt(r.Volumes),
		Status:      string(r.Status),
		DateStart:   nullDate(r.StartDate),
		DateFinish:  nullDate(r.FinishDate),
		Genres:      string(genresJSON),
		Format:      string(r.Format),
		Rating:      string(r.Rating),
		IsAdult:     r.IsAdult,
		Links:       string(linksJSON),
		Mapping:     string(r.Key),
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}
	if row.Status == "" {
		row.Status = string(media.StatusAuto)
	}
	if r.Duration != nil {
		row.Duration = sql.NullInt64{Int64: int64(*r.Duration / time.Second), Valid: true}
	}
	return row, nil
}

// values returns the row in mediaColumns order.
func (row mediaRow) values() []any {
	return []any{
		row.Type, row.TitleRo, row.TitleEn, row.TitleEs, row.TitleNa, row.Description,
		row.ImageLarge, row.ImageSmall, row.Banner, row.Episodes, row.Chapters, row.Volumes,
		row.Duration, row.Status, row.DateStart, row.DateFinish, row.Genres, row.Format,
		row.Rating, row.IsAdult, row.Links, row.Mapping, row.CreatedAt, row.UpdatedAt,
	}
}

func (row mediaRow) record() (media.Record, error) {
	r := media.Record{
		Type: media.Type(row.Type),
		Titles: media.Titles{
			Romaji:  row.TitleRo,
			English: row.TitleEn,
			Spanish: row.TitleEs,
			Native:  row.TitleNa,
		},
		Description: row.Description,
		Images:      media.Images{Large: row.ImageLarge, Small: row.ImageSmall},
		Banner:      row.Banner,
		Episodes:    intPtr(row.Episodes),
		Chapters:    intPtr(row.Chapters),
		Volumes:     intPtr(row.Volumes),
		Status:      media.Status(row.Status),
		Format:      media.Format(row.Format),
		Rating:      media.Rating(row.Rating),
		IsAdult:     row.IsAdult,
		Key:         media.Key(row.Mapping),
	}

	if row.Duration.Valid {
		d := time.Duration(row.Duration.Int64) * time.Second
		r.Duration = &d
	}

	var err error
	if r.StartDate, err = parseDate(row.DateStart); err != nil {
		return media.Record{}, fmt.Errorf("%s: date_start: %w", row.Mapping, err)
	}
	if r.FinishDate, err = parseDate(row.DateFinish); err != nil {
		return media.Record{}, fmt.Errorf("%s: date_finish: %w", row.Mapping, err)
	}
	if err := json.Unmarshal([]byte(row.Genres), &r.Genres); err != nil {
		return media.Record{}, fmt.Errorf("%s: genres: %w", row.Mapping, err)
	}
	if err := json.Unmarshal([]byte(row.Links), &r.Links); err != nil {
		return media.Record{}, fmt.Errorf("%s: links: %w", row.Mapping, err)
	}
	return r, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(dateLayout), Valid: true}
}

func parseDate(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

package anilist

import (
	"fmt"
	"time"
)

type pageResponse struct {
	Data struct {
		Page struct {
			PageInfo pageInfo `json:"pageInfo"`
			Media    []Entry  `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type pageInfo struct {
	CurrentPage int  `json:"currentPage"`
	HasNextPage bool `json:"hasNextPage"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Entry is one AniList media object.
type Entry struct {
	ID              int        `json:"id"`
	IDMal           *int       `json:"idMal"`
	SiteURL         string     `json:"siteUrl"`
	UpdatedAt       int64      `json:"updatedAt"`
	CountryOfOrigin string     `json:"countryOfOrigin"`
	Title           title      `json:"title"`
	Description     string     `json:"description"`
	CoverImage      coverImage `json:"coverImage"`
	BannerImage     string     `json:"bannerImage"`
	Format          string     `json:"format"`
	Status          string     `json:"status"`
	Genres          []string   `json:"genres"`
	IsAdult         bool       `json:"isAdult"`
	Episodes        *int       `json:"episodes"`
	Chapters        *int       `json:"chapters"`
	Volumes         *int       `json:"volumes"`
	Duration        *int       `json:"duration"`
	StartDate       fuzzyDate  `json:"startDate"`
	EndDate         fuzzyDate  `json:"endDate"`
}

// Updated returns the entry's last modification time.
func (e Entry) Updated() time.Time {
	return time.Unix(e.UpdatedAt, 0).UTC()
}

type title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type coverImage struct {
	ExtraLarge string `json:"extraLarge"`
	Large      string `json:"large"`
	Medium     string `json:"medium"`
}

// fuzzyDate is AniList's partial date. Missing month or day fall back to
// the first of the period.
type fuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

func (d fuzzyDate) Time() *time.Time {
	if d.Year == nil || *d.Year <= 0 {
		return nil
	}
	month, day := 1, 1
	if d.Month != nil && *d.Month >= 1 && *d.Month <= 12 {
		month = *d.Month
	}
	if d.Day != nil && *d.Day >= 1 && *d.Day <= 31 {
		day = *d.Day
	}
	t := time.Date(*d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func (e graphQLError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

package media

import "time"

// Titles holds the title variants a provider may supply.
type Titles struct {
	Romaji  string `json:"romaji,omitempty"`
	English string `json:"english,omitempty"`
	Native  string `json:"native,omitempty"`
	Spanish string `json:"spanish,omitempty"`
}

// Any reports whether at least one title variant is set.
func (t Titles) Any() bool {
	return t.Romaji != "" || t.English != "" || t.Native != "" || t.Spanish != ""
}

// Preferred returns the first non-empty title, romaji first.
func (t Titles) Preferred() string {
	for _, title := range []string{t.Romaji, t.English, t.Native, t.Spanish} {
		if title != "" {
			return title
		}
	}
	return ""
}

// Images holds cover image URLs.
type Images struct {
	Large string `json:"large,omitempty" validate:"omitempty,url"`
	Small string `json:"small,omitempty" validate:"omitempty,url"`
}

// Any reports whether at least one cover image is set.
func (i Images) Any() bool {
	return i.Large != "" || i.Small != ""
}

// Record is the provider-independent representation of one catalog entry.
type Record struct {
	Type        Type           `json:"type" validate:"mediatype"`
	Titles      Titles         `json:"titles"`
	Description string         `json:"description,omitempty"`
	Images      Images         `json:"images"`
	Banner      string         `json:"banner,omitempty" validate:"omitempty,url"`
	Episodes    *int           `json:"episodes,omitempty" validate:"omitempty,gte=0"`
	Chapters    *int           `json:"chapters,omitempty" validate:"omitempty,gte=0"`
	Volumes     *int           `json:"volumes,omitempty" validate:"omitempty,gte=0"`
	Duration    *time.Duration `json:"duration,omitempty"`
	Status      Status         `json:"status" validate:"status"`
	StartDate   *time.Time     `json:"date_start,omitempty"`
	FinishDate  *time.Time     `json:"date_finish,omitempty"`
	Genres      []Genre        `json:"genres" validate:"unique,dive,genre"`
	Format      Format         `json:"format,omitempty" validate:"omitempty,mediaformat"`
	Rating      Rating         `json:"rating,omitempty" validate:"omitempty,rating"`
	IsAdult     bool           `json:"is_adult"`
	Links       []string       `json:"links,omitempty" validate:"dive,url"`
	Key         Key            `json:"mapping" validate:"identitykey"`

	// Related carries identity keys the provider itself cross-references,
	// e.g. the MyAnimeList id of an AniList entry.
	Related []Key `json:"-" validate:"dive,identitykey"`
}

// Lifecycle is the release state of a record at a point in time.
type Lifecycle string

const (
	LifecycleUnknown   Lifecycle = "unknown"
	LifecycleUpcoming  Lifecycle = "upcoming"
	LifecycleReleasing Lifecycle = "releasing"
	LifecycleFinished  Lifecycle = "finished"
	LifecycleHiatus    Lifecycle = "hiatus"
	LifecycleCancelled Lifecycle = "cancelled"
)

// EffectiveStatus resolves the lifecycle at now. Explicit statuses win;
// StatusAuto is derived from the start and finish dates.
func (r Record) EffectiveStatus(now time.Time) Lifecycle {
	switch r.Status {
	case StatusFinished:
		return LifecycleFinished
	case StatusHiatus:
		return LifecycleHiatus
	case StatusCancelled:
		return LifecycleCancelled
	}

	switch {
	case r.StartDate == nil:
		return LifecycleUnknown
	case now.Before(*r.StartDate):
		return LifecycleUpcoming
	case r.FinishDate != nil && !now.Before(*r.FinishDate):
		return LifecycleFinished
	default:
		return LifecycleReleasing
	}
}

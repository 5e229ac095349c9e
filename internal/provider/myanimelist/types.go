package myanimelist

import "time"

// listResponse is one page of the Jikan /anime or /manga listing.
type listResponse struct {
	Pagination pagination `json:"pagination"`
	Data       []Entry    `json:"data"`
}

type pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
	CurrentPage     int  `json:"current_page"`
}

// Entry is a Jikan anime or manga entry. Anime fill Aired, Episodes,
// Duration and Rating; manga fill Published, Chapters and Volumes.
type Entry struct {
	MalID          int        `json:"mal_id"`
	URL            string     `json:"url"`
	Images         images     `json:"images"`
	Titles         []altTitle `json:"titles"`
	Title          string     `json:"title"`
	TitleEnglish   string     `json:"title_english"`
	TitleJapanese  string     `json:"title_japanese"`
	Type           string     `json:"type"`
	Episodes       *int       `json:"episodes"`
	Chapters       *int       `json:"chapters"`
	Volumes        *int       `json:"volumes"`
	Status         string     `json:"status"`
	Aired          dateRange  `json:"aired"`
	Published      dateRange  `json:"published"`
	Duration       string     `json:"duration"`
	Rating         string     `json:"rating"`
	Synopsis       string     `json:"synopsis"`
	Genres         []named    `json:"genres"`
	ExplicitGenres []named    `json:"explicit_genres"`
}

type images struct {
	JPG  imageSet `json:"jpg"`
	WebP imageSet `json:"webp"`
}

type imageSet struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url"`
	LargeImageURL string `json:"large_image_url"`
}

type altTitle struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

type dateRange struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

type named struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}

func (e Entry) genreNames() []string {
	return names(e.Genres)
}

func (e Entry) explicitGenreNames() []string {
	return names(e.ExplicitGenres)
}

func names(list []named) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Name)
	}
	return out
}

func (e Entry) spanishTitle() string {
	for _, t := range e.Titles {
		if t.Type == "Spanish" {
			return t.Title
		}
	}
	return ""
}

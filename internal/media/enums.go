package media

// Format is the publication or broadcast format of a work.
type Format string

const (
	FormatTV         Format = "tv"
	FormatTVShort    Format = "tv_short"
	FormatMovie      Format = "movie"
	FormatSpecial    Format = "special"
	FormatOVA        Format = "ova"
	FormatONA        Format = "ona"
	FormatMusic      Format = "music"
	FormatManga      Format = "manga"
	FormatNovel      Format = "novel"
	FormatLightNovel Format = "light_novel"
	FormatOneShot    Format = "one_shot"
	FormatDoujinshi  Format = "doujinshi"
	FormatManhwa     Format = "manhwa"
	FormatManhua     Format = "manhua"
	FormatOEL        Format = "oel"
)

// Formats lists every canonical format.
var Formats = []Format{
	FormatTV, FormatTVShort, FormatMovie, FormatSpecial, FormatOVA, FormatONA,
	FormatMusic, FormatManga, FormatNovel, FormatLightNovel, FormatOneShot,
	FormatDoujinshi, FormatManhwa, FormatManhua, FormatOEL,
}

// Status is the lifecycle status of a work. StatusAuto means the status is
// derived from the start and finish dates.
type Status string

const (
	StatusAuto      Status = "auto"
	StatusFinished  Status = "finished"
	StatusHiatus    Status = "hiatus"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every canonical status.
var Statuses = []Status{StatusAuto, StatusFinished, StatusHiatus, StatusCancelled}

// Rating is the audience rating of a work.
type Rating string

const (
	RatingG     Rating = "g"
	RatingPG    Rating = "pg"
	RatingPG13  Rating = "pg_13"
	RatingR     Rating = "r"
	RatingRPlus Rating = "r_plus"
	RatingRX    Rating = "rx"
)

// Ratings lists every canonical rating.
var Ratings = []Rating{RatingG, RatingPG, RatingPG13, RatingR, RatingRPlus, RatingRX}

// Genre is a canonical genre tag.
type Genre string

const (
	GenreAction        Genre = "action"
	GenreAdventure     Genre = "adventure"
	GenreAvantGarde    Genre = "avant_garde"
	GenreAwardWinning  Genre = "award_winning"
	GenreComedy        Genre = "comedy"
	GenreDrama         Genre = "drama"
	GenreEcchi         Genre = "ecchi"
	GenreErotica       Genre = "erotica"
	GenreFantasy       Genre = "fantasy"
	GenreGourmet       Genre = "gourmet"
	GenreHentai        Genre = "hentai"
	GenreHorror        Genre = "horror"
	GenreMahouShoujo   Genre = "mahou_shoujo"
	GenreMecha         Genre = "mecha"
	GenreMusic         Genre = "music"
	GenreMystery       Genre = "mystery"
	GenrePsychological Genre = "psychological"
	GenreRomance       Genre = "romance"
	GenreSciFi         Genre = "sci_fi"
	GenreSliceOfLife   Genre = "slice_of_life"
	GenreSports        Genre = "sports"
	GenreSupernatural  Genre = "supernatural"
	GenreSuspense      Genre = "suspense"
	GenreThriller      Genre = "thriller"
	GenreYaoi          Genre = "yaoi"
	GenreYuri          Genre = "yuri"
)

// Genres lists every canonical genre.
var Genres = []Genre{
	GenreAction, GenreAdventure, GenreAvantGarde, GenreAwardWinning, GenreComedy,
	GenreDrama, GenreEcchi, GenreErotica, GenreFantasy, GenreGourmet, GenreHentai,
	GenreHorror, GenreMahouShoujo, GenreMecha, GenreMusic, GenreMystery,
	GenrePsychological, GenreRomance, GenreSciFi, GenreSliceOfLife, GenreSports,
	GenreSupernatural, GenreSuspense, GenreThriller, GenreYaoi, GenreYuri,
}

var (
	formatSet = toSet(Formats)
	statusSet = toSet(Statuses)
	ratingSet = toSet(Ratings)
	genreSet  = toSet(Genres)
)

func toSet[T comparable](values []T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Valid reports whether f is a canonical format.
func (f Format) Valid() bool {
	_, ok := formatSet[f]
	return ok
}

// Valid reports whether s is a canonical status.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Valid reports whether r is a canonical rating.
func (r Rating) Valid() bool {
	_, ok := ratingSet[r]
	return ok
}

// Valid reports whether g is a canonical genre.
func (g Genre) Valid() bool {
	_, ok := genreSet[g]
	return ok
}

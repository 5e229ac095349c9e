package myanimelist

import (
	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/normalize"
)

// Tables is the MyAnimeList vocabulary.
var Tables = normalize.Tables{
	GenreTable: normalize.NewTable(map[string]media.Genre{
		"action":        media.GenreAction,
		"adventure":     media.GenreAdventure,
		"avant garde":   media.GenreAvantGarde,
		"award winning": media.GenreAwardWinning,
		"boys love":     media.GenreYaoi,
		"comedy":        media.GenreComedy,
		"drama":         media.GenreDrama,
		"ecchi":         media.GenreEcchi,
		"erotica":       media.GenreErotica,
		"fantasy":       media.GenreFantasy,
		"girls love":    media.GenreYuri,
		"gourmet":       media.GenreGourmet,
		"hentai":        media.GenreHentai,
		"horror":        media.GenreHorror,
		"mystery":       media.GenreMystery,
		"romance":       media.GenreRomance,
		"sci-fi":        media.GenreSciFi,
		"slice of life": media.GenreSliceOfLife,
		"sports":        media.GenreSports,
		"supernatural":  media.GenreSupernatural,
		"suspense":      media.GenreSuspense,
	}),
	FormatTable: normalize.IdentityTable(media.Formats),
	RatingTable: normalize.NewTable(map[string]media.Rating{
		"g - all ages":                   media.RatingG,
		"pg - children":                  media.RatingPG,
		"pg-13 - teens 13 or older":      media.RatingPG13,
		"r - 17+ (violence & profanity)": media.RatingR,
		"r+ - mild nudity":               media.RatingRPlus,
		"rx - hentai":                    media.RatingRX,
	}),
	StatusTable: normalize.NewTable(map[string]media.Status{
		"finished airing": media.StatusFinished,
		"finished":        media.StatusFinished,
		"on hiatus":       media.StatusHiatus,
		"discontinued":    media.StatusCancelled,
	}),
}

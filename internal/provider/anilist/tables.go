package anilist

import (
	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/normalize"
)

// Tables is the AniList vocabulary. Formats use AniList's enum names, which
// already match the canonical tokens. AniList has no audience rating.
var Tables = normalize.Tables{
	GenreTable: normalize.NewTable(map[string]media.Genre{
		"action":        media.GenreAction,
		"adventure":     media.GenreAdventure,
		"comedy":        media.GenreComedy,
		"drama":         media.GenreDrama,
		"ecchi":         media.GenreEcchi,
		"fantasy":       media.GenreFantasy,
		"hentai":        media.GenreHentai,
		"horror":        media.GenreHorror,
		"mahou shoujo":  media.GenreMahouShoujo,
		"mecha":         media.GenreMecha,
		"music":         media.GenreMusic,
		"mystery":       media.GenreMystery,
		"psychological": media.GenrePsychological,
		"romance":       media.GenreRomance,
		"sci-fi":        media.GenreSciFi,
		"slice of life": media.GenreSliceOfLife,
		"sports":        media.GenreSports,
		"supernatural":  media.GenreSupernatural,
		"thriller":      media.GenreThriller,
	}),
	FormatTable: normalize.IdentityTable(media.Formats),
	StatusTable: normalize.NewTable(map[string]media.Status{
		"finished":  media.StatusFinished,
		"cancelled": media.StatusCancelled,
		"hiatus":    media.StatusHiatus,
	}),
}

// countryFormats refines the MANGA format by country of origin.
var countryFormats = map[string]media.Format{
	"KR": media.FormatManhwa,
	"CN": media.FormatManhua,
	"TW": media.FormatManhua,
}

package anilist

// pageQuery lists one page of media of a single type in the given order.
const pageQuery = `
query ($page: Int, $perPage: Int, $type: MediaType, $sort: [MediaSort]) {
  Page(page: $page, perPage: $perPage) {
    pageInfo {
      currentPage
      hasNextPage
    }
    media(type: $type, sort: $sort) {
      id
      idMal
      siteUrl
      updatedAt
      countryOfOrigin
      title {
        romaji
        english
        native
      }
      description
      coverImage {
        extraLarge
        large
        medium
      }
      bannerImage
      format
      status
      genres
      isAdult
      episodes
      chapters
      volumes
      duration
      startDate {
        year
        month
        day
      }
      endDate {
        year
        month
        day
      }
    }
  }
}
`

const (
	sortByID        = "ID"
	sortByUpdatedAt = "UPDATED_AT_DESC"
)

type pageVariables struct {
	Page    int      `json:"page"`
	PerPage int      `json:"perPage"`
	Type    string   `json:"type"`
	Sort    []string `json:"sort"`
}

type graphQLRequest struct {
	Query     string        `json:"query"`
	Variables pageVariables `json:"variables"`
}

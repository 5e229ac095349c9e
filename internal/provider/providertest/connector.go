// Package providertest provides an in-memory Connector for tests.
package providertest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/provider"
)

// Connector serves fixed records page by page. FailAt makes the entry with
// that zero-based index fail to build; FetchFailPage makes that page number
// fail to fetch.
type Connector struct {
	CodeName      string
	Types         []media.Type
	PerPage       int
	Records       map[media.Type][]media.Record
	UpdateRecords map[media.Type][]media.Record
	FailAt        map[media.Type]int
	FetchFailPage map[media.Type]int

	mu        sync.Mutex
	fetches   int
	lastSince time.Time
}

// Code implements provider.Connector.
func (c *Connector) Code() string { return c.CodeName }

// MediaTypes implements provider.Connector.
func (c *Connector) MediaTypes() []media.Type { return c.Types }

// Init implements provider.Connector.
func (c *Connector) Init(mediaType media.Type, offset int) provider.Sequence {
	page, skip := provider.PageStart(offset, c.perPage())
	return c.pager(mediaType, c.Records[mediaType], page, skip)
}

// Update implements provider.Connector.
func (c *Connector) Update(mediaType media.Type, since time.Time) provider.Sequence {
	c.mu.Lock()
	c.lastSince = since
	c.mu.Unlock()

	records, ok := c.UpdateRecords[mediaType]
	if !ok {
		return provider.Empty()
	}
	return c.pager(mediaType, records, 1, 0)
}

// Fetches returns how many pages have been fetched.
func (c *Connector) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// LastSince returns the since argument of the latest Update call.
func (c *Connector) LastSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSince
}

type entry struct {
	index  int
	record media.Record
}

func (c *Connector) pager(mediaType media.Type, records []media.Record, firstPage, skip int) provider.Sequence {
	perPage := c.perPage()
	fetch := func(ctx context.Context, page int) (provider.Page[entry], error) {
		c.mu.Lock()
		c.fetches++
		c.mu.Unlock()

		if failPage, ok := c.FetchFailPage[mediaType]; ok && failPage == page {
			return provider.Page[entry]{}, errors.NewRemoteFetchError(c.CodeName,
				fmt.Sprintf("memory://%s?page=%d", mediaType, page), 503, nil)
		}

		start := (page - 1) * perPage
		if start >= len(records) {
			return provider.Page[entry]{}, nil
		}
		end := min(start+perPage, len(records))

		entries := make([]entry, 0, end-start)
		for i := start; i < end; i++ {
			entries = append(entries, entry{index: i, record: records[i]})
		}
		return provider.Page[entry]{Entries: entries, HasNext: end < len(records)}, nil
	}

	build := func(e entry) (media.Record, error) {
		if failAt, ok := c.FailAt[mediaType]; ok && failAt == e.index {
			buildErr := errors.NewBuildError("titles", "no title candidates")
			buildErr.Key = string(e.record.Key)
			return media.Record{}, buildErr
		}
		return e.record, nil
	}

	return provider.NewPager(firstPage, skip, fetch, build)
}

func (c *Connector) perPage() int {
	if c.PerPage > 0 {
		return c.PerPage
	}
	return 10
}

// Records generates n valid records for provider code and mediaType with ids
// 1..n.
func Records(code string, mediaType media.Type, n int) []media.Record {
	records := make([]media.Record, n)
	for i := range records {
		id := strconv.Itoa(i + 1)
		records[i] = media.Record{
			Type:   mediaType,
			Titles: media.Titles{Romaji: fmt.Sprintf("%s %s", mediaType, id)},
			Images: media.Images{Large: fmt.Sprintf("https://img.example.com/%s/%s.jpg", mediaType, id)},
			Status: media.StatusAuto,
			Genres: []media.Genre{media.GenreDrama},
			Key:    media.BuildKey(mediaType, code, id),
		}
	}
	return records
}

// Package myanimelist imports the MyAnimeList catalog through the Jikan REST
// API.
package myanimelist

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/provider"
)

const (
	// Code is the provider code used in identity keys.
	Code = "myanimelist"

	// DefaultBaseURL is the public Jikan v4 endpoint.
	DefaultBaseURL = "https://api.jikan.moe/v4"

	// DefaultPerPage is the largest page Jikan serves.
	DefaultPerPage = 25
)

// Connector pages through the Jikan anime and manga listings.
type Connector struct {
	client  *provider.Client
	baseURL string
	perPage int
}

var _ provider.Connector = (*Connector)(nil)

// Option configures a Connector.
type Option func(*Connector)

// WithBaseURL points the connector at another Jikan instance.
func WithBaseURL(baseURL string) Option {
	return func(c *Connector) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithPerPage sets the page size requested from Jikan.
func WithPerPage(perPage int) Option {
	return func(c *Connector) {
		if perPage > 0 {
			c.perPage = perPage
		}
	}
}

// New creates a Connector using client for HTTP.
func New(client *provider.Client, opts ...Option) *Connector {
	c := &Connector{
		client:  client,
		baseURL: DefaultBaseURL,
		perPage: DefaultPerPage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Code implements provider.Connector.
func (c *Connector) Code() string {
	return Code
}

// MediaTypes implements provider.Connector.
func (c *Connector) MediaTypes() []media.Type {
	return []media.Type{media.Anime, media.Manga}
}

// Init implements provider.Connector.
func (c *Connector) Init(mediaType media.Type, offset int) provider.Sequence {
	page, skip := provider.PageStart(offset, c.perPage)
	slog.Debug("Starting MyAnimeList listing", "type", mediaType, "page", page, "skip", skip)

	fetch := func(ctx context.Context, page int) (provider.Page[Entry], error) {
		return c.fetchPage(ctx, mediaType, page)
	}
	build := func(e Entry) (media.Record, error) {
		return Build(e, mediaType)
	}
	return provider.NewPager(page, skip, fetch, build)
}

// Update implements provider.Connector. Jikan has no listing ordered by
// modification time, so there is nothing to pull incrementally.
func (c *Connector) Update(mediaType media.Type, since time.Time) provider.Sequence {
	slog.Info("MyAnimeList does not support incremental updates", "type", mediaType, "since", since)
	return provider.Empty()
}

func (c *Connector) fetchPage(ctx context.Context, mediaType media.Type, page int) (provider.Page[Entry], error) {
	endpoint := c.listURL(mediaType, page)

	resp, err := provider.Cached(c.client, endpoint, func() (listResponse, error) {
		var resp listResponse
		err := c.client.GetJSON(ctx, endpoint, &resp)
		return resp, err
	})
	if err != nil {
		return provider.Page[Entry]{}, err
	}

	slog.Debug("Fetched MyAnimeList page", "type", mediaType, "page", page, "entries", len(resp.Data), "has_next", resp.Pagination.HasNextPage)
	return provider.Page[Entry]{
		Entries: resp.Data,
		HasNext: resp.Pagination.HasNextPage,
	}, nil
}

func (c *Connector) listURL(mediaType media.Type, page int) string {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(c.perPage))
	return fmt.Sprintf("%s/%s?%s", c.baseURL, mediaType, params.Encode())
}

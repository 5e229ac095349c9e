// Package anilist imports the AniList catalog through its GraphQL API.
package anilist

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/provider"
)

const (
	// Code is the provider code used in identity keys.
	Code = "anilist"

	// DefaultBaseURL is the public AniList GraphQL endpoint.
	DefaultBaseURL = "https://graphql.anilist.co"

	// DefaultPerPage is the largest page AniList serves.
	DefaultPerPage = 50
)

// Connector pages through AniList media listings.
type Connector struct {
	client  *provider.Client
	baseURL string
	perPage int
}

var _ provider.Connector = (*Connector)(nil)

// Option configures a Connector.
type Option func(*Connector)

// WithBaseURL points the connector at another GraphQL endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Connector) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithPerPage sets the page size requested from AniList.
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

// Init implements provider.Connector. Entries are listed by id so the order
// is stable between runs and offsets stay meaningful.
func (c *Connector) Init(mediaType media.Type, offset int) provider.Sequence {
	page, skip := provider.PageStart(offset, c.perPage)

	fetch := func(ctx context.Context, page int) (provider.Page[Entry], error) {
		vars := c.variables(mediaType, page, sortByID)
		resp, err := provider.Cached(c.client, cacheKey(c.baseURL, vars), func() (pageResponse, error) {
			return c.fetchPage(ctx, vars)
		})
		if err != nil {
			return provider.Page[Entry]{}, err
		}
		return provider.Page[Entry]{
			Entries: resp.Data.Page.Media,
			HasNext: resp.Data.Page.PageInfo.HasNextPage,
		}, nil
	}
	return provider.NewPager(page, skip, fetch, builder(mediaType))
}

// Update implements provider.Connector. Entries are listed newest change
// first and the sequence ends at the first entry last changed before since.
func (c *Connector) Update(mediaType media.Type, since time.Time) provider.Sequence {
	fetch := func(ctx context.Context, page int) (provider.Page[Entry], error) {
		resp, err := c.fetchPage(ctx, c.variables(mediaType, page, sortByUpdatedAt))
		if err != nil {
			return provider.Page[Entry]{}, err
		}

		entries := resp.Data.Page.Media
		for i, e := range entries {
			if e.Updated().Before(since) {
				slog.Debug("Reached entries older than last update", "type", mediaType, "page", page, "since", since)
				return provider.Page[Entry]{Entries: entries[:i]}, nil
			}
		}
		return provider.Page[Entry]{
			Entries: entries,
			HasNext: resp.Data.Page.PageInfo.HasNextPage,
		}, nil
	}
	return provider.NewPager(1, 0, fetch, builder(mediaType))
}

func builder(mediaType media.Type) provider.BuildFunc[Entry] {
	return func(e Entry) (media.Record, error) {
		return Build(e, mediaType)
	}
}

func (c *Connector) variables(mediaType media.Type, page int, sort string) pageVariables {
	return pageVariables{
		Page:    page,
		PerPage: c.perPage,
		Type:    strings.ToUpper(string(mediaType)),
		Sort:    []string{sort},
	}
}

func (c *Connector) fetchPage(ctx context.Context, vars pageVariables) (pageResponse, error) {
	var resp pageResponse
	req := graphQLRequest{Query: pageQuery, Variables: vars}
	if err := c.client.PostJSON(ctx, c.baseURL, req, &resp); err != nil {
		return pageResponse{}, err
	}

	if len(resp.Errors) > 0 {
		errs := make([]error, len(resp.Errors))
		status := 0
		for i, e := range resp.Errors {
			errs[i] = e
			if status == 0 {
				status = e.Status
			}
		}
		return pageResponse{}, errors.NewRemoteFetchError(Code, c.baseURL, status, stdErrors.Join(errs...))
	}

	slog.Debug("Fetched AniList page", "type", vars.Type, "page", vars.Page, "entries", len(resp.Data.Page.Media), "has_next", resp.Data.Page.PageInfo.HasNextPage)
	return resp, nil
}

func cacheKey(baseURL string, vars pageVariables) string {
	encoded, err := json.Marshal(vars)
	if err != nil {
		return baseURL
	}
	return baseURL + "#" + string(encoded)
}

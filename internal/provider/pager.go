package provider

import (
	"context"
	"io"

	"github.com/lepinkainen/naoka/internal/media"
)

// Page is one fetched page of raw provider entries.
type Page[E any] struct {
	Entries []E
	HasNext bool
}

// PageFunc fetches the page with the given 1-based number.
type PageFunc[E any] func(ctx context.Context, page int) (Page[E], error)

// BuildFunc turns one raw entry into a normalized record.
type BuildFunc[E any] func(entry E) (media.Record, error)

// Pager is a Sequence over a page-numbered remote listing. It holds its
// cursor explicitly: the next page number, the buffered page and the position
// inside it. A page is fetched only when the buffer runs dry.
type Pager[E any] struct {
	fetch PageFunc[E]
	build BuildFunc[E]

	nextPage int
	skip     int
	buf      []E
	pos      int
	hasNext  bool
	err      error
}

// NewPager returns a pager that starts at firstPage and drops the first skip
// entries of that page.
func NewPager[E any](firstPage, skip int, fetch PageFunc[E], build BuildFunc[E]) *Pager[E] {
	if firstPage < 1 {
		firstPage = 1
	}
	if skip < 0 {
		skip = 0
	}
	return &Pager[E]{
		fetch:    fetch,
		build:    build,
		nextPage: firstPage,
		skip:     skip,
		hasNext:  true,
	}
}

// PageStart converts an entry offset into the first page to fetch and the
// number of entries to drop from it.
func PageStart(offset, perPage int) (page, skip int) {
	if offset <= 0 || perPage <= 0 {
		return 1, 0
	}
	return offset/perPage + 1, offset % perPage
}

// Next implements Sequence.
func (p *Pager[E]) Next(ctx context.Context) (media.Record, error) {
	if p.err != nil {
		return media.Record{}, p.err
	}

	for p.pos >= len(p.buf) {
		if !p.hasNext {
			p.err = io.EOF
			return media.Record{}, p.err
		}
		if err := ctx.Err(); err != nil {
			p.err = err
			return media.Record{}, err
		}
		if err := p.load(ctx); err != nil {
			p.err = err
			return media.Record{}, err
		}
	}

	entry := p.buf[p.pos]
	p.pos++

	record, err := p.build(entry)
	if err != nil {
		p.err = err
		return media.Record{}, err
	}
	return record, nil
}

func (p *Pager[E]) load(ctx context.Context) error {
	page, err := p.fetch(ctx, p.nextPage)
	if err != nil {
		return err
	}
	p.nextPage++
	p.buf = page.Entries
	p.pos = 0
	p.hasNext = page.HasNext && len(page.Entries) > 0

	if p.skip > 0 {
		n := min(p.skip, len(p.buf))
		p.pos = n
		p.skip -= n
	}
	return nil
}

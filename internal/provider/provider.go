// Package provider defines how remote catalogs are pulled into normalized
// records: a Connector per catalog, a Registry of connectors, and the
// page-cursor Sequence every connector returns.
package provider

import (
	"context"
	"io"
	"time"

	"github.com/lepinkainen/naoka/internal/media"
)

// Connector pulls catalog entries from one remote catalog.
type Connector interface {
	// Code is the provider code used on the command line and in identity
	// keys. It is matched case-insensitively.
	Code() string

	// MediaTypes lists the media types this catalog serves, in import order.
	MediaTypes() []media.Type

	// Init returns the full catalog for mediaType, skipping the first offset
	// entries.
	Init(mediaType media.Type, offset int) Sequence

	// Update returns entries changed since the given time. Connectors whose
	// catalog offers no such listing return an empty sequence.
	Update(mediaType media.Type, since time.Time) Sequence
}

// Sequence is a lazy, finite stream of records. Next returns io.EOF once the
// stream is exhausted. Any other error is final: later calls return it again.
type Sequence interface {
	Next(ctx context.Context) (media.Record, error)
}

// Supports reports whether c declares mediaType.
func Supports(c Connector, mediaType media.Type) bool {
	for _, t := range c.MediaTypes() {
		if t == mediaType {
			return true
		}
	}
	return false
}

type emptySequence struct{}

func (emptySequence) Next(context.Context) (media.Record, error) {
	return media.Record{}, io.EOF
}

// Empty returns a sequence with no records.
func Empty() Sequence {
	return emptySequence{}
}

// Collect drains seq. It is meant for tests and small catalogs.
func Collect(ctx context.Context, seq Sequence) ([]media.Record, error) {
	var records []media.Record
	for {
		record, err := seq.Next(ctx)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}

// Package source defines what a results source must provide to the pipeline.
package source

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/maccabipedia/basketbot/internal/game"
)

var (
	// ErrSourceUnavailable marks a feed that could not be fetched or decoded.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrPageStructure marks a game page missing an expected section.
	ErrPageStructure = errors.New("unexpected page structure")
)

// Adapter discovers and scrapes games from one source.
type Adapter interface {
	Name() string
	Discover(ctx context.Context, trackedTeam string, maxCount int) ([]game.Candidate, error)
	Scrape(ctx context.Context, candidate game.Candidate) (game.Record, error)
}

// DocumentFetcher loads a page and returns it as a queryable document.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url, waitSelector string) (*goquery.Document, error)
}

// JSONFetcher loads and decodes a JSON feed.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string, v interface{}) error
}

// Unavailable wraps err as ErrSourceUnavailable.
func Unavailable(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrSourceUnavailable)
}

// MissingSection reports an ErrPageStructure.
func MissingSection(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrPageStructure)
}

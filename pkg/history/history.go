// Package history assembles a company's complete filing history from the
// recent page of a submissions response and its continuation files.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// PageFetcher retrieves and decodes one continuation file by name.
type PageFetcher func(ctx context.Context, filename string) ([]edgar.Filing, error)

// AggregationError reports the continuation file that could not be loaded.
type AggregationError struct {
	File string
	Err  error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("failed to load continuation file %s: %v", e.File, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

type options struct {
	concurrency int
}

// Option tunes MergeAllFilings.
type Option func(*options)

// WithConcurrency caps how many continuation files are fetched at once.
// Values below 1 mean one at a time.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// MergeAllFilings returns primary.Recent followed by every continuation
// file's filings, in the order the files are listed. A failure on any file
// fails the whole merge.
func MergeAllFilings(ctx context.Context, primary *edgar.SubmissionData, fetch PageFetcher, opts ...Option) ([]edgar.Filing, error) {
	o := options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	files := primary.ContinuationNames()
	if len(files) == 0 {
		return append([]edgar.Filing(nil), primary.Recent...), nil
	}

	pages := make([][]edgar.Filing, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	// next is the first file not handed to the group.
	next := len(files)
	for i, name := range files {
		if gctx.Err() != nil {
			next = i
			break
		}
		g.Go(func() error {
			slog.DebugContext(gctx, "fetching continuation file", "cik", primary.CIK, "file", name)
			page, err := fetch(gctx, name)
			if err != nil {
				return &AggregationError{File: name, Err: err}
			}
			pages[i] = page
			return nil
		})
	}
	// A failed fetch cancels gctx; Wait reports that failure, not the
	// cancellation it caused.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancelled parent can race the in-flight fetches to completion.
	if err := ctx.Err(); err != nil {
		name := files[len(files)-1]
		if next < len(files) {
			name = files[next]
		}
		return nil, &AggregationError{File: name, Err: err}
	}

	total := len(primary.Recent)
	for _, page := range pages {
		total += len(page)
	}
	all := make([]edgar.Filing, 0, total)
	all = append(all, primary.Recent...)
	for _, page := range pages {
		all = append(all, page...)
	}
	return all, nil
}

// Load fetches a company's submissions and merges every continuation file
// through the same client.
func Load(ctx context.Context, client *edgar.EdgarClient, cik string, opts ...Option) (*edgar.SubmissionData, []edgar.Filing, error) {
	submission, err := client.LoadSubmissions(ctx, cik)
	if err != nil {
		return nil, nil, err
	}
	fetch := func(ctx context.Context, filename string) ([]edgar.Filing, error) {
		return client.LoadFilingsPage(ctx, submission.CIK, filename)
	}
	filings, err := MergeAllFilings(ctx, submission, fetch, opts...)
	if err != nil {
		return nil, nil, err
	}
	return submission, filings, nil
}

// FilterByForm keeps filings whose form matches exactly.
func FilterByForm(filings []edgar.Filing, form string) []edgar.Filing {
	var out []edgar.Filing
	for _, f := range filings {
		if f.Form == form {
			out = append(out, f)
		}
	}
	return out
}

// Latest returns the first filing of the given form, which is the most
// recent one since pages are ordered newest first.
func Latest(filings []edgar.Filing, form string) (edgar.Filing, bool) {
	for _, f := range filings {
		if f.Form == form {
			return f, true
		}
	}
	return edgar.Filing{}, false
}

// Package bulk reads single companies out of the nightly SEC bulk archives
// without downloading them. Only the zip central directory and the
// requested member are fetched, using HTTP range requests.
package bulk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ozkatz/cloudzip/pkg/remote"
	"github.com/ozkatz/cloudzip/pkg/zipfile"
	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
)

const (
	SubmissionsURL  = "https://www.sec.gov/Archives/edgar/daily-index/bulkdata/submissions.zip"
	CompanyFactsURL = "https://www.sec.gov/Archives/edgar/daily-index/xbrl/companyfacts.zip"
)

// Archive is an open remote zip file.
type Archive struct {
	url string

	mu   sync.Mutex
	read func(name string) ([]byte, error)
}

// Open reads the central directory of the zip at url. ctx bounds every
// range request made through the returned Archive.
func Open(ctx context.Context, url string) (*Archive, error) {
	fetcher, err := remote.NewHttpFetcher(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP fetcher: %w", err)
	}
	adapter := zipfile.NewStorageAdapter(ctx, fetcher)
	parser := zipfile.NewCentralDirectoryParser(adapter)
	return newArchive(url, func(name string) ([]byte, error) {
		reader, err := parser.Read(name)
		if err != nil {
			return nil, err
		}
		return io.ReadAll(reader)
	}), nil
}

func newArchive(url string, read func(name string) ([]byte, error)) *Archive {
	return &Archive{url: url, read: read}
}

func (a *Archive) URL() string {
	return a.url
}

// ReadFile returns the contents of one member of the archive.
func (a *Archive) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	slog.DebugContext(ctx, "reading bulk archive member", "archive", a.url, "name", name)
	data, err := a.read(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s from ZIP: %w", name, err)
	}
	return data, nil
}

// MemberName is the name of a company's file in both submissions.zip and
// companyfacts.zip.
func MemberName(cik string) (string, error) {
	formatted, err := edgar.FormatCIK(cik)
	if err != nil {
		return "", err
	}
	return "CIK" + formatted + ".json", nil
}

// CompanyFacts decodes a company's entry in companyfacts.zip.
func (a *Archive) CompanyFacts(ctx context.Context, cik string) (*edgar.CompanyFacts, error) {
	name, err := MemberName(cik)
	if err != nil {
		return nil, err
	}
	data, err := a.ReadFile(ctx, name)
	if err != nil {
		return nil, err
	}
	return edgar.DecodeCompanyFacts(data)
}

// Submissions decodes a company's entry in submissions.zip.
func (a *Archive) Submissions(ctx context.Context, cik string) (*edgar.SubmissionData, error) {
	name, err := MemberName(cik)
	if err != nil {
		return nil, err
	}
	data, err := a.ReadFile(ctx, name)
	if err != nil {
		return nil, err
	}
	return edgar.DecodeSubmissions(data)
}

// FilingsPage decodes a continuation file, which submissions.zip carries
// alongside the primary entries.
func (a *Archive) FilingsPage(ctx context.Context, cik edgar.CIK, name string) ([]edgar.Filing, error) {
	data, err := a.ReadFile(ctx, name)
	if err != nil {
		return nil, err
	}
	return edgar.DecodeFilingsPage(data, cik)
}

// PageFetcher adapts FilingsPage to the fetch function history.MergeAllFilings
// takes.
func (a *Archive) PageFetcher(cik edgar.CIK) func(ctx context.Context, filename string) ([]edgar.Filing, error) {
	return func(ctx context.Context, filename string) ([]edgar.Filing, error) {
		return a.FilingsPage(ctx, cik, filename)
	}
}

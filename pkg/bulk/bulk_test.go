package bulk

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
	"github.com/saranrapjs/edgar-xbrl/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotInArchive = errors.New("not in archive")

func memArchive(members map[string]string) *Archive {
	return newArchive("mem://submissions.zip", func(name string) ([]byte, error) {
		data, ok := members[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, errNotInArchive)
		}
		return []byte(data), nil
	})
}

func TestMemberName(t *testing.T) {
	name, err := MemberName("320193")
	require.NoError(t, err)
	assert.Equal(t, "CIK0000320193.json", name)

	_, err = MemberName("")
	assert.ErrorIs(t, err, edgar.ErrInvalidCIK)
}

func TestSubmissionsMergeFromArchive(t *testing.T) {
	a := memArchive(map[string]string{
		"CIK0000000042.json": `{"cik": "42", "name": "Example Corp", "tickers": ["EX"], "exchanges": ["NYSE"],
			"filings": {"recent": {"form": ["10-K"], "filingDate": ["2024-03-01"]},
			"files": [{"name": "CIK0000000042-submissions-001.json", "filingCount": 2}]}}`,
		"CIK0000000042-submissions-001.json": `{"form": ["10-K", "10-Q"], "filingDate": ["2010-03-01", "2009-11-01"]}`,
	})
	ctx := context.Background()

	sub, err := a.Submissions(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Example Corp", sub.Name)

	all, err := history.MergeAllFilings(ctx, sub, a.PageFetcher(sub.CIK))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2009-11-01", all[2].FilingDate)
	assert.Equal(t, edgar.CIK("0000000042"), all[2].CIK)
}

func TestCompanyFactsFromArchive(t *testing.T) {
	a := memArchive(map[string]string{
		"CIK0000320193.json": `{"cik": 320193, "entityName": "Apple Inc.", "facts": {"dei": {}}}`,
	})

	f, err := a.CompanyFacts(context.Background(), "0000320193")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", f.EntityName)
	assert.Contains(t, f.Facts, "dei")
}

func TestMissingMember(t *testing.T) {
	a := memArchive(map[string]string{})
	_, err := a.CompanyFacts(context.Background(), "1")
	assert.ErrorIs(t, err, errNotInArchive)
	assert.Contains(t, err.Error(), "CIK0000000001.json")
}

func TestMalformedMember(t *testing.T) {
	a := memArchive(map[string]string{"CIK0000000001.json": `[]`})
	_, err := a.Submissions(context.Background(), "1")
	var de *edgar.DeserializationError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, edgar.EndpointSubmissions, de.Endpoint)
}

func TestReadFileCancelled(t *testing.T) {
	a := memArchive(map[string]string{"x": "y"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.ReadFile(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

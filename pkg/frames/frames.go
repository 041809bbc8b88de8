// Package frames ranks and summarizes the values in a frame, one concept
// reported by every filer for the same period.
package frames

import (
	"errors"
	"math"
	"slices"
	"sort"

	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
)

// ErrEmptyFrame is returned when statistics are requested over no entries.
var ErrEmptyFrame = errors.New("frame has no entries")

// Stats summarizes the values of a frame.
type Stats struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	// StdDev is the sample standard deviation, 0 for a single entry.
	StdDev float64 `json:"stddev"`
}

// TopCompanies returns the n entries with the highest values, or the
// lowest when ascending is set. Entries with equal values keep their input
// order. The input is not modified.
func TopCompanies(entries []edgar.FrameEntry, n int, ascending bool) []edgar.FrameEntry {
	if n <= 0 {
		return []edgar.FrameEntry{}
	}
	sorted := slices.Clone(entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].Val < sorted[j].Val
		}
		return sorted[i].Val > sorted[j].Val
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Statistics computes summary statistics over the entries' values.
func Statistics(entries []edgar.FrameEntry) (Stats, error) {
	if len(entries) == 0 {
		return Stats{}, ErrEmptyFrame
	}

	values := make([]float64, len(entries))
	s := Stats{
		Count: len(entries),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	for i, e := range entries {
		values[i] = e.Val
		s.Sum += e.Val
		s.Min = math.Min(s.Min, e.Val)
		s.Max = math.Max(s.Max, e.Val)
	}
	s.Mean = s.Sum / float64(s.Count)

	slices.Sort(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		s.Median = values[mid]
	} else {
		s.Median = (values[mid-1] + values[mid]) / 2
	}

	if s.Count > 1 {
		var squares float64
		for _, v := range values {
			d := v - s.Mean
			squares += d * d
		}
		s.StdDev = math.Sqrt(squares / float64(s.Count-1))
	}
	return s, nil
}

// ValuesForCompany returns the entries filed by one company, in input
// order. cik may be given in any form FormatCIK accepts.
func ValuesForCompany(entries []edgar.FrameEntry, cik string) ([]edgar.FrameEntry, error) {
	formatted, err := edgar.FormatCIK(cik)
	if err != nil {
		return nil, err
	}
	out := []edgar.FrameEntry{}
	for _, e := range entries {
		if string(e.CIK) == formatted {
			out = append(out, e)
		}
	}
	return out, nil
}

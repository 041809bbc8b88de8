package edgar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodString(t *testing.T) {
	assert.Equal(t, "CY2024Q1I", InstantPeriod(2024, 1).String())
	assert.Equal(t, "CY2024Q1", DurationPeriod(2024, 1).String())
	assert.Equal(t, "CY2019", AnnualPeriod(2019).String())
}

func TestParsePeriodRoundTrip(t *testing.T) {
	for _, p := range []Period{
		InstantPeriod(2024, 1),
		InstantPeriod(1999, 4),
		DurationPeriod(2023, 3),
		AnnualPeriod(2020),
	} {
		parsed, err := ParsePeriod(p.String())
		require.NoError(t, err, p.String())
		assert.Equal(t, p, parsed)
	}
}

func TestParsePeriodInvalid(t *testing.T) {
	for _, s := range []string{"", "2024Q1", "CY24", "CY2024Q5", "CY2024Q0I", "CY2024QI", "CYabcdQ1", "CY2024Q1X"} {
		_, err := ParsePeriod(s)
		assert.ErrorIs(t, err, ErrInvalidPeriod, s)
	}
}

func TestUnit(t *testing.T) {
	assert.Equal(t, "USD", SimpleUnit("USD").String())
	assert.Equal(t, "USD-per-shares", PerShareUnit("USD", "shares").String())
	assert.Equal(t, PerShareUnit("USD", "shares"), ParseUnit("USD-per-shares"))
	assert.Equal(t, SimpleUnit("pure"), ParseUnit("pure"))
}

func TestParseTaxonomy(t *testing.T) {
	tax, ok := ParseTaxonomy("US-GAAP")
	assert.True(t, ok)
	assert.Equal(t, TaxonomyUSGAAP, tax)

	_, ok = ParseTaxonomy("invest")
	assert.False(t, ok)
}

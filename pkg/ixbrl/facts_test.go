package ixbrl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `<div style="display:none"><ix:header><ix:resources>
	<xbrli:context id="fy24">
		<xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier></xbrli:entity>
		<xbrli:period><xbrli:startDate>2023-10-01</xbrli:startDate><xbrli:endDate>2024-09-28</xbrli:endDate></xbrli:period>
	</xbrli:context>
	<xbrli:context id="fy24-products">
		<xbrli:entity>
			<xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier>
			<xbrli:segment><xbrldi:explicitMember dimension="srt:ProductOrServiceAxis">us-gaap:ProductMember</xbrldi:explicitMember></xbrli:segment>
		</xbrli:entity>
		<xbrli:period><xbrli:startDate>2023-10-01</xbrli:startDate><xbrli:endDate>2024-09-28</xbrli:endDate></xbrli:period>
	</xbrli:context>
	<xbrli:context id="sep24">
		<xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier></xbrli:entity>
		<xbrli:period><xbrli:instant>2024-09-28</xbrli:instant></xbrli:period>
	</xbrli:context>
	<xbrli:unit id="usd"><xbrli:measure>iso4217:USD</xbrli:measure></xbrli:unit>
	<xbrli:unit id="usdPerShare"><xbrli:divide>
		<xbrli:unitNumerator><xbrli:measure>iso4217:USD</xbrli:measure></xbrli:unitNumerator>
		<xbrli:unitDenominator><xbrli:measure>xbrli:shares</xbrli:measure></xbrli:unitDenominator>
	</xbrli:divide></xbrli:unit>
</ix:resources></ix:header></div>`

func document(body string) string {
	return "<html><body>" + header + body + "</body></html>"
}

func TestFactsResolveContextAndUnit(t *testing.T) {
	doc := document(`
		<ix:nonFraction unitRef="usd" contextRef="fy24" decimals="-6" name="us-gaap:NetIncomeLoss" format="ixt:num-dot-decimal" scale="6" id="f-1">93,736</ix:nonFraction>
		<ix:nonFraction unitRef="usdPerShare" contextRef="fy24" decimals="2" name="us-gaap:EarningsPerShareBasic" format="ixt:num-dot-decimal" id="f-2">6.11</ix:nonFraction>
		<ix:nonFraction unitRef="usd" contextRef="sep24" decimals="-6" name="us-gaap:CashAndCashEquivalentsAtCarryingValue" scale="6" id="f-3">29,943</ix:nonFraction>`)

	facts, err := ParseFacts(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, facts, 3)

	income := facts[0]
	assert.Equal(t, "us-gaap", income.Taxonomy())
	assert.Equal(t, "NetIncomeLoss", income.Tag())
	assert.Equal(t, 93736000000.0, income.Value)
	assert.Equal(t, "USD", income.Unit)
	assert.Equal(t, "2023-10-01", income.Period.StartDate)
	assert.Equal(t, "2024-09-28", income.Period.End())
	assert.Equal(t, "0000320193", income.Entity)
	assert.False(t, income.Dimensional())

	assert.Equal(t, "USD/shares", facts[1].Unit)
	assert.Equal(t, 6.11, facts[1].Value)

	assert.Equal(t, "2024-09-28", facts[2].Period.Instant)
	assert.Equal(t, "", facts[2].Period.StartDate)
}

func TestFactValueFormats(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want float64
	}{
		{
			name: "negative sign",
			tag:  `<ix:nonFraction unitRef="usd" contextRef="fy24" name="us-gaap:OtherNonoperatingIncomeExpense" scale="6" sign="-" format="ixt:num-dot-decimal">269</ix:nonFraction>`,
			want: -269000000,
		},
		{
			name: "nested formatting",
			tag:  `<ix:nonFraction unitRef="usd" contextRef="fy24" name="us-gaap:Revenues" scale="3"><span>1,234</span></ix:nonFraction>`,
			want: 1234000,
		},
		{
			name: "zero dash",
			tag:  `<ix:nonFraction unitRef="usd" contextRef="fy24" name="us-gaap:Goodwill" format="ixt:fixed-zero">—</ix:nonFraction>`,
			want: 0,
		},
		{
			name: "comma decimal",
			tag:  `<ix:nonFraction unitRef="usd" contextRef="fy24" name="ifrs-full:Revenue" format="ixt:num-comma-decimal">1.234,5</ix:nonFraction>`,
			want: 1234.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts, err := ParseFacts(strings.NewReader(document(tt.tag)))
			require.NoError(t, err)
			require.Len(t, facts, 1)
			assert.InDelta(t, tt.want, facts[0].Value, 1e-9)
		})
	}
}

func TestFactsSkipUnreadable(t *testing.T) {
	doc := document(`
		<ix:nonFraction unitRef="usd" contextRef="missing" name="us-gaap:Revenues">10</ix:nonFraction>
		<ix:nonFraction unitRef="usd" contextRef="fy24" name="us-gaap:Revenues">n/a</ix:nonFraction>
		<ix:nonFraction unitRef="usd" contextRef="fy24-products" name="us-gaap:Revenues" scale="6">294,866</ix:nonFraction>`)

	facts, err := ParseFacts(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.True(t, facts[0].Dimensional())
	assert.Equal(t, "srt:ProductOrServiceAxis", facts[0].Dimensions[0].Dimension)
}

func TestFactTagWithoutPrefix(t *testing.T) {
	f := Fact{Concept: "Revenues"}
	assert.Equal(t, "", f.Taxonomy())
	assert.Equal(t, "Revenues", f.Tag())
}

package ixbrl

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

type nodeRegistry map[string]func() any

var registry = nodeRegistry{
	"ix:nonfraction": func() any { return &NonFraction{} },
	"ix:nonnumeric":  func() any { return &NonNumeric{} },
	"xbrli:context":  func() any { return &Context{} },
	"xbrli:unit":     func() any { return &Unit{} },
}

// ParsedNode represents a parsed namespaced node with its unmarshalled struct
type ParsedNode struct {
	Node   *html.Node
	Struct any
	Type   string
}

// Parse parses an XHTML document and returns parsed iXBRL nodes,
// alongside the parsed XHTML document. Facts have their Context resolved.
func Parse(r io.Reader) ([]*ParsedNode, *html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, doc, err
	}

	var parsedNodes []*ParsedNode
	collectAndParseNodes(doc, &parsedNodes)

	contexts := make(map[string]*Context)
	for _, c := range FilterByType(parsedNodes, func(*Context) bool { return true }) {
		contexts[c.ID] = c
	}
	for _, p := range parsedNodes {
		switch n := p.Struct.(type) {
		case *NonFraction:
			n.Context = contexts[n.ContextRef]
		case *NonNumeric:
			n.Context = contexts[n.ContextRef]
		}
	}
	return parsedNodes, doc, nil
}

// collectAndParseNodes recursively traverses the HTML tree and
// collects/parses nodes with colons, as a fuzzy test for
// whether or not they are likely to correspond to iXBRL tags.
func collectAndParseNodes(n *html.Node, nodes *[]*ParsedNode) {
	if n.Type == html.ElementNode && strings.Contains(n.Data, ":") {
		parsedNode := &ParsedNode{
			Node: n,
			Type: n.Data,
		}
		if constructor, exists := registry[n.Data]; exists {
			if s, err := unmarshalNode(n, constructor()); err != nil {
				slog.Debug("skipping malformed ixbrl node", "type", n.Data, "error", err)
			} else {
				parsedNode.Struct = s
			}
		}
		*nodes = append(*nodes, parsedNode)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectAndParseNodes(c, nodes)
	}
}

func unmarshalNode(n *html.Node, v any) (any, error) {
	var s strings.Builder
	if err := html.Render(&s, n); err != nil {
		return nil, fmt.Errorf("error re-serializing xml: %w", err)
	}
	if err := xml.Unmarshal([]byte(s.String()), v); err != nil {
		return nil, fmt.Errorf("error conforming xml: %w", err)
	}
	// Numeric content may be split across formatting children.
	if nf, ok := v.(*NonFraction); ok {
		nf.Content = strings.TrimSpace(text(n))
	}
	return v, nil
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
	}
	return b.String()
}

// NonFraction represents ix:nonfraction elements. These are numeric facts that are not fractions,
// typically used for financial data that can be scaled (thousands, millions, etc.).
type NonFraction struct {
	XMLName    xml.Name `xml:"nonfraction"`
	UnitRef    string   `xml:"unitref,attr"`
	Decimals   string   `xml:"decimals,attr"`
	Name       string   `xml:"name,attr"`
	Format     string   `xml:"format,attr"`
	Scale      string   `xml:"scale,attr"`
	Sign       string   `xml:"sign,attr"`
	ID         string   `xml:"id,attr"`
	Content    string   `xml:",chardata"`
	ContextRef string   `xml:"contextref,attr"`
	Context    *Context
}

func (nf *NonFraction) scale() float64 {
	scale, err := strconv.Atoi(nf.Scale)
	if err != nil {
		return 1
	}
	return math.Pow10(scale)
}

var (
	dotDecimal   = strings.NewReplacer(",", "", " ", "", "\u00a0", "")
	commaDecimal = strings.NewReplacer(".", "", " ", "", "\u00a0", "", ",", ".")
)

func (nf *NonFraction) number() (float64, error) {
	format := strings.ToLower(nf.Format)
	switch {
	case strings.Contains(format, "zerodash"), strings.Contains(format, "fixed-zero"):
		return 0, nil
	case strings.Contains(format, "comma-decimal"), strings.Contains(format, "numcommadecimal"):
		return strconv.ParseFloat(commaDecimal.Replace(nf.Content), 64)
	}
	return strconv.ParseFloat(dotDecimal.Replace(nf.Content), 64)
}

// Value applies the scale factor (a power of 10) and sign to the
// displayed number.
func (nf *NonFraction) Value() (float64, error) {
	n, err := nf.number()
	if err != nil {
		return 0, fmt.Errorf("fact %s: unparseable value %q: %w", nf.Name, nf.Content, err)
	}
	v := n * nf.scale()
	if nf.Sign == "-" {
		v = -v
	}
	return v, nil
}

// NonNumeric represents ix:nonnumeric elements. These are textual or non-numeric facts,
// such as company names, descriptions, or other qualitative information.
type NonNumeric struct {
	XMLName    xml.Name `xml:"nonnumeric"`
	Name       string   `xml:"name,attr"`
	Format     string   `xml:"format,attr"`
	ID         string   `xml:"id,attr"`
	Content    string   `xml:",chardata"`
	ContextRef string   `xml:"contextref,attr"`
	Context    *Context
}

// Context represents xbrli:context elements. These provide dimensional context for facts,
// including entity identification, time period, and segment information.
type Context struct {
	XMLName xml.Name `xml:"context"`
	ID      string   `xml:"id,attr"`
	Entity  Entity   `xml:"entity"`
	Period  Period   `xml:"period"`
}

// Dimensional reports whether the context narrows facts to a segment
// member rather than the entity as a whole.
func (c *Context) Dimensional() bool {
	s := c.Entity.Segment
	return len(s.ExplicitMembers) > 0 || len(s.TypedMembers) > 0
}

// Period represents xbrli:period elements within contexts, either an
// instant or a duration.
type Period struct {
	XMLName   xml.Name `xml:"period"`
	StartDate string   `xml:"startdate"`
	Instant   string   `xml:"instant"`
	EndDate   string   `xml:"enddate"`
}

// End is the instant, or the last day of a duration.
func (p Period) End() string {
	if p.Instant != "" {
		return p.Instant
	}
	return p.EndDate
}

func (p Period) FormattedValue() string {
	if p.Instant != "" {
		return p.Instant
	}
	return fmt.Sprintf("%s thru %s", p.StartDate, p.EndDate)
}

type Entity struct {
	Identifier Identifier `xml:"identifier"`
	Segment    Segment    `xml:"segment"`
}

// Identifier is the entity's identifier under Scheme, a CIK for SEC filers.
type Identifier struct {
	XMLName xml.Name `xml:"identifier"`
	Scheme  string   `xml:"scheme,attr"`
	Content string   `xml:",chardata"`
}

type Segment struct {
	XMLName         xml.Name         `xml:"segment"`
	ExplicitMembers []ExplicitMember `xml:"explicitmember"`
	TypedMembers    []TypedMember    `xml:"typedmember"`
}

type ExplicitMember struct {
	XMLName   xml.Name `xml:"explicitmember"`
	Dimension string   `xml:"dimension,attr"`
	Content   string   `xml:",chardata"`
}

type TypedMember struct {
	XMLName   xml.Name `xml:"typedmember"`
	Dimension string   `xml:"dimension,attr"`
	Content   string   `xml:",chardata"`
}

// Unit represents xbrli:unit elements: a single measure such as
// iso4217:USD, or a ratio of two measures.
type Unit struct {
	XMLName xml.Name `xml:"unit"`
	ID      string   `xml:"id,attr"`
	Measure Measure  `xml:"measure"`
	Divide  *Divide  `xml:"divide"`
}

type Divide struct {
	Numerator   Measure `xml:"unitnumerator>measure"`
	Denominator Measure `xml:"unitdenominator>measure"`
}

type Measure struct {
	XMLName xml.Name `xml:"measure"`
	Content string   `xml:",chardata"`
}

// Label strips the measure's namespace prefix, so iso4217:USD is USD.
func (m Measure) Label() string {
	content := strings.TrimSpace(m.Content)
	if _, local, ok := strings.Cut(content, ":"); ok {
		return local
	}
	return content
}

// Label names the unit the way the company facts API keys units: USD,
// shares, USD/shares.
func (u *Unit) Label() string {
	if u.Divide != nil {
		return u.Divide.Numerator.Label() + "/" + u.Divide.Denominator.Label()
	}
	return u.Measure.Label()
}

// FilterByType returns all parsed nodes of a specific iXBRL type.
func FilterByType[K any](nodes []*ParsedNode, predicate func(t *K) bool) []*K {
	var filtered []*K
	for _, node := range nodes {
		if t, ok := node.Struct.(*K); ok {
			if predicate(t) {
				filtered = append(filtered, t)
			}
		}
	}
	return filtered
}

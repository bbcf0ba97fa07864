// Package tei derives bibliographic fields from a GROBID TEI header document.
//
// Every field is extracted by an independent function over the parsed document so that a
// missing node for one field never blocks the others.
package tei

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/JakeFAU/citesync/internal/citation"
)

// Namespace is the TEI XML namespace.
const Namespace = "http://www.tei-c.org/ns/1.0"

var namespaces = map[string]string{"tei": Namespace}

var (
	titleExpr    = mustCompile(`//tei:title[@type="main"]`)
	persNameExpr = mustCompile(`//tei:author/tei:persName`)
	forenameExpr = mustCompile(`tei:forename`)
	surnameExpr  = mustCompile(`tei:surname`)
	dateExpr     = mustCompile(`//tei:imprint/tei:date`)
	keywordsExpr = mustCompile(`//tei:profileDesc/tei:textClass/tei:keywords`)
	termExpr     = mustCompile(`tei:term`)

	yearPattern = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)
)

func mustCompile(expr string) *xpath.Expr {
	e, err := xpath.CompileWithNS(expr, namespaces)
	if err != nil {
		panic(fmt.Sprintf("compile %q: %v", expr, err))
	}
	return e
}

// Document is a parsed TEI document.
type Document struct {
	root *xmlquery.Node
}

// Parse parses raw TEI XML.
func Parse(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %v", citation.ErrMarkupParse, r)
		}
	}()
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", citation.ErrMarkupParse)
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", citation.ErrMarkupParse, err)
	}
	if !hasElement(root) {
		return nil, fmt.Errorf("%w: no root element", citation.ErrMarkupParse)
	}
	return &Document{root: root}, nil
}

// Metadata combines every field extractor into a normalized record.
func (d *Document) Metadata() citation.Metadata {
	return citation.Metadata{
		Title:    d.Title(),
		Authors:  d.Authors(),
		Year:     d.Year(),
		Keywords: d.Keywords(),
	}.Normalize()
}

// Title returns the text of the first main title, or NotAvailable.
func (d *Document) Title() string {
	n := xmlquery.QuerySelector(d.root, titleExpr)
	if n == nil {
		return citation.NotAvailable
	}
	return citation.OrNotAvailable(collapse(n.InnerText()))
}

// Authors returns "Forename Surname" pairs joined by ", ". Entries missing either name are skipped.
func (d *Document) Authors() string {
	var names []string
	for _, person := range xmlquery.QuerySelectorAll(d.root, persNameExpr) {
		forename := xmlquery.QuerySelector(person, forenameExpr)
		surname := xmlquery.QuerySelector(person, surnameExpr)
		if forename == nil || surname == nil {
			continue
		}
		first, last := collapse(forename.InnerText()), collapse(surname.InnerText())
		if first == "" || last == "" {
			continue
		}
		names = append(names, first+" "+last)
	}
	if len(names) == 0 {
		return citation.NotAvailable
	}
	return strings.Join(names, ", ")
}

// Year returns the publication year from the imprint date.
// The normalized when attribute takes priority over the free text.
func (d *Document) Year() string {
	n := xmlquery.QuerySelector(d.root, dateExpr)
	if n == nil {
		return citation.NotAvailable
	}
	if when, ok := attr(n, "when"); ok {
		return yearFromISO(when)
	}
	return yearFromText(n.InnerText())
}

// Keywords returns the non-empty keyword terms joined by ", ".
func (d *Document) Keywords() string {
	container := xmlquery.QuerySelector(d.root, keywordsExpr)
	if container == nil {
		return citation.NotAvailable
	}
	var terms []string
	for _, term := range xmlquery.QuerySelectorAll(container, termExpr) {
		if text := collapse(term.InnerText()); text != "" {
			terms = append(terms, text)
		}
	}
	if len(terms) == 0 {
		return citation.NotAvailable
	}
	return strings.Join(terms, ", ")
}

func yearFromISO(when string) string {
	year, _, _ := strings.Cut(strings.TrimSpace(when), "-")
	if len(year) != 4 || !isDigits(year) {
		return citation.NotAvailable
	}
	return year
}

func yearFromText(text string) string {
	m := yearPattern.FindStringSubmatch(text)
	if m == nil {
		return citation.NotAvailable
	}
	return m[1]
}

func attr(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func hasElement(n *xmlquery.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// collapse trims and folds internal whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package markup holds the lenient HTML/XML handling shared by the
// fingerprinter and the rule extractors.
package markup

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"lawnorm/internal/domain"
)

// ExplicitSectionSelector matches elements that mark section boundaries.
const ExplicitSectionSelector = "section, .section, [data-section], .chunk"

// HeadingSelector matches heading elements.
const HeadingSelector = "h1, h2, h3, h4, h5, h6"

// DecorationSelectors lists navigation and boilerplate that never carries
// document content.
var DecorationSelectors = []string{
	"nav", "header", "footer", "script", "style", "noscript", "template", "iframe", "form", "button",
	"[role=navigation]", "[aria-hidden=true]",
	".nav", ".navbar", ".breadcrumb", ".breadcrumbs", ".footer", ".header",
	".toolbar", ".menu", ".skip-link", ".print-only", ".sr-only",
}

// Validate rejects input that cannot be treated as markup text at all.
func Validate(raw string) error {
	switch {
	case strings.TrimSpace(raw) == "":
		return fmt.Errorf("%w: empty markup", domain.ErrMalformedInput)
	case !utf8.ValidString(raw):
		return fmt.Errorf("%w: invalid UTF-8", domain.ErrMalformedInput)
	case strings.ContainsRune(raw, 0):
		return fmt.Errorf("%w: NUL byte in markup", domain.ErrMalformedInput)
	}
	return nil
}

// Parse validates raw and parses it leniently. Unbalanced or unknown tags
// are repaired by the HTML5 tree builder rather than rejected.
func Parse(raw string) (*goquery.Document, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// StripDecoration removes decoration elements from doc in place.
func StripDecoration(doc *goquery.Document) {
	doc.Find(strings.Join(DecorationSelectors, ", ")).Remove()
}

// Body returns the document body, which the HTML5 parser always creates.
func Body(doc *goquery.Document) *goquery.Selection {
	return doc.Find("body").First()
}

// ExplicitSections returns the outermost section-marking elements under sel.
func ExplicitSections(sel *goquery.Selection) *goquery.Selection {
	return sel.Find(ExplicitSectionSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered(ExplicitSectionSelector).Length() == 0
	})
}

// NormalizeClass returns the class attribute with tokens sorted and
// whitespace collapsed, so attribute order never matters.
func NormalizeClass(class string) string {
	fields := strings.Fields(class)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// HasClass reports whether the normalized class string contains any of names.
func HasClass(class string, names []string) bool {
	for _, tok := range strings.Fields(class) {
		for _, n := range names {
			if strings.EqualFold(tok, n) {
				return true
			}
		}
	}
	return false
}

// HeadingLevel returns 1-6 for h1-h6 and 0 for anything else.
func HeadingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// Package rules implements the deterministic structural extractors.
package rules

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lawnorm/internal/domain"
	"lawnorm/internal/markup"
)

// DefaultTitleClasses are paragraph classes whose text titles the group
// that follows.
var DefaultTitleClasses = []string{"bc", "chunk-title", "h0", "title", "heading"}

// Extractor splits markup into sections using one of the rule strategies.
type Extractor struct {
	titleClasses []string
}

// New creates an Extractor. A nil titleClasses uses DefaultTitleClasses.
func New(titleClasses []string) *Extractor {
	if titleClasses == nil {
		titleClasses = DefaultTitleClasses
	}
	return &Extractor{titleClasses: titleClasses}
}

type draft struct {
	num     *string
	title   *string
	lines   []string
	anchors []string
}

func (d *draft) add(b markup.Block) {
	d.lines = append(d.lines, b.Text)
	d.anchors = append(d.anchors, b.Anchors...)
}

// Extract parses raw with the given rule strategy. Sections come back in
// document order; zero sections is domain.ErrStructuralExtractionEmpty.
func (e *Extractor) Extract(strategy domain.Strategy, documentID, raw string) ([]domain.Section, error) {
	doc, err := markup.Parse(raw)
	if err != nil {
		return nil, err
	}
	markup.StripDecoration(doc)
	body := markup.Body(doc)

	var drafts []draft
	switch strategy {
	case domain.StrategyRuleExplicitSection:
		drafts = e.explicitSections(body)
	case domain.StrategyRuleHeading:
		drafts = headingSections(markup.Blocks(body))
	case domain.StrategyRuleParagraph:
		drafts = e.paragraphSections(markup.Blocks(body))
	default:
		return nil, fmt.Errorf("%w: %q is not a rule strategy", domain.ErrInvalidInput, strategy)
	}

	sections := make([]domain.Section, 0, len(drafts))
	for _, d := range drafts {
		text := strings.TrimSpace(strings.Join(d.lines, "\n"))
		if text == "" {
			continue
		}
		sections = append(sections, domain.Section{
			SectionID:    domain.SectionID(documentID, len(sections)+1),
			SectionNum:   d.num,
			SectionTitle: d.title,
			SectionText:  text,
			SectionRefs:  references(text, d.anchors, d.num),
		})
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("%s via %s: %w", documentID, strategy, domain.ErrStructuralExtractionEmpty)
	}
	return sections, nil
}

// explicitSections makes one section per outermost section-marking element.
func (e *Extractor) explicitSections(body *goquery.Selection) []draft {
	var drafts []draft
	markup.ExplicitSections(body).Each(func(_ int, s *goquery.Selection) {
		blocks := markup.Blocks(s)
		if len(blocks) == 0 {
			return
		}

		var d draft
		rest := blocks
		first := blocks[0]
		switch {
		case first.Kind == markup.BlockHeading, markup.HasClass(first.Class, e.titleClasses):
			d.num, d.title = splitNumTitle(first.Text)
			rest = blocks[1:]
		default:
			lines := strings.Split(first.Text, "\n")
			d.num, d.title = splitNumTitle(lines[0])
			if len(lines) > 1 {
				d.lines = append(d.lines, strings.Join(lines[1:], "\n"))
			}
			d.anchors = append(d.anchors, first.Anchors...)
			rest = blocks[1:]
		}
		for _, b := range rest {
			if b.Kind != markup.BlockSeparator {
				d.add(b)
			}
		}
		if len(d.lines) == 0 {
			// single-line section: the leading text is the content
			d.lines = append(d.lines, first.Text)
		}
		drafts = append(drafts, d)
	})
	return drafts
}

// headingSections splits at heading boundaries. Consecutive headings of
// increasing or equal level with no text between them open one section;
// text accumulates into the most recent section.
func headingSections(blocks []markup.Block) []draft {
	var drafts []draft
	var run []markup.Block

	closeRun := func() {
		if len(run) == 0 {
			return
		}
		titles := make([]string, len(run))
		for i, h := range run {
			titles[i] = h.Text
		}
		drafts = append(drafts, titledDraft(titles))
		run = nil
	}

	for _, b := range blocks {
		switch b.Kind {
		case markup.BlockHeading:
			if len(run) > 0 && b.Level < run[len(run)-1].Level {
				closeRun()
			}
			run = append(run, b)
		case markup.BlockText:
			closeRun()
			if len(drafts) == 0 {
				drafts = append(drafts, draft{})
			}
			drafts[len(drafts)-1].add(b)
		}
	}
	closeRun()
	return drafts
}

// paragraphSections groups consecutive paragraphs sharing a class. A class
// change, a separator or a title ends the group. Headings and title-class
// paragraphs title the group that follows them; titles left at the end of
// the document become a section of their own.
func (e *Extractor) paragraphSections(blocks []markup.Block) []draft {
	var drafts []draft
	var titles []string
	open := false
	class := ""

	for _, b := range blocks {
		switch {
		case b.Kind == markup.BlockSeparator:
			open = false
		case b.Kind == markup.BlockHeading, markup.HasClass(b.Class, e.titleClasses):
			open = false
			titles = append(titles, b.Text)
		case open && b.Class == class:
			drafts[len(drafts)-1].add(b)
		default:
			d := draft{}
			if len(titles) > 0 {
				d = titledDraft(titles)
				titles = nil
			}
			d.add(b)
			drafts = append(drafts, d)
			open = true
			class = b.Class
		}
	}
	if len(titles) > 0 {
		d := titledDraft(titles)
		d.lines = append(d.lines, titles...)
		drafts = append(drafts, d)
	}
	return drafts
}

// titledDraft takes number and title from the last title line; earlier
// lines become a path prefix.
func titledDraft(titles []string) draft {
	var d draft
	last := strings.Join(strings.Fields(titles[len(titles)-1]), " ")
	d.num, d.title = splitNumTitle(last)
	if len(titles) > 1 {
		parts := make([]string, 0, len(titles))
		for _, t := range titles[:len(titles)-1] {
			parts = append(parts, strings.Join(strings.Fields(t), " "))
		}
		if d.title != nil {
			parts = append(parts, *d.title)
		}
		joined := strings.Join(parts, " / ")
		d.title = &joined
	}
	return d
}

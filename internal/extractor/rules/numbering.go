package rules

import (
	"regexp"
	"strings"

	"lawnorm/internal/domain"
)

var (
	sectionNumber = regexp.MustCompile(`\d+[A-Za-z]?(?:[.\-]\d+[A-Za-z]?)*`)
	sectionRef    = regexp.MustCompile(`(?i)(?:§§?|\bsections?\b|\bsecs?\.)\s*(\d+[A-Za-z]?(?:[.\-:]\d+[A-Za-z]?)*)`)
)

const titlePunct = " \t.-–—:;,"

// splitNumTitle separates a section number from its title. The split happens
// at the first colon, or else at the first run of digits.
func splitNumTitle(lead string) (num, title *string) {
	if i := strings.IndexByte(lead, '\n'); i >= 0 {
		lead = lead[:i]
	}
	lead = strings.TrimSpace(lead)
	if lead == "" {
		return nil, nil
	}

	if i := strings.IndexByte(lead, ':'); i >= 0 {
		left := strings.Trim(lead[:i], titlePunct)
		right := strings.Trim(lead[i+1:], titlePunct)
		if m := sectionNumber.FindString(left); m != "" {
			num = &m
		} else if left != "" {
			num = &left
		}
		if right != "" {
			title = &right
		}
		return num, title
	}

	loc := sectionNumber.FindStringIndex(lead)
	if loc == nil {
		t := strings.Trim(lead, titlePunct)
		return nil, optional(t)
	}
	n := lead[loc[0]:loc[1]]
	rest := strings.Trim(lead[loc[1]:], titlePunct)
	if rest == "" {
		rest = strings.Trim(lead, titlePunct)
	}
	return &n, optional(rest)
}

// references collects the section identifiers mentioned in text plus
// in-document anchor targets, excluding the section's own number.
func references(text string, anchors []string, own *string) domain.RefSet {
	var ids []string
	for _, m := range sectionRef.FindAllStringSubmatch(text, -1) {
		ids = append(ids, strings.TrimRight(m[1], ".-:"))
	}
	ids = append(ids, anchors...)

	refs := domain.NewRefSet(ids...)
	if own == nil {
		return refs
	}
	out := refs[:0]
	for _, id := range refs {
		if id != *own {
			out = append(out, id)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

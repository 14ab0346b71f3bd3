package llmextract

import (
	"fmt"
	"strings"

	"lawnorm/internal/domain"
	"lawnorm/internal/fingerprint"
)

const truncationMarker = "\n[... content omitted ...]\n"

// promptOptions vary with the attempt number.
type promptOptions struct {
	maxChars    int
	includeRefs bool
}

func optionsFor(attempt, maxChars int) promptOptions {
	opts := promptOptions{maxChars: maxChars, includeRefs: true}
	if attempt >= 2 {
		opts.includeRefs = false
	}
	if attempt >= 3 {
		opts.maxChars = maxChars / 2
	}
	return opts
}

func buildPrompt(in Input, opts promptOptions) string {
	var sb strings.Builder

	sb.WriteString(`You are a legal document structuring assistant. Split the municipal law document below into its sections, in source order.

DOCUMENT CONTEXT:
`)
	fmt.Fprintf(&sb, "- document_id: %s\n", in.DocumentID)
	fmt.Fprintf(&sb, "- jurisdiction: %s, %s\n", in.Jurisdiction.PlaceName, in.Jurisdiction.StateCode)
	fmt.Fprintf(&sb, "- document_type (classifier guess): %s\n", in.DocumentType)
	if in.Signature != nil {
		fmt.Fprintf(&sb, "- schema: %s (depth %s)\n", shortHash(in.Signature.Hash), in.Signature.Depth)
		if tags := fingerprint.TopTags(*in.Signature, 8); len(tags) > 0 {
			fmt.Fprintf(&sb, "- most frequent tags: %s\n", strings.Join(tags, ", "))
		}
		if tokens := limit(in.Signature.AttrTokens, 20); len(tokens) > 0 {
			fmt.Fprintf(&sb, "- class/id tokens: %s\n", strings.Join(tokens, " "))
		}
	}

	sb.WriteString(`
INSTRUCTIONS:
- Every section must have non-empty "section_text" containing the section body as plain text.
- "section_num" is the section number exactly as printed (e.g. "2-14", "4.1"), or null if unnumbered.
- "section_title" is the heading text without the number, or null.
- Skip navigation, headers, footers and other page furniture.
`)
	fmt.Fprintf(&sb, "- \"document_type\" must be one of: %s.\n", typeList())
	if opts.includeRefs {
		sb.WriteString(`- "section_refs" lists the numbers of other sections the text cites (e.g. "Section 3", "§ 2-14").` + "\n")
	} else {
		sb.WriteString(`- Leave "section_refs" as an empty array.` + "\n")
	}

	sb.WriteString(`
Return ONLY a JSON object with no markdown formatting and no explanation, shaped as:
{
  "document_id": "",
  "document_type": "",
  "jurisdiction": {"place_name": "", "state_code": ""},
  "sections": [
    {"section_id": "", "section_num": null, "section_title": null, "section_text": "", "section_refs": []}
  ]
}

DOCUMENT:
`)
	sb.WriteString(excerpt(in.Markup, opts.maxChars))
	sb.WriteString("\n")
	return sb.String()
}

// excerpt keeps the head and tail of s when it exceeds maxChars.
func excerpt(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	budget := maxChars - len(truncationMarker)
	if budget <= 0 {
		return safePrefix(s, maxChars)
	}
	head := budget * 3 / 4
	tail := budget - head
	return safePrefix(s, head) + truncationMarker + safeSuffix(s, tail)
}

// safePrefix cuts s to at most n bytes without splitting a rune.
func safePrefix(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func safeSuffix(s string, n int) string {
	if n >= len(s) {
		return s
	}
	i := len(s) - n
	for i < len(s) && !isRuneStart(s[i]) {
		i++
	}
	return s[i:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}

func limit(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func typeList() string {
	names := make([]string, len(domain.DocumentTypes))
	for i, t := range domain.DocumentTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

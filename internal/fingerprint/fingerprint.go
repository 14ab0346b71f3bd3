// Package fingerprint derives deterministic structural signatures from raw
// markup.
package fingerprint

import (
	"encoding/hex"
	"math/bits"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/net/html"

	"lawnorm/internal/domain"
	"lawnorm/internal/markup"
)

// Depth bucket upper bounds, measured from the document body.
const (
	shallowMaxDepth = 6
	mediumMaxDepth  = 12
)

// Analysis is the result of fingerprinting one document.
type Analysis struct {
	Signature domain.SchemaSignature
	// Text is the visible text with decoration removed, one line per block.
	Text string
}

var digitRun = regexp.MustCompile(`[0-9]+`)

// wrapper elements the HTML5 tree builder inserts on its own.
var implicitTags = map[string]bool{"html": true, "head": true, "body": true}

var textBlockSelector = "p, li, pre, blockquote, dd, td"

// Analyze fingerprints raw markup. It fails only with domain.ErrMalformedInput
// when the input is not parseable text; broken markup is repaired.
func Analyze(raw string) (*Analysis, error) {
	doc, err := markup.Parse(raw)
	if err != nil {
		return nil, err
	}

	tags := make(map[string]int)
	attrs := make(map[string]struct{})
	maxDepth := 0
	for _, n := range doc.Nodes {
		collect(n, 0, tags, attrs, &maxDepth)
	}

	markup.StripDecoration(doc)
	body := markup.Body(doc)

	sig := domain.SchemaSignature{
		TagBuckets: bucketCounts(tags),
		AttrTokens: sortedKeys(attrs),
		Depth:      depthBucket(maxDepth),
		Features:   features(body),
	}
	sig.Hash = hashSignature(sig)

	return &Analysis{Signature: sig, Text: markup.Text(body)}, nil
}

// collect walks the tree counting tags and attribute tokens. Depth counts
// only explicit elements, so the implicit html/body wrappers do not shift it.
func collect(n *html.Node, depth int, tags map[string]int, attrs map[string]struct{}, maxDepth *int) {
	if n.Type == html.ElementNode && !implicitTags[n.Data] {
		depth++
		if depth > *maxDepth {
			*maxDepth = depth
		}
		tags[n.Data]++
		for _, a := range n.Attr {
			switch a.Key {
			case "class":
				for _, tok := range strings.Fields(a.Val) {
					attrs["."+normalizeToken(tok)] = struct{}{}
				}
			case "id":
				if v := strings.TrimSpace(a.Val); v != "" {
					attrs["#"+normalizeToken(v)] = struct{}{}
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, depth, tags, attrs, maxDepth)
	}
}

// normalizeToken lowercases and collapses digit runs so per-section ids like
// "sec-2-14" and "sec-3-1" produce the same token.
func normalizeToken(tok string) string {
	return digitRun.ReplaceAllString(strings.ToLower(tok), "#")
}

// bucketCount maps a count onto a log2 scale: 1, 2-3, 4-7, 8-15, ...
func bucketCount(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n))
}

func bucketCounts(tags map[string]int) map[string]int {
	out := make(map[string]int, len(tags))
	for tag, n := range tags {
		out[tag] = bucketCount(n)
	}
	return out
}

func depthBucket(depth int) domain.DepthBucket {
	switch {
	case depth <= shallowMaxDepth:
		return domain.DepthShallow
	case depth <= mediumMaxDepth:
		return domain.DepthMedium
	default:
		return domain.DepthDeep
	}
}

func features(body *goquery.Selection) domain.Features {
	f := domain.Features{
		ExplicitSections: markup.ExplicitSections(body).Length(),
		Headings:         body.Find(markup.HeadingSelector).Length(),
		TextBlocks:       body.Find(textBlockSelector).Length(),
		HasTable:         body.Find("table").Length() > 0,
	}
	body.Find("p").Each(func(_ int, s *goquery.Selection) {
		f.Paragraphs++
		if class, _ := s.Attr("class"); strings.TrimSpace(class) != "" {
			f.ClassedParagraphs++
		}
	})
	return f
}

// hashSignature hashes the canonical text form tags|attrs|depth.
func hashSignature(sig domain.SchemaSignature) string {
	tagNames := make([]string, 0, len(sig.TagBuckets))
	for tag := range sig.TagBuckets {
		tagNames = append(tagNames, tag)
	}
	sort.Strings(tagNames)

	var sb strings.Builder
	for i, tag := range tagNames {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(tag)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(sig.TagBuckets[tag]))
	}
	sb.WriteByte('|')
	sb.WriteString(strings.Join(sig.AttrTokens, ","))
	sb.WriteByte('|')
	sb.WriteString(string(sig.Depth))

	sum := blake2b.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TopTags returns up to n tag names ordered by bucketed count, then name.
func TopTags(sig domain.SchemaSignature, n int) []string {
	tags := make([]string, 0, len(sig.TagBuckets))
	for tag := range sig.TagBuckets {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		bi, bj := sig.TagBuckets[tags[i]], sig.TagBuckets[tags[j]]
		if bi != bj {
			return bi > bj
		}
		return tags[i] < tags[j]
	})
	if len(tags) > n {
		tags = tags[:n]
	}
	return tags
}

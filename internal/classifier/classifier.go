// Package classifier assigns a legal document type from text and
// structural signals.
package classifier

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"

	"lawnorm/internal/domain"
)

// Result is the winning type together with every type's score.
type Result struct {
	Type   domain.DocumentType
	Scores map[domain.DocumentType]float64
}

type compiledKeyword struct {
	stem   string
	phrase string
	weight float64
}

type compiledRule struct {
	typ         domain.DocumentType
	keywords    []compiledKeyword
	tableWeight float64
}

// Classifier scores text against keyword tables. It is safe for concurrent use.
type Classifier struct {
	rules         []compiledRule
	minScore      float64
	maxPerKeyword int
}

// New compiles cfg into a Classifier.
func New(cfg Config) *Classifier {
	c := &Classifier{minScore: cfg.MinScore, maxPerKeyword: cfg.MaxPerKeyword}
	for _, r := range cfg.Rules {
		cr := compiledRule{typ: r.Type, tableWeight: r.TableWeight}
		for _, kw := range r.Keywords {
			term := strings.ToLower(strings.TrimSpace(kw.Term))
			if term == "" {
				continue
			}
			if isWord(term) {
				cr.keywords = append(cr.keywords, compiledKeyword{stem: stem(term), weight: kw.Weight})
			} else {
				cr.keywords = append(cr.keywords, compiledKeyword{phrase: term, weight: kw.Weight})
			}
		}
		c.rules = append(c.rules, cr)
	}
	return c
}

// Classify scores text. Ties resolve by the fixed type priority order and
// scores below the minimum yield Unknown.
func (c *Classifier) Classify(text string, hasTable bool) Result {
	lower := strings.ToLower(text)
	stems := stemCounts(lower)

	scores := make(map[domain.DocumentType]float64, len(c.rules))
	for _, r := range c.rules {
		var score float64
		for _, kw := range r.keywords {
			var n int
			if kw.phrase != "" {
				n = strings.Count(lower, kw.phrase)
			} else {
				n = stems[kw.stem]
			}
			if c.maxPerKeyword > 0 && n > c.maxPerKeyword {
				n = c.maxPerKeyword
			}
			score += float64(n) * kw.weight
		}
		if hasTable {
			score += r.tableWeight
		}
		scores[r.typ] += score
	}

	best := domain.DocumentTypeUnknown
	bestScore := 0.0
	for _, t := range domain.DocumentTypes {
		s, ok := scores[t]
		if !ok {
			continue
		}
		if s > bestScore {
			best, bestScore = t, s
		}
	}
	if bestScore < c.minScore {
		best = domain.DocumentTypeUnknown
	}
	return Result{Type: best, Scores: scores}
}

func stemCounts(lower string) map[string]int {
	cache := make(map[string]string)
	counts := make(map[string]int)
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		s, ok := cache[tok]
		if !ok {
			s = stem(tok)
			cache[tok] = s
		}
		counts[s]++
	}
	return counts
}

func stem(word string) string {
	s, err := snowball.Stem(word, "english", true)
	if err != nil || s == "" {
		return word
	}
	return s
}

func isWord(term string) bool {
	for _, r := range term {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

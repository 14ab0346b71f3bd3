package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lawnorm/internal/classifier"
	"lawnorm/internal/domain"
)

func newClassifier() *classifier.Classifier {
	return classifier.New(classifier.DefaultConfig())
}

func TestClassify_AdoptedEffectiveIsOrdinance(t *testing.T) {
	res := newClassifier().Classify("Adopted September 5, 1995\nEffective October 1, 1995", false)
	assert.Equal(t, domain.DocumentTypeOrdinance, res.Type)
	assert.InDelta(t, 2.0, res.Scores[domain.DocumentTypeOrdinance], 1e-9)
}

func TestClassify_Types(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		hasTable bool
		want     domain.DocumentType
	}{
		{"ordinance phrase", "Now, therefore, be it enacted by the council", false, domain.DocumentTypeOrdinance},
		{"code", "Chapter 4. Article II. § 4-12 and § 4-13 of this code", false, domain.DocumentTypeCode},
		{"regulation", "Each applicant shall comply with this regulation and obtain a permit.", false, domain.DocumentTypeRegulation},
		{"charter", "The city is incorporated under this charter.", false, domain.DocumentTypeCharter},
		{"nothing", "The quick brown fox.", false, domain.DocumentTypeUnknown},
		{"table alone below threshold", "Fee schedule", true, domain.DocumentTypeUnknown},
	}
	c := newClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text, tt.hasTable).Type)
		})
	}
}

func TestClassify_StemmedMatching(t *testing.T) {
	res := newClassifier().Classify("Ordinances amending the charters of incorporated towns", false)
	assert.Greater(t, res.Scores[domain.DocumentTypeCharter], res.Scores[domain.DocumentTypeOrdinance])
	assert.Equal(t, domain.DocumentTypeCharter, res.Type)
}

func TestClassify_TieBreakOrder(t *testing.T) {
	cfg := classifier.Config{
		MinScore: 1,
		Rules: []classifier.Rule{
			{Type: domain.DocumentTypeCharter, Keywords: []classifier.Keyword{{"alpha", 1}}},
			{Type: domain.DocumentTypeRegulation, Keywords: []classifier.Keyword{{"alpha", 1}}},
			{Type: domain.DocumentTypeCode, Keywords: []classifier.Keyword{{"alpha", 1}}},
		},
	}
	res := classifier.New(cfg).Classify("alpha", false)
	assert.Equal(t, domain.DocumentTypeCode, res.Type)
}

func TestClassify_PerKeywordCap(t *testing.T) {
	cfg := classifier.Config{
		MinScore:      1,
		MaxPerKeyword: 2,
		Rules: []classifier.Rule{
			{Type: domain.DocumentTypeCode, Keywords: []classifier.Keyword{{"§", 1}}},
		},
	}
	res := classifier.New(cfg).Classify("§ 1 § 2 § 3 § 4", false)
	assert.InDelta(t, 2.0, res.Scores[domain.DocumentTypeCode], 1e-9)
}

func TestClassify_TableFavorsRegulation(t *testing.T) {
	c := newClassifier()
	without := c.Classify("A permit is required.", false)
	with := c.Classify("A permit is required.", true)

	assert.Equal(t, domain.DocumentTypeUnknown, without.Type)
	assert.Equal(t, domain.DocumentTypeRegulation, with.Type)
}

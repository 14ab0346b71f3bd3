package classifier

import "lawnorm/internal/domain"

// Keyword is one scored term. Single words match stemmed tokens; anything
// containing a space or a non-letter is matched as a case-insensitive phrase.
type Keyword struct {
	Term   string
	Weight float64
}

// Rule is the keyword table for one document type.
type Rule struct {
	Type     domain.DocumentType
	Keywords []Keyword
	// TableWeight is added when the document contains a table.
	TableWeight float64
}

// Config is the classifier's data: rules plus scoring limits.
type Config struct {
	Rules         []Rule
	MinScore      float64
	MaxPerKeyword int
}

// DefaultConfig returns the keyword tables used for municipal legal text.
func DefaultConfig() Config {
	return Config{
		MinScore:      2,
		MaxPerKeyword: 5,
		Rules: []Rule{
			{
				Type: domain.DocumentTypeOrdinance,
				Keywords: []Keyword{
					{"ordinance", 2},
					{"whereas", 1.5},
					{"be it enacted", 3},
					{"be it ordained", 3},
					{"adopted", 1},
					{"effective", 1},
					{"council", 0.5},
				},
			},
			{
				Type: domain.DocumentTypeCode,
				Keywords: []Keyword{
					{"code", 1.5},
					{"codified", 2},
					{"chapter", 1},
					{"article", 1},
					{"§", 1},
				},
				TableWeight: 1,
			},
			{
				Type: domain.DocumentTypeRegulation,
				Keywords: []Keyword{
					{"regulation", 2},
					{"shall comply", 2},
					{"permit", 1},
					{"requirement", 0.5},
					{"prohibited", 0.5},
				},
				TableWeight: 1.5,
			},
			{
				Type: domain.DocumentTypeCharter,
				Keywords: []Keyword{
					{"charter", 3},
					{"incorporated", 2},
					{"home rule", 2},
					{"municipal corporation", 1.5},
				},
			},
		},
	}
}

package llmextract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lawnorm/internal/domain"
)

var errNoJSONObject = errors.New("reply contains no JSON object")

type replySection struct {
	SectionID    *string `json:"section_id"`
	SectionNum   any     `json:"section_num"`
	SectionTitle *string `json:"section_title"`
	SectionText  string  `json:"section_text"`
	SectionRefs  []any   `json:"section_refs"`
}

type replyDocument struct {
	DocumentType *string        `json:"document_type"`
	Sections     []replySection `json:"sections"`
}

// jsonObject strips code fences and returns the outermost {...} span.
func jsonObject(reply string) (string, error) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", errNoJSONObject
	}
	return s[start : end+1], nil
}

func decodeNumbers(s string, dst any) error {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	return dec.Decode(dst)
}

// parse validates the reply against the response schema and repairs it into
// a NormalizedDocument for in.
func (e *Extractor) parse(in Input, reply string, includeRefs bool) (*domain.NormalizedDocument, error) {
	obj, err := jsonObject(reply)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := decodeNumbers(obj, &generic); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if err := e.schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("reply does not match schema: %w", err)
	}

	var doc replyDocument
	if err := decodeNumbers(obj, &doc); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return repair(in, &doc, includeRefs)
}

// repair applies the output invariants: blank sections dropped, section
// numbers and ids unique, identity fields forced to the known values.
func repair(in Input, doc *replyDocument, includeRefs bool) (*domain.NormalizedDocument, error) {
	kept := make([]replySection, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		if strings.TrimSpace(s.SectionText) != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil, errors.New("reply has no non-empty sections")
	}

	nums := make([]*string, len(kept))
	renumber := false
	seenNum := make(map[string]struct{}, len(kept))
	for i, s := range kept {
		num := scalarString(s.SectionNum)
		if num == "" {
			renumber = true
			continue
		}
		if _, dup := seenNum[num]; dup {
			renumber = true
		}
		seenNum[num] = struct{}{}
		nums[i] = &num
	}
	if renumber {
		for i := range nums {
			n := strconv.Itoa(i + 1)
			nums[i] = &n
		}
	}

	out := &domain.NormalizedDocument{
		DocumentID:   in.DocumentID,
		Jurisdiction: in.Jurisdiction,
		DocumentType: in.DocumentType,
		Sections:     make([]domain.Section, 0, len(kept)),
	}
	if doc.DocumentType != nil {
		if t, ok := domain.ParseDocumentType(*doc.DocumentType); ok && t != domain.DocumentTypeUnknown {
			out.DocumentType = t
		}
	}
	if out.DocumentType == "" {
		out.DocumentType = domain.DocumentTypeUnknown
	}

	seenID := make(map[string]struct{}, len(kept))
	for i, s := range kept {
		id := ""
		if s.SectionID != nil {
			id = strings.TrimSpace(*s.SectionID)
		}
		if _, dup := seenID[id]; id == "" || dup {
			id = freshID(in.DocumentID, i+1, seenID)
		}
		seenID[id] = struct{}{}

		var refs domain.RefSet
		if includeRefs {
			refs = refSet(s.SectionRefs, nums[i])
		}
		out.Sections = append(out.Sections, domain.Section{
			SectionID:    id,
			SectionNum:   nums[i],
			SectionTitle: blankToNil(s.SectionTitle),
			SectionText:  strings.TrimSpace(s.SectionText),
			SectionRefs:  refs,
		})
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func freshID(documentID string, ordinal int, seen map[string]struct{}) string {
	id := domain.SectionID(documentID, ordinal)
	for n := 2; ; n++ {
		if _, taken := seen[id]; !taken {
			return id
		}
		id = fmt.Sprintf("%s-%d", domain.SectionID(documentID, ordinal), n)
	}
}

func refSet(raw []any, own *string) domain.RefSet {
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		ref := scalarString(r)
		if ref == "" || (own != nil && ref == *own) {
			continue
		}
		ids = append(ids, ref)
	}
	return domain.NewRefSet(ids...)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

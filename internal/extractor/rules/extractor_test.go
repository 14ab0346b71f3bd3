package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/domain"
	"lawnorm/internal/extractor/rules"
)

func str(s string) *string { return &s }

func TestExtract_ExplicitSections(t *testing.T) {
	raw := `<nav>Home | Codes</nav>
<div class="code">
  <section><h3>Section 1: Purpose</h3><p>This chapter establishes rules.</p></section>
  <section><h3>Section 2: Definitions</h3><p>Terms used in Section 3 mean the following.</p></section>
  <section><h3>Section 3: Penalties</h3><p>Violations of § 2 are punishable.</p><p>Each day is a separate offense.</p></section>
</div>`

	sections, err := rules.New(nil).Extract(domain.StrategyRuleExplicitSection, "doc-1", raw)
	require.NoError(t, err)
	require.Len(t, sections, 3)

	for i, want := range []string{"1", "2", "3"} {
		assert.Equal(t, domain.SectionID("doc-1", i+1), sections[i].SectionID)
		require.NotNil(t, sections[i].SectionNum)
		assert.Equal(t, want, *sections[i].SectionNum)
		assert.NotEmpty(t, sections[i].SectionText)
	}
	assert.Equal(t, str("Purpose"), sections[0].SectionTitle)
	assert.Equal(t, "This chapter establishes rules.", sections[0].SectionText)
	assert.Equal(t, domain.RefSet{"3"}, sections[1].SectionRefs)
	assert.Equal(t, "Violations of § 2 are punishable.\nEach day is a separate offense.", sections[2].SectionText)
	assert.Equal(t, domain.RefSet{"2"}, sections[2].SectionRefs)
}

func TestExtract_ExplicitSections_LeadingTextLine(t *testing.T) {
	raw := `<div class="chunk">Sec. 4.1 Permits<br>No person shall build without a permit.</div>
<div class="chunk">Sec. 4.2 Fees</div>`

	sections, err := rules.New(nil).Extract(domain.StrategyRuleExplicitSection, "d", raw)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, str("4.1"), sections[0].SectionNum)
	assert.Equal(t, str("Permits"), sections[0].SectionTitle)
	assert.Equal(t, "No person shall build without a permit.", sections[0].SectionText)

	assert.Equal(t, str("4.2"), sections[1].SectionNum)
	assert.Equal(t, "Sec. 4.2 Fees", sections[1].SectionText)
}

func TestExtract_Headings(t *testing.T) {
	raw := `<body>
<p>Preamble text.</p>
<h1>Title 5</h1>
<h2>Chapter 5.04: Animals</h2>
<p>Animals must be leashed.</p>
<p>See <a href="#s-5-08">5.08</a>.</p>
<h2>Chapter 5.08: Noise</h2>
<p>Quiet hours apply.</p>
<h3>Orphan heading</h3>
</body>`

	sections, err := rules.New(nil).Extract(domain.StrategyRuleHeading, "h", raw)
	require.NoError(t, err)
	require.Len(t, sections, 3)

	assert.Nil(t, sections[0].SectionNum)
	assert.Equal(t, "Preamble text.", sections[0].SectionText)

	assert.Equal(t, str("5.04"), sections[1].SectionNum)
	assert.Equal(t, str("Title 5 / Animals"), sections[1].SectionTitle)
	assert.Equal(t, "Animals must be leashed.\nSee 5.08.", sections[1].SectionText)
	assert.Equal(t, domain.RefSet{"s-5-08"}, sections[1].SectionRefs)

	assert.Equal(t, str("5.08"), sections[2].SectionNum)
	assert.Equal(t, str("Noise"), sections[2].SectionTitle)
	assert.Equal(t, "h-s003", sections[2].SectionID)
}

func TestExtract_Paragraphs(t *testing.T) {
	raw := `<div>
<p class="chunk-title">Sec. 1 Short title</p>
<p class="text">This act may be cited as the Code.</p>
<p class="text">It applies citywide.</p>
<hr>
<p class="text">Separate group after rule.</p>
<p class="bc">Part II</p>
<p class="chunk-title">Sec. 2: Scope</p>
<p class="indent">Scope text.</p>
<p class="text">Class changed.</p>
</div>`

	sections, err := rules.New(nil).Extract(domain.StrategyRuleParagraph, "p", raw)
	require.NoError(t, err)
	require.Len(t, sections, 4)

	assert.Equal(t, str("1"), sections[0].SectionNum)
	assert.Equal(t, str("Short title"), sections[0].SectionTitle)
	assert.Equal(t, "This act may be cited as the Code.\nIt applies citywide.", sections[0].SectionText)

	assert.Nil(t, sections[1].SectionNum)
	assert.Equal(t, "Separate group after rule.", sections[1].SectionText)

	assert.Equal(t, str("2"), sections[2].SectionNum)
	assert.Equal(t, str("Part II / Scope"), sections[2].SectionTitle)
	assert.Equal(t, "Scope text.", sections[2].SectionText)

	assert.Equal(t, "Class changed.", sections[3].SectionText)
}

func TestExtract_ParagraphsKeepHeadingsAndTrailingTitles(t *testing.T) {
	raw := `<div>
<h2>Chapter 4 Zoning</h2>
<p class="b0">Alpha</p>
<p class="b0">Beta</p>
<p class="bc">Orphan</p>
</div>`

	sections, err := rules.New(nil).Extract(domain.StrategyRuleParagraph, "z", raw)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, str("4"), sections[0].SectionNum)
	assert.Equal(t, str("Zoning"), sections[0].SectionTitle)
	assert.Equal(t, "Alpha\nBeta", sections[0].SectionText)

	assert.Nil(t, sections[1].SectionNum)
	assert.Equal(t, str("Orphan"), sections[1].SectionTitle)
	assert.Equal(t, "Orphan", sections[1].SectionText)
	assert.Equal(t, "z-s002", sections[1].SectionID)
}

func TestExtract_NoStructureIsEmptyError(t *testing.T) {
	_, err := rules.New(nil).Extract(domain.StrategyRuleExplicitSection, "x", `<div>Just some words with no markers.</div>`)
	assert.ErrorIs(t, err, domain.ErrStructuralExtractionEmpty)

	_, err = rules.New(nil).Extract(domain.StrategyRuleHeading, "x", `<nav><p>only navigation</p></nav>`)
	assert.ErrorIs(t, err, domain.ErrStructuralExtractionEmpty)
}

func TestExtract_RejectsNonRuleStrategy(t *testing.T) {
	_, err := rules.New(nil).Extract(domain.StrategyLLM, "x", `<p>a</p>`)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_MalformedInput(t *testing.T) {
	_, err := rules.New(nil).Extract(domain.StrategyRuleHeading, "x", "  ")
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestExtract_SectionsNeverEmpty(t *testing.T) {
	raw := `<section><h2>Section 1</h2></section><section>   </section><section><p>Body</p></section>`

	sections, err := rules.New(nil).Extract(domain.StrategyRuleExplicitSection, "e", raw)
	require.NoError(t, err)
	for _, s := range sections {
		assert.NotEmpty(t, s.SectionText)
	}
	assert.Equal(t, "e-s001", sections[0].SectionID)
}

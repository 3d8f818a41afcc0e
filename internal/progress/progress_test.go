package progress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specforge/specforge/internal/document"
	"github.com/specforge/specforge/internal/tier"
)

func docAtTier(level int, sections ...document.Section) *document.Document {
	return &document.Document{
		Meta:     document.Metadata{Tier: level},
		Sections: sections,
	}
}

func Test_Evaluate_Classifies_Sections(t *testing.T) {
	t.Parallel()

	schema := tier.Default()
	t1, _ := schema.TierFor(1)
	whatTmpl, _ := t1.Section("what")

	doc := docAtTier(1,
		document.Section{Key: "what", Title: "What", Content: whatTmpl.Placeholder},
		// "why" absent.
	)

	report, err := Evaluate(doc, schema)
	require.NoError(t, err)

	require.Equal(t, []SectionStatus{
		{Key: "what", Title: "What", Status: StatusPartial},
		{Key: "why", Title: "Why", Status: StatusMissing},
	}, report.Sections)

	require.Equal(t, 0.0, report.Percent)
	require.Equal(t, "what", report.NextSuggested)
	require.False(t, report.SuggestExpand)
	require.False(t, report.TierComplete)
}

func Test_Evaluate_Treats_Trivial_Content_As_Partial(t *testing.T) {
	t.Parallel()

	schema := tier.Default()

	doc := docAtTier(1,
		document.Section{Key: "what", Title: "What", Content: "x"},
		document.Section{Key: "why", Title: "Why", Content: "   \n  "},
	)

	report, err := Evaluate(doc, schema)
	require.NoError(t, err)

	require.Equal(t, StatusPartial, report.Sections[0].Status)
	require.Equal(t, StatusPartial, report.Sections[1].Status)
}

func Test_Evaluate_Suggests_Expansion_When_Tier_Is_Complete(t *testing.T) {
	t.Parallel()

	schema := tier.Default()

	doc := docAtTier(1,
		document.Section{Key: "what", Title: "What", Content: "login"},
		document.Section{Key: "why", Title: "Why", Content: "security"},
	)

	report, err := Evaluate(doc, schema)
	require.NoError(t, err)

	require.Equal(t, 1.0, report.Percent)
	require.Empty(t, report.NextSuggested)
	require.True(t, report.SuggestExpand)
	require.Equal(t, 2, report.NextTier)
	require.Equal(t, []string{"what", "why"}, report.Completed())
}

func Test_Evaluate_Signals_Tier_Complete_At_Max_Tier(t *testing.T) {
	t.Parallel()

	schema := tier.Default()

	doc, err := schema.Scaffold("done", 3)
	require.NoError(t, err)

	for i := range doc.Sections {
		doc.Sections[i].Content = "real content for " + doc.Sections[i].Key
	}

	report, err := Evaluate(doc, schema)
	require.NoError(t, err)

	require.Equal(t, 1.0, report.Percent)
	require.True(t, report.TierComplete)
	require.False(t, report.SuggestExpand)
}

func Test_Evaluate_Expansion_Example_Drops_Percent_From_Full_To_Half(t *testing.T) {
	t.Parallel()

	schema := tier.Default()

	doc := docAtTier(1,
		document.Section{Key: "what", Title: "What", Content: "login"},
		document.Section{Key: "why", Title: "Why", Content: "security"},
	)

	before, err := Evaluate(doc, schema)
	require.NoError(t, err)
	require.Equal(t, 1.0, before.Percent)

	expanded, err := schema.Expand(doc, 2, false)
	require.NoError(t, err)

	after, err := Evaluate(expanded, schema)
	require.NoError(t, err)

	// 2 of 5 complete at the default standard tier: the carried sections
	// stay complete and the percent drops.
	require.InDelta(t, 0.4, after.Percent, 1e-9)
	require.Equal(t, []string{"what", "why"}, after.Completed())
	require.Equal(t, "user_stories", after.NextSuggested)
	require.Less(t, after.Percent, before.Percent)
}

func Test_Evaluate_Expansion_Halves_Percent_With_Four_Section_Tier(t *testing.T) {
	t.Parallel()

	schema := &tier.Schema{Tiers: []tier.Tier{
		{Level: 1, Name: "outline", Sections: []tier.SectionTemplate{
			{Key: "what", Title: "What", Placeholder: "[what]"},
			{Key: "why", Title: "Why", Placeholder: "[why]"},
		}},
		{Level: 2, Name: "standard", Sections: []tier.SectionTemplate{
			{Key: "what", Title: "What", Placeholder: "[what]"},
			{Key: "why", Title: "Why", Placeholder: "[why]"},
			{Key: "user_stories", Title: "User Stories", Placeholder: "[stories]"},
			{Key: "requirements", Title: "Requirements", Placeholder: "[reqs]"},
		}},
	}}
	require.NoError(t, schema.Validate())

	doc := docAtTier(1,
		document.Section{Key: "what", Title: "What", Content: "login"},
		document.Section{Key: "why", Title: "Why", Content: "security"},
	)

	before, err := Evaluate(doc, schema)
	require.NoError(t, err)
	require.Equal(t, 1.0, before.Percent)

	expanded, err := schema.Expand(doc, 2, false)
	require.NoError(t, err)

	what, _ := expanded.Section("what")
	why, _ := expanded.Section("why")
	require.Equal(t, "login", what.Content)
	require.Equal(t, "security", why.Content)

	after, err := Evaluate(expanded, schema)
	require.NoError(t, err)
	require.Equal(t, 0.5, after.Percent)
}

func Test_Evaluate_Percent_Is_Monotonic_In_Section_Completion(t *testing.T) {
	t.Parallel()

	schema := tier.Default()

	doc, err := schema.Scaffold("feature", 2)
	require.NoError(t, err)

	report, err := Evaluate(doc, schema)
	require.NoError(t, err)

	last := report.Percent

	// Completing one partial section at a time never decreases the percent.
	for i := range doc.Sections {
		doc.Sections[i].Content = "written content " + doc.Sections[i].Key

		report, err = Evaluate(doc, schema)
		require.NoError(t, err)
		require.GreaterOrEqual(t, report.Percent, last)

		last = report.Percent
	}

	require.Equal(t, 1.0, last)
}

func Test_Evaluate_Rejects_Tier_Outside_Schema(t *testing.T) {
	t.Parallel()

	doc := docAtTier(9)

	_, err := Evaluate(doc, tier.Default())
	require.Error(t, err)
}

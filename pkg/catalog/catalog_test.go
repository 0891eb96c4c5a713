package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupLanguage(t *testing.T) {
	c := Default()

	tests := []struct {
		name      string
		code      string
		wantFound bool
		wantKey   string
		wantShort string
		wantName  string
	}{
		{"Canonical Key", "Spanish-US", true, "Spanish-US", "SpanishUS", "Spanish (Latin America)"},
		{"Alias With Spaces", "Te Reo Maori", true, "Maori", "Maori", "Te Reo Māori"},
		{"Alias Underscore", "Simplified_Chinese", true, "Mandarin", "Mandarin", "Mandarin"},
		{"Short Name", "EnglishNZ", true, "English-NZ", "EnglishNZ", "English NZ"},
		{"Unknown", "Klingon", false, "", "", ""},
		{"Case Sensitive", "french", false, "", "", ""},
		{"Empty", "", false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.LookupLanguage(tt.code)
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.wantKey, got.Key)
			assert.Equal(t, tt.wantShort, got.ShortName)
			assert.Equal(t, tt.wantName, got.Display)
		})
	}
}

func TestLookupLocalizedTitle(t *testing.T) {
	c := Default()

	title, ok := c.LookupLocalizedTitle("KakapoDisco", "Maori")
	assert.True(t, ok)
	assert.Equal(t, "Kanikani o ngā Kākāpō", title)

	title, ok = c.LookupLocalizedTitle("Count", "EnglishNZ")
	assert.True(t, ok)
	assert.Equal(t, "Count", title)

	_, ok = c.LookupLocalizedTitle("KakapoDisco", "German")
	assert.False(t, ok, "unknown language should miss")

	_, ok = c.LookupLocalizedTitle("Nope", "Maori")
	assert.False(t, ok, "unknown story should miss")

	// Titles are keyed by short name, not canonical key.
	_, ok = c.LookupLocalizedTitle("Art", "English-NZ")
	assert.False(t, ok)
}

func TestNilCatalogMisses(t *testing.T) {
	var c *Catalog
	_, ok := c.LookupLanguage("French")
	assert.False(t, ok)
	_, ok = c.LookupLocalizedTitle("Art", "French")
	assert.False(t, ok)
	assert.Nil(t, c.AliasesFor("French"))
	assert.Empty(t, c.Stories())
	assert.Empty(t, c.Languages())
}

func TestDefaultOrder(t *testing.T) {
	c := Default()

	var stories []string
	for _, s := range c.Stories() {
		stories = append(stories, s.Name)
	}
	assert.Equal(t, []string{"Art", "Band", "BikeRace", "Count", "Dance", "KakapoDisco", "Opposites", "Party", "Play", "TreasureHunt"}, stories)

	var keys []string
	for _, l := range c.Languages() {
		keys = append(keys, l.Key)
	}
	assert.Equal(t, []string{"English-NZ", "Mandarin", "French", "Spanish-US", "Maori"}, keys)

	assert.Empty(t, c.Validate(), "built-in data should have no gaps")
}

func TestCatalogIsImmutable(t *testing.T) {
	langs := []LanguageEntry{{Key: "French", ShortName: "French", Display: "French", Aliases: []string{"French"}}}
	stories := []Story{{Name: "Art", Titles: []StoryTitle{{Language: "French", Display: "L’art"}}}}

	c, err := New(langs, stories)
	require.NoError(t, err)

	langs[0].Aliases[0] = "Changed"
	stories[0].Titles[0].Display = "Changed"
	assert.Equal(t, []string{"French"}, c.AliasesFor("French"))
	title, _ := c.LookupLocalizedTitle("Art", "French")
	assert.Equal(t, "L’art", title)

	// Returned values are copies too.
	got, _ := c.LookupLanguage("French")
	got.Aliases[0] = "Mutated"
	assert.Equal(t, []string{"French"}, c.AliasesFor("French"))
}

func TestNewRejectsStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		langs   []LanguageEntry
		stories []Story
	}{
		{
			name:  "Missing Short Name",
			langs: []LanguageEntry{{Key: "French"}},
		},
		{
			name: "Duplicate Key",
			langs: []LanguageEntry{
				{Key: "French", ShortName: "French"},
				{Key: "French", ShortName: "French2"},
			},
		},
		{
			name: "Duplicate Short Name",
			langs: []LanguageEntry{
				{Key: "French", ShortName: "FR"},
				{Key: "French-CA", ShortName: "FR"},
			},
		},
		{
			name: "Shared Alias",
			langs: []LanguageEntry{
				{Key: "French", ShortName: "French", Aliases: []string{"FR"}},
				{Key: "French-CA", ShortName: "FrenchCA", Aliases: []string{"FR"}},
			},
		},
		{
			name: "Alias Is Another Key",
			langs: []LanguageEntry{
				{Key: "A", ShortName: "A", Aliases: []string{"A", "X"}},
				{Key: "X", ShortName: "B", Aliases: []string{"Y"}},
			},
		},
		{
			name: "Alias Is Another Short Name",
			langs: []LanguageEntry{
				{Key: "French", ShortName: "FR"},
				{Key: "French-CA", ShortName: "FrenchCA", Aliases: []string{"French-CA", "FR"}},
			},
		},
		{
			name: "Key Is Another Short Name",
			langs: []LanguageEntry{
				{Key: "Spanish", ShortName: "SpanishUS"},
				{Key: "SpanishUS", ShortName: "SpanishMX"},
			},
		},
		{
			name:    "Duplicate Story",
			stories: []Story{{Name: "Art"}, {Name: "Art"}},
		},
		{
			name:    "Unnamed Story",
			stories: []Story{{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.langs, tt.stories)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog))
		})
	}
}

func TestValidateReportsGaps(t *testing.T) {
	c, err := New(
		[]LanguageEntry{
			{Key: "French", ShortName: "French", Aliases: []string{"French"}},
			{Key: "Silent", ShortName: "Silent"},
		},
		[]Story{
			{Name: "Solo", Titles: []StoryTitle{{Language: "French", Display: "Seul"}}},
			{Name: "Ghost", Titles: []StoryTitle{
				{Language: "French", Display: "Fantôme"},
				{Language: "German", Display: "Geist"},
			}},
		},
	)
	require.NoError(t, err)

	var msgs []string
	for _, w := range c.Validate() {
		msgs = append(msgs, w.String())
	}
	assert.Contains(t, msgs, "Silent: no route aliases, language cannot appear in routes")
	assert.Contains(t, msgs, "Solo: fewer than two languages, no routes")
	assert.Contains(t, msgs, "Ghost/German: title for unknown language")
}

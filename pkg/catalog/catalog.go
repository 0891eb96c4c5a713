// Package catalog holds the immutable locale catalog: the supported languages with
// their accepted route spellings, and the localized title of every story.
package catalog

import (
	"errors"
	"fmt"
	"slices"
)

// LanguageEntry describes one supported language.
type LanguageEntry struct {
	Key       string   `yaml:"key" toml:"key" json:"key"`                      // canonical code, e.g. "English-NZ"
	ShortName string   `yaml:"short_name" toml:"short_name" json:"short_name"` // used in asset URLs and title lookups
	Display   string   `yaml:"display" toml:"display" json:"display"`
	Aliases   []string `yaml:"aliases,omitempty" toml:"aliases,omitempty" json:"aliases,omitempty"`
}

// StoryTitle is the display title of a story in one language.
type StoryTitle struct {
	Language string `yaml:"language" toml:"language" json:"language"` // language short name
	Display  string `yaml:"display" toml:"display" json:"display"`
}

// Story is a story identifier with its ordered localized titles.
type Story struct {
	Name   string       `yaml:"name" toml:"name" json:"name"`
	Titles []StoryTitle `yaml:"titles" toml:"titles" json:"titles"`
}

// Languages returns the short names that have a title for this story, in title order.
func (s Story) Languages() []string {
	out := make([]string, 0, len(s.Titles))
	for _, t := range s.Titles {
		out = append(out, t.Language)
	}
	return out
}

// ErrInvalidCatalog is wrapped by every structural error returned from New.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the read-only language and story table. The zero value is an empty catalog.
type Catalog struct {
	languages []LanguageEntry
	stories   []Story

	byKey   map[string]int
	byAlias map[string]int
	byShort map[string]int
	byStory map[string]int
}

// New builds a catalog from the given tables. The inputs are copied, so later changes
// to the caller's slices are not visible through the catalog.
func New(languages []LanguageEntry, stories []Story) (*Catalog, error) {
	c := &Catalog{
		languages: make([]LanguageEntry, 0, len(languages)),
		stories:   make([]Story, 0, len(stories)),
		byKey:     make(map[string]int, len(languages)),
		byAlias:   make(map[string]int),
		byShort:   make(map[string]int, len(languages)),
		byStory:   make(map[string]int, len(stories)),
	}

	// Every key, short name and alias must name exactly one language, otherwise a
	// route spelled for one language could resolve to another.
	owner := make(map[string]int)
	claim := func(token string, idx int) error {
		if o, taken := owner[token]; taken && o != idx {
			return fmt.Errorf("%w: %q names both %q and %q", ErrInvalidCatalog, token, languages[o].Key, languages[idx].Key)
		}
		owner[token] = idx
		return nil
	}

	for _, l := range languages {
		if l.Key == "" || l.ShortName == "" {
			return nil, fmt.Errorf("%w: language %q needs both key and short name", ErrInvalidCatalog, l.Display)
		}
		if _, dup := c.byKey[l.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate language key %q", ErrInvalidCatalog, l.Key)
		}
		if _, dup := c.byShort[l.ShortName]; dup {
			return nil, fmt.Errorf("%w: duplicate short name %q", ErrInvalidCatalog, l.ShortName)
		}
		idx := len(c.languages)
		for _, token := range append([]string{l.Key, l.ShortName}, l.Aliases...) {
			if err := claim(token, idx); err != nil {
				return nil, err
			}
		}
		for _, a := range l.Aliases {
			c.byAlias[a] = idx
		}
		c.byKey[l.Key] = idx
		c.byShort[l.ShortName] = idx
		l.Aliases = slices.Clone(l.Aliases)
		c.languages = append(c.languages, l)
	}

	for _, s := range stories {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: story without a name", ErrInvalidCatalog)
		}
		if _, dup := c.byStory[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate story %q", ErrInvalidCatalog, s.Name)
		}
		c.byStory[s.Name] = len(c.stories)
		s.Titles = slices.Clone(s.Titles)
		c.stories = append(c.stories, s)
	}

	return c, nil
}

// LookupLanguage finds a language by canonical key, then by alias, then by short name.
func (c *Catalog) LookupLanguage(code string) (LanguageEntry, bool) {
	if c == nil {
		return LanguageEntry{}, false
	}
	if i, ok := c.byKey[code]; ok {
		return c.language(i), true
	}
	if i, ok := c.byAlias[code]; ok {
		return c.language(i), true
	}
	if i, ok := c.byShort[code]; ok {
		return c.language(i), true
	}
	return LanguageEntry{}, false
}

// LanguageByShortName finds a language by the short name used in story titles.
func (c *Catalog) LanguageByShortName(short string) (LanguageEntry, bool) {
	if c == nil {
		return LanguageEntry{}, false
	}
	i, ok := c.byShort[short]
	if !ok {
		return LanguageEntry{}, false
	}
	return c.language(i), true
}

// AliasesFor returns the accepted route spellings of the language with the given short name.
// An unknown short name yields nil.
func (c *Catalog) AliasesFor(short string) []string {
	l, ok := c.LanguageByShortName(short)
	if !ok {
		return nil
	}
	return l.Aliases
}

// LookupLocalizedTitle returns the title of a story in the language with the given short name.
func (c *Catalog) LookupLocalizedTitle(story, short string) (string, bool) {
	s, ok := c.Story(story)
	if !ok {
		return "", false
	}
	for _, t := range s.Titles {
		if t.Language == short {
			return t.Display, true
		}
	}
	return "", false
}

// Story returns the story with the given identifier.
func (c *Catalog) Story(name string) (Story, bool) {
	if c == nil {
		return Story{}, false
	}
	i, ok := c.byStory[name]
	if !ok {
		return Story{}, false
	}
	s := c.stories[i]
	s.Titles = slices.Clone(s.Titles)
	return s, true
}

// Stories returns all stories in declaration order.
func (c *Catalog) Stories() []Story {
	if c == nil {
		return nil
	}
	out := make([]Story, len(c.stories))
	for i, s := range c.stories {
		s.Titles = slices.Clone(s.Titles)
		out[i] = s
	}
	return out
}

// Languages returns all languages in declaration order.
func (c *Catalog) Languages() []LanguageEntry {
	if c == nil {
		return nil
	}
	out := make([]LanguageEntry, len(c.languages))
	for i := range c.languages {
		out[i] = c.language(i)
	}
	return out
}

func (c *Catalog) language(i int) LanguageEntry {
	l := c.languages[i]
	l.Aliases = slices.Clone(l.Aliases)
	return l
}

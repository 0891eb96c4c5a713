package catalog

import "fmt"

// Warning is a non-fatal data gap found by Validate.
type Warning struct {
	Story    string
	Language string
	Message  string
}

func (w Warning) String() string {
	switch {
	case w.Story != "" && w.Language != "":
		return fmt.Sprintf("%s/%s: %s", w.Story, w.Language, w.Message)
	case w.Story != "":
		return fmt.Sprintf("%s: %s", w.Story, w.Message)
	case w.Language != "":
		return fmt.Sprintf("%s: %s", w.Language, w.Message)
	}
	return w.Message
}

// Validate reports gaps that make routes or titles unreachable. None of them are errors:
// the enumerator skips such combinations and the pages render the missing fields empty.
func (c *Catalog) Validate() []Warning {
	if c == nil {
		return nil
	}
	var out []Warning

	for _, l := range c.languages {
		if len(l.Aliases) == 0 {
			out = append(out, Warning{Language: l.Key, Message: "no route aliases, language cannot appear in routes"})
		}
	}

	for _, s := range c.stories {
		seen := make(map[string]bool, len(s.Titles))
		for _, t := range s.Titles {
			if _, ok := c.byShort[t.Language]; !ok {
				out = append(out, Warning{Story: s.Name, Language: t.Language, Message: "title for unknown language"})
			}
			if seen[t.Language] {
				out = append(out, Warning{Story: s.Name, Language: t.Language, Message: "duplicate title, first one wins"})
			}
			seen[t.Language] = true
		}
		if len(seen) < 2 {
			out = append(out, Warning{Story: s.Name, Message: "fewer than two languages, no routes"})
		}
	}
	return out
}

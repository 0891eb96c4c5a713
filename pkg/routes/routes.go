// Package routes enumerates every pre-rendered page of the site: one route per
// (story, primary language spelling, secondary language spelling) combination.
package routes

import (
	"net/url"
	"strings"

	"poppybuddy/pkg/catalog"
)

// RouteParam identifies one generated page. Primary and Secondary are accepted route
// spellings (aliases), not necessarily canonical keys. Primary never equals Secondary
// in the language they resolve to.
type RouteParam struct {
	StoryName string `json:"story_name"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Path returns the route's path segments joined with "/", unescaped.
func (r RouteParam) Path() string {
	return r.StoryName + "/" + r.Primary + "/" + r.Secondary
}

// URLPath returns the route as an absolute, percent-encoded URL path with a trailing slash.
func (r RouteParam) URLPath() string {
	return "/" + url.PathEscape(r.StoryName) + "/" + url.PathEscape(r.Primary) + "/" + url.PathEscape(r.Secondary) + "/"
}

// Enumerate returns every route for the catalog in story order, then primary language
// order, then secondary language order, then alias order. Pairs where either language
// has no aliases are skipped, as are stories with fewer than two languages.
func Enumerate(cat *catalog.Catalog) []RouteParam {
	var params []RouteParam
	for _, story := range cat.Stories() {
		langs := storyLanguages(story)
		for _, primary := range langs {
			for _, secondary := range langs {
				if primary == secondary {
					continue
				}
				primaryAliases := cat.AliasesFor(primary)
				secondaryAliases := cat.AliasesFor(secondary)
				if len(primaryAliases) == 0 || len(secondaryAliases) == 0 {
					continue
				}
				for _, p := range primaryAliases {
					for _, s := range secondaryAliases {
						params = append(params, RouteParam{
							StoryName: story.Name,
							Primary:   p,
							Secondary: s,
						})
					}
				}
			}
		}
	}
	return params
}

// Count returns the number of routes Enumerate produces, computed from alias counts.
func Count(cat *catalog.Catalog) int {
	total := 0
	for _, story := range cat.Stories() {
		var sizes []int
		sum := 0
		for _, short := range storyLanguages(story) {
			if n := len(cat.AliasesFor(short)); n > 0 {
				sizes = append(sizes, n)
				sum += n
			}
		}
		// Ordered pairs of distinct languages: sum_i n_i * (sum - n_i).
		for _, n := range sizes {
			total += n * (sum - n)
		}
	}
	return total
}

// ForStory filters routes down to one story.
func ForStory(params []RouteParam, story string) []RouteParam {
	var out []RouteParam
	for _, p := range params {
		if p.StoryName == story {
			out = append(out, p)
		}
	}
	return out
}

// storyLanguages returns the distinct short names with a title for the story, in title order.
func storyLanguages(s catalog.Story) []string {
	seen := make(map[string]bool, len(s.Titles))
	out := make([]string, 0, len(s.Titles))
	for _, short := range s.Languages() {
		if seen[short] {
			continue
		}
		seen[short] = true
		out = append(out, short)
	}
	return out
}

// Resolved is a route mapped back onto catalog entries. Fields that miss in the
// catalog are left zero.
type Resolved struct {
	Route          RouteParam
	Story          catalog.Story
	Primary        catalog.LanguageEntry
	Secondary      catalog.LanguageEntry
	PrimaryTitle   string
	SecondaryTitle string
}

// Complete reports whether every lookup for the route succeeded.
func (r Resolved) Complete() bool {
	return r.Story.Name != "" && r.Primary.ShortName != "" && r.Secondary.ShortName != "" &&
		r.PrimaryTitle != "" && r.SecondaryTitle != ""
}

// Resolve maps route tokens to catalog entries. The boolean is false only when
// neither the story nor either language is known.
func Resolve(cat *catalog.Catalog, story, primary, secondary string) (Resolved, bool) {
	res := Resolved{Route: RouteParam{StoryName: story, Primary: primary, Secondary: secondary}}

	s, storyOK := cat.Story(story)
	p, primaryOK := cat.LookupLanguage(primary)
	sec, secondaryOK := cat.LookupLanguage(secondary)
	if storyOK {
		res.Story = s
	}
	if primaryOK {
		res.Primary = p
		res.PrimaryTitle, _ = cat.LookupLocalizedTitle(story, p.ShortName)
	}
	if secondaryOK {
		res.Secondary = sec
		res.SecondaryTitle, _ = cat.LookupLocalizedTitle(story, sec.ShortName)
	}
	return res, storyOK || primaryOK || secondaryOK
}

// ParsePath splits "Story/Primary/Secondary" (leading/trailing slashes allowed,
// segments may be percent-encoded) into a RouteParam.
func ParsePath(p string) (RouteParam, bool) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) != 3 {
		return RouteParam{}, false
	}
	for i, part := range parts {
		dec, err := url.PathUnescape(part)
		if err != nil || dec == "" {
			return RouteParam{}, false
		}
		parts[i] = dec
	}
	return RouteParam{StoryName: parts[0], Primary: parts[1], Secondary: parts[2]}, true
}

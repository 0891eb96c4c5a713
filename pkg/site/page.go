package site

import (
	"time"

	"poppybuddy/pkg/assets"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/routes"
)

// Viewport is the single layout viewport of every page.
const Viewport = "width=device-width, initial-scale=1, maximum-scale=1, user-scalable=no"

// Meta is the layout metadata shared by all pages.
type Meta struct {
	Title       string
	Description string
	Viewport    string
	Lang        string
	StyleURL    string
	ScriptURL   string
	HomeURL     string
	Canonical   string
}

// Page is the view model of one route page. Lookups that miss leave fields empty and
// the template renders nothing for them.
type Page struct {
	Meta  Meta
	Route routes.RouteParam

	Story          string
	PrimaryTitle   string
	SecondaryTitle string

	PrimaryLanguage   string
	SecondaryLanguage string
	PrimaryShort      string
	SecondaryShort    string

	AudioURL string
	CoverURL string
	ShareURL string
	StoryURL string

	SkipSeconds int
	TickMillis  int
}

// HasAudio is false when either language is unknown, so no audio element is emitted.
func (p *Page) HasAudio() bool {
	return p.PrimaryShort != "" && p.SecondaryShort != ""
}

// NewPage builds the view model for a route.
func NewPage(cat *catalog.Catalog, linker assets.Linker, meta Meta, r routes.RouteParam, skip, tick time.Duration) *Page {
	res, _ := routes.Resolve(cat, r.StoryName, r.Primary, r.Secondary)

	p := &Page{
		Meta:              meta,
		Route:             r,
		Story:             r.StoryName,
		PrimaryTitle:      res.PrimaryTitle,
		SecondaryTitle:    res.SecondaryTitle,
		PrimaryLanguage:   res.Primary.Display,
		SecondaryLanguage: res.Secondary.Display,
		PrimaryShort:      res.Primary.ShortName,
		SecondaryShort:    res.Secondary.ShortName,
		CoverURL:          linker.CoverURL(r.StoryName),
		StoryURL:          linker.PageURL("/" + escapeSegment(r.StoryName) + "/"),
		SkipSeconds:       int(skip / time.Second),
		TickMillis:        int(tick / time.Millisecond),
	}
	if p.HasAudio() {
		p.AudioURL = linker.AudioURL(r.StoryName, p.PrimaryShort, p.SecondaryShort)
		p.ShareURL = linker.ShareImageURL(r.StoryName, p.PrimaryShort, p.SecondaryShort)
	}
	if p.SkipSeconds <= 0 {
		p.SkipSeconds = 10
	}
	if p.TickMillis <= 0 {
		p.TickMillis = 100
	}
	return p
}

// StoryCard is one entry of the home page grid.
type StoryCard struct {
	Name     string
	Title    string
	CoverURL string
	URL      string
}

// PairLink links to one language pair of a story.
type PairLink struct {
	Primary   string
	Secondary string
	Label     string
	Title     string
	URL       string
}

// IndexPage is the home page view model.
type IndexPage struct {
	Meta    Meta
	Stories []StoryCard
}

// StoryPage lists the language pairs of one story.
type StoryPage struct {
	Meta  Meta
	Story StoryCard
	Pairs []PairLink
}

// ErrorPage is the 404 view model.
type ErrorPage struct {
	Meta Meta
}

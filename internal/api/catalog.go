package api

import (
	"net/http"

	"poppybuddy/pkg/assets"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/routes"
	"poppybuddy/pkg/site"
)

// CatalogHandler exposes the catalog, the route list and page view models.
type CatalogHandler struct {
	cat     *catalog.Catalog
	linker  assets.Linker
	builder *site.Builder
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog, linker assets.Linker, builder *site.Builder) *CatalogHandler {
	return &CatalogHandler{cat: cat, linker: linker, builder: builder}
}

// StoryResponse describes one story.
type StoryResponse struct {
	Name      string               `json:"name"`
	Titles    []catalog.StoryTitle `json:"titles"`
	CoverURL  string               `json:"cover_url"`
	RouteURLs int                  `json:"routes"`
}

// TitleResponse is a localized title lookup result.
type TitleResponse struct {
	Story    string `json:"story"`
	Language string `json:"language"`
	Title    string `json:"title"`
}

// RouteResponse is one enumerated route.
type RouteResponse struct {
	Path      string `json:"path"`
	URL       string `json:"url"`
	Story     string `json:"story"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// RoutesResponse lists routes.
type RoutesResponse struct {
	Count  int             `json:"count"`
	Routes []RouteResponse `json:"routes"`
}

// PageResponse is the view model of one route page.
type PageResponse struct {
	Route             string `json:"route"`
	Story             string `json:"story"`
	PrimaryTitle      string `json:"primary_title"`
	SecondaryTitle    string `json:"secondary_title"`
	PrimaryLanguage   string `json:"primary_language"`
	SecondaryLanguage string `json:"secondary_language"`
	AudioURL          string `json:"audio_url,omitempty"`
	CoverURL          string `json:"cover_url"`
	ShareURL          string `json:"share_url,omitempty"`
	Complete          bool   `json:"complete"`
}

// HandleLanguages handles GET /api/languages
func (h *CatalogHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cat.Languages())
}

// HandleLanguage handles GET /api/languages/{code}; code may be a key, alias or short name.
func (h *CatalogHandler) HandleLanguage(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.cat.LookupLanguage(r.PathValue("code"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown language")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleStories handles GET /api/stories
func (h *CatalogHandler) HandleStories(w http.ResponseWriter, r *http.Request) {
	all := routes.Enumerate(h.cat)
	stories := h.cat.Stories()
	out := make([]StoryResponse, 0, len(stories))
	for _, s := range stories {
		out = append(out, StoryResponse{
			Name:      s.Name,
			Titles:    s.Titles,
			CoverURL:  h.linker.CoverURL(s.Name),
			RouteURLs: len(routes.ForStory(all, s.Name)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleTitle handles GET /api/stories/{story}/titles/{lang}
func (h *CatalogHandler) HandleTitle(w http.ResponseWriter, r *http.Request) {
	story := r.PathValue("story")
	entry, ok := h.cat.LookupLanguage(r.PathValue("lang"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown language")
		return
	}
	title, ok := h.cat.LookupLocalizedTitle(story, entry.ShortName)
	if !ok {
		writeError(w, http.StatusNotFound, "no title for story and language")
		return
	}
	writeJSON(w, http.StatusOK, TitleResponse{Story: story, Language: entry.ShortName, Title: title})
}

// HandleRoutes handles GET /api/routes, optionally filtered with ?story=
func (h *CatalogHandler) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	params := routes.Enumerate(h.cat)
	if story := r.URL.Query().Get("story"); story != "" {
		params = routes.ForStory(params, story)
	}
	out := RoutesResponse{Count: len(params), Routes: make([]RouteResponse, 0, len(params))}
	for _, p := range params {
		out.Routes = append(out.Routes, RouteResponse{
			Path:      p.Path(),
			URL:       h.linker.PageURL(p.URLPath()),
			Story:     p.StoryName,
			Primary:   p.Primary,
			Secondary: p.Secondary,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandlePage handles GET /api/pages/{story}/{primary}/{secondary}. Partially
// resolvable routes return their view model with empty fields, as the page renders.
func (h *CatalogHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	rp := routes.RouteParam{
		StoryName: r.PathValue("story"),
		Primary:   r.PathValue("primary"),
		Secondary: r.PathValue("secondary"),
	}
	res, ok := routes.Resolve(h.cat, rp.StoryName, rp.Primary, rp.Secondary)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown route")
		return
	}
	p := h.builder.Page(rp)
	writeJSON(w, http.StatusOK, PageResponse{
		Route:             rp.Path(),
		Story:             p.Story,
		PrimaryTitle:      p.PrimaryTitle,
		SecondaryTitle:    p.SecondaryTitle,
		PrimaryLanguage:   p.PrimaryLanguage,
		SecondaryLanguage: p.SecondaryLanguage,
		AudioURL:          p.AudioURL,
		CoverURL:          p.CoverURL,
		ShareURL:          p.ShareURL,
		Complete:          res.Complete(),
	})
}

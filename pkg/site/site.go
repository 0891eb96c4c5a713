// Package site renders the static story site: one player page per enumerated route,
// a story grid, per-story language choosers, a 404 page and a sitemap.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"poppybuddy/pkg/assets"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/ogimage"
	"poppybuddy/pkg/routes"
	"poppybuddy/pkg/store"
)

// Options controls a build.
type Options struct {
	OutputDir    string
	StaticDir    string // copied into the output when it exists
	Origin       string // absolute origin for canonical and sitemap links
	Title        string
	Description  string
	SkipStep     time.Duration
	TickInterval time.Duration
	ShareCards   bool
	Clean        bool
}

// CardRenderer draws a share card PNG.
type CardRenderer interface {
	Render(card ogimage.Card) ([]byte, error)
}

// Report summarizes a build.
type Report struct {
	OutputDir  string            `json:"output_dir"`
	Pages      int               `json:"pages"`
	Stories    int               `json:"stories"`
	ShareCards int               `json:"share_cards"`
	Skipped    int               `json:"skipped"`
	Warnings   []catalog.Warning `json:"warnings,omitempty"`
	Elapsed    time.Duration     `json:"elapsed"`
}

// Builder renders the site for one catalog.
type Builder struct {
	cat      *catalog.Catalog
	linker   assets.Linker
	opts     Options
	manifest store.ManifestStore
	cards    CardRenderer
	tmpl     templates
}

// NewBuilder parses the embedded templates. manifest and cards may be nil.
func NewBuilder(cat *catalog.Catalog, linker assets.Linker, opts Options, manifest store.ManifestStore, cards CardRenderer) (*Builder, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output dir must not be empty")
	}
	if opts.Title == "" {
		opts.Title = "Poppy and Buddy"
	}
	if opts.Description == "" {
		opts.Description = "Read along with Poppy and Buddy as they go on adventures!"
	}
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &Builder{cat: cat, linker: linker, opts: opts, manifest: manifest, cards: cards, tmpl: tmpl}, nil
}

// Meta returns the layout metadata for a page at the given escaped site path.
func (b *Builder) Meta(sitePath string) Meta {
	m := Meta{
		Title:       b.opts.Title,
		Description: b.opts.Description,
		Viewport:    Viewport,
		Lang:        "en",
		StyleURL:    b.linker.StaticURL("player.css"),
		ScriptURL:   b.linker.StaticURL("player.js"),
		HomeURL:     b.linker.PageURL("/"),
	}
	if b.opts.Origin != "" {
		m.Canonical = strings.TrimRight(b.opts.Origin, "/") + b.linker.PageURL(sitePath)
	}
	return m
}

// Page returns the view model for a route.
func (b *Builder) Page(r routes.RouteParam) *Page {
	return NewPage(b.cat, b.linker, b.Meta(r.URLPath()), r, b.opts.SkipStep, b.opts.TickInterval)
}

// RenderPage renders a route page to HTML.
func (b *Builder) RenderPage(r routes.RouteParam) ([]byte, error) {
	return b.tmpl.render("player.html", b.Page(r))
}

// Build writes the whole site into the output directory.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	out := b.opts.OutputDir
	report := &Report{OutputDir: out}

	if b.opts.Clean {
		if err := os.RemoveAll(out); err != nil {
			return nil, fmt.Errorf("failed to clean output dir: %w", err)
		}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	report.Warnings = b.cat.Validate()
	for _, w := range report.Warnings {
		slog.Warn("Catalog gap", "detail", w.String())
	}

	if b.opts.StaticDir != "" {
		if info, err := os.Stat(b.opts.StaticDir); err == nil && info.IsDir() {
			if err := copyTree(os.DirFS(b.opts.StaticDir), out); err != nil {
				return nil, fmt.Errorf("failed to copy static dir: %w", err)
			}
		} else {
			slog.Debug("Static dir not found, skipping", "path", b.opts.StaticDir)
		}
	}
	if err := copyTree(Static(), filepath.Join(out, "static")); err != nil {
		return nil, fmt.Errorf("failed to write player assets: %w", err)
	}

	var params []routes.RouteParam
	for _, r := range routes.Enumerate(b.cat) {
		if !safeSegments(r.StoryName, r.Primary, r.Secondary) {
			slog.Warn("Skipping route with unsafe path segment", "route", r.Path())
			report.Skipped++
			continue
		}
		params = append(params, r)
	}

	pages := make([]*Page, len(params))
	for i, r := range params {
		pages[i] = b.Page(r)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := b.tmpl.render("player.html", p)
			if err != nil {
				return err
			}
			return writeFile(filepath.Join(out, p.Route.StoryName, p.Route.Primary, p.Route.Secondary, "index.html"), data)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to render pages: %w", err)
	}
	report.Pages = len(pages)

	if b.opts.ShareCards && b.cards != nil {
		n, err := b.writeShareCards(ctx, pages)
		if err != nil {
			return nil, err
		}
		report.ShareCards = n
	}

	n, err := b.writeIndexes()
	if err != nil {
		return nil, err
	}
	report.Stories = n

	notFound, err := b.tmpl.render("404.html", ErrorPage{Meta: b.Meta("/404.html")})
	if err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(out, "404.html"), notFound); err != nil {
		return nil, err
	}

	if err := b.writeSitemap(params); err != nil {
		return nil, err
	}

	if b.manifest != nil {
		entries := make([]store.ManifestEntry, 0, len(pages))
		for _, p := range pages {
			entries = append(entries, store.ManifestEntry{
				Path:           p.Route.Path(),
				Story:          p.Route.StoryName,
				PrimaryToken:   p.Route.Primary,
				SecondaryToken: p.Route.Secondary,
				AudioURL:       p.AudioURL,
			})
		}
		if err := b.manifest.ReplaceManifest(ctx, entries); err != nil {
			return nil, fmt.Errorf("failed to record build manifest: %w", err)
		}
	}

	report.Elapsed = time.Since(start)
	slog.Info("Build finished", "pages", report.Pages, "stories", report.Stories, "share_cards", report.ShareCards, "elapsed", report.Elapsed)
	return report, nil
}

// writeShareCards renders one card per distinct story and language pair; alias
// routes of the same pair share it.
func (b *Builder) writeShareCards(ctx context.Context, pages []*Page) (int, error) {
	done := make(map[string]bool)
	skipped := 0
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if !p.HasAudio() {
			continue
		}
		rel := assets.SharePath(p.Story, p.PrimaryShort, p.SecondaryShort)
		if done[rel] {
			continue
		}
		done[rel] = true

		card := ogimage.Card{
			Story:             p.Story,
			PrimaryTitle:      p.PrimaryTitle,
			SecondaryTitle:    p.SecondaryTitle,
			PrimaryLanguage:   p.PrimaryLanguage,
			SecondaryLanguage: p.SecondaryLanguage,
		}
		if b.opts.StaticDir != "" {
			card.CoverPath = filepath.Join(b.opts.StaticDir, filepath.FromSlash(assets.CoverPath(p.Story)))
		}
		data, err := b.cards.Render(card)
		if errors.Is(err, ogimage.ErrMissingGlyphs) {
			slog.Warn("Skipping share card, set site.font_path to draw it", "card", rel, "error", err)
			skipped++
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to render share card %s: %w", rel, err)
		}
		if err := writeFile(filepath.Join(b.opts.OutputDir, filepath.FromSlash(rel)), data); err != nil {
			return 0, err
		}
	}
	return len(done) - skipped, nil
}

// writeIndexes renders the story grid and one chooser page per story.
func (b *Builder) writeIndexes() (int, error) {
	index := IndexPage{Meta: b.Meta("/")}
	count := 0
	for _, s := range b.cat.Stories() {
		if !safeSegments(s.Name) {
			continue
		}
		card := b.storyCard(s)
		index.Stories = append(index.Stories, card)

		page := StoryPage{Meta: b.Meta(storySitePath(s.Name)), Story: card, Pairs: b.pairLinks(s)}
		data, err := b.tmpl.render("story.html", page)
		if err != nil {
			return 0, err
		}
		if err := writeFile(filepath.Join(b.opts.OutputDir, s.Name, "index.html"), data); err != nil {
			return 0, err
		}
		count++
	}

	data, err := b.tmpl.render("index.html", index)
	if err != nil {
		return 0, err
	}
	if err := writeFile(filepath.Join(b.opts.OutputDir, "index.html"), data); err != nil {
		return 0, err
	}
	return count, nil
}

func (b *Builder) storyCard(s catalog.Story) StoryCard {
	title := s.Name
	if len(s.Titles) > 0 && s.Titles[0].Display != "" {
		title = s.Titles[0].Display
	}
	return StoryCard{
		Name:     s.Name,
		Title:    title,
		CoverURL: b.linker.CoverURL(s.Name),
		URL:      b.linker.PageURL(storySitePath(s.Name)),
	}
}

// pairLinks lists every ordered language pair of the story using one route
// spelling per language: the canonical key when it is an accepted alias.
func (b *Builder) pairLinks(s catalog.Story) []PairLink {
	type lang struct {
		entry catalog.LanguageEntry
		token string
		title string
	}
	var langs []lang
	seen := make(map[string]bool)
	for _, t := range s.Titles {
		if seen[t.Language] {
			continue
		}
		seen[t.Language] = true
		entry, ok := b.cat.LanguageByShortName(t.Language)
		if !ok || len(entry.Aliases) == 0 {
			continue
		}
		token := entry.Aliases[0]
		if slices.Contains(entry.Aliases, entry.Key) {
			token = entry.Key
		}
		langs = append(langs, lang{entry: entry, token: token, title: t.Display})
	}

	var out []PairLink
	for _, p := range langs {
		for _, sec := range langs {
			if p.entry.ShortName == sec.entry.ShortName {
				continue
			}
			r := routes.RouteParam{StoryName: s.Name, Primary: p.token, Secondary: sec.token}
			out = append(out, PairLink{
				Primary:   p.token,
				Secondary: sec.token,
				Label:     p.entry.Display + " / " + sec.entry.Display,
				Title:     p.title + " / " + sec.title,
				URL:       b.linker.PageURL(r.URLPath()),
			})
		}
	}
	return out
}

func (b *Builder) writeSitemap(params []routes.RouteParam) error {
	paths := []string{b.linker.PageURL("/")}
	for _, s := range b.cat.Stories() {
		if safeSegments(s.Name) {
			paths = append(paths, b.linker.PageURL(storySitePath(s.Name)))
		}
	}
	for _, r := range params {
		paths = append(paths, b.linker.PageURL(r.URLPath()))
	}

	var buf bytes.Buffer
	if err := writeSitemap(&buf, b.opts.Origin, paths); err != nil {
		return fmt.Errorf("failed to encode sitemap: %w", err)
	}
	return writeFile(filepath.Join(b.opts.OutputDir, "sitemap.xml"), buf.Bytes())
}

func storySitePath(story string) string {
	return "/" + escapeSegment(story) + "/"
}

func escapeSegment(s string) string {
	return url.PathEscape(s)
}

// safeSegments rejects tokens that cannot be used verbatim as a directory name.
func safeSegments(segs ...string) bool {
	for _, s := range segs {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return false
		}
	}
	return true
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// copyTree copies every regular file of src into dst, overwriting existing files.
func copyTree(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		in, err := src.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		outFile, err := os.Create(target)
		if err != nil {
			return err
		}
		if _, err := io.Copy(outFile, in); err != nil {
			outFile.Close()
			return err
		}
		return outFile.Close()
	})
}

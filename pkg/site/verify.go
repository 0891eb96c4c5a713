package site

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"poppybuddy/pkg/routes"
)

// Problem is a mismatch between a generated page and its route.
type Problem struct {
	Route   string `json:"route"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return p.Route + ": " + p.Message
}

// Verify re-reads the generated page of every route and checks that the audio
// source and the cover image point at the expected assets.
func (b *Builder) Verify(params []routes.RouteParam) ([]Problem, error) {
	var problems []Problem
	for _, r := range params {
		path := filepath.Join(b.opts.OutputDir, r.StoryName, r.Primary, r.Secondary, "index.html")
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				problems = append(problems, Problem{Route: r.Path(), Message: "page missing"})
				continue
			}
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		doc, err := html.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		want := b.Page(r)
		audio := findElement(doc, "audio", "")
		switch {
		case want.HasAudio() && audio == nil:
			problems = append(problems, Problem{Route: r.Path(), Message: "audio element missing"})
		case want.HasAudio() && attr(audio, "src") != want.AudioURL:
			problems = append(problems, Problem{Route: r.Path(), Message: fmt.Sprintf("audio src %q, want %q", attr(audio, "src"), want.AudioURL)})
		case !want.HasAudio() && audio != nil:
			problems = append(problems, Problem{Route: r.Path(), Message: "unexpected audio element"})
		}

		cover := findElement(doc, "img", "cover-art")
		if cover == nil {
			problems = append(problems, Problem{Route: r.Path(), Message: "cover image missing"})
		} else if got := attr(cover, "src"); got != want.CoverURL {
			problems = append(problems, Problem{Route: r.Path(), Message: fmt.Sprintf("cover src %q, want %q", got, want.CoverURL)})
		}
	}
	return problems, nil
}

// findElement returns the first element with the tag and, when class is set, that class.
func findElement(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		if class == "" || slices.Contains(strings.Fields(attr(n, "class")), class) {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

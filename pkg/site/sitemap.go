package site

import (
	"encoding/xml"
	"io"
	"strings"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// writeSitemap writes the page list as a sitemap. Locations are made absolute when
// origin is set.
func writeSitemap(w io.Writer, origin string, paths []string) error {
	set := urlSet{XMLNS: sitemapNS, URLs: make([]sitemapURL, 0, len(paths))}
	origin = strings.TrimRight(origin, "/")
	for _, p := range paths {
		set.URLs = append(set.URLs, sitemapURL{Loc: origin + p})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

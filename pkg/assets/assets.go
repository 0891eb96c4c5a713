// Package assets builds the URLs of the files a page links to. The audio naming
// scheme is the contract with the content host and must not change.
package assets

import (
	"net/url"
	"strings"
)

// DefaultContentHost serves the story audio.
const DefaultContentHost = "content.poppyandbuddy.com"

// Linker builds asset URLs for one deployment.
type Linker struct {
	// ContentHost is the host (optionally with scheme) serving /audio/.
	ContentHost string
	// BasePath prefixes site-local assets such as cover art, e.g. "" or "/stories".
	BasePath string
}

// NewLinker returns a Linker with the default content host when host is empty.
func NewLinker(host, basePath string) Linker {
	if host == "" {
		host = DefaultContentHost
	}
	return Linker{ContentHost: host, BasePath: basePath}
}

// AudioFile returns the audio file name: <Story>_<Primary>_<Secondary>.mp3.
func AudioFile(story, primaryShort, secondaryShort string) string {
	return story + "_" + primaryShort + "_" + secondaryShort + ".mp3"
}

// AudioURL returns https://<content-host>/audio/<Story>_<Primary>_<Secondary>.mp3.
func (l Linker) AudioURL(story, primaryShort, secondaryShort string) string {
	host := l.ContentHost
	if host == "" {
		host = DefaultContentHost
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/") + "/audio/" + url.PathEscape(AudioFile(story, primaryShort, secondaryShort))
}

// CoverPath returns the site-relative path of the story cover, without base path.
func CoverPath(story string) string {
	return "img/cover/Cover" + story + ".png"
}

// CoverURL returns <base>/img/cover/Cover<Story>.png.
func (l Linker) CoverURL(story string) string {
	return l.local(CoverPath(story))
}

// SharePath returns the site-relative path of a route's share card.
func SharePath(story, primaryShort, secondaryShort string) string {
	return "img/share/" + story + "_" + primaryShort + "_" + secondaryShort + ".png"
}

// ShareImageURL returns <base>/img/share/<Story>_<Primary>_<Secondary>.png.
func (l Linker) ShareImageURL(story, primaryShort, secondaryShort string) string {
	return l.local(SharePath(story, primaryShort, secondaryShort))
}

// StaticURL returns the URL of an embedded static asset (player script, styles).
func (l Linker) StaticURL(name string) string {
	return l.local("static/" + name)
}

// PageURL prefixes a site path (already escaped) with the base path.
func (l Linker) PageURL(p string) string {
	return l.local(strings.TrimPrefix(p, "/"))
}

func (l Linker) local(rel string) string {
	base := strings.TrimRight(l.BasePath, "/")
	return base + "/" + rel
}

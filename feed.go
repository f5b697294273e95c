package folio

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/eringen/folio/post"
	"github.com/eringen/folio/views"
)

const atomNS = "http://www.w3.org/2005/Atom"

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	XMLNS   string      `xml:"xmlns,attr"`
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Link    []atomLink  `xml:"link"`
	Updated string      `xml:"updated"`
	Author  *atomAuthor `xml:"author,omitempty"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	ID         string         `xml:"id"`
	Link       atomLink       `xml:"link"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Categories []atomCategory `xml:"category"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// latestDate returns the newest date among entries, or the zero date for an
// empty set.
func latestDate(entries []CacheEntry) post.Date {
	var latest post.Date
	for _, e := range entries {
		if e.Metadata.Date.After(latest) {
			latest = e.Metadata.Date
		}
	}
	return latest
}

// RenderFeed renders the Atom feed of entries in the given order. An empty
// set produces no output at all.
func RenderFeed(site views.SiteConfig, entries []CacheEntry) ([]byte, error) {
	latest := latestDate(entries)
	if latest.IsZero() {
		return nil, nil
	}

	items := make([]atomEntry, 0, len(entries))
	for _, e := range entries {
		link := AbsoluteURL(site.URL, e.URL)
		published := e.Metadata.Date.Timestamp()
		cats := make([]atomCategory, 0, len(e.Metadata.Categories))
		for _, c := range e.Metadata.Categories {
			cats = append(cats, atomCategory{Term: c})
		}
		items = append(items, atomEntry{
			Title:      e.Metadata.Title,
			ID:         link,
			Link:       atomLink{Href: link},
			Published:  published,
			Updated:    published,
			Categories: cats,
		})
	}

	home := BuildURL(site.URL)
	feed := atomFeed{
		XMLNS: atomNS,
		Title: site.Name,
		ID:    home,
		Link: []atomLink{
			{Href: home},
			{Href: AbsoluteURL(site.URL, "/feed.xml"), Rel: "self"},
		},
		Updated: latest.Timestamp(),
		Entries: items,
	}
	if site.Author != "" {
		feed.Author = &atomAuthor{Name: site.Author}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return nil, fmt.Errorf("folio: encode feed: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

package views

// SiteConfig holds the site-wide settings that page templates read.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Keywords    string
}

// PostHead is the field bundle for the top of a post page.
type PostHead struct {
	Site      SiteConfig
	Title     string
	URL       string
	Date      string // YYYY-MM-DD
	Keywords  string
	UsesCode  bool
	Languages []string
}

// PostSummary is a post as it appears in listings. It mirrors the cache
// entry type of the root package to avoid an import cycle.
type PostSummary struct {
	Title      string
	URL        string
	Date       string // YYYY-MM-DD
	Year       int
	Month      string
	Day        int
	Categories []string
	External   bool
}

// Reference is one rendered bibliography entry.
type Reference struct {
	Number  int
	Content string
}

package folio

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/eringen/folio/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// RenderSitemap lists the home page, the archive and every post that has a
// page on this site. Headless posts are skipped.
func RenderSitemap(site views.SiteConfig, entries []CacheEntry) ([]byte, error) {
	latest := latestDate(entries)
	lastmod := ""
	if !latest.IsZero() {
		lastmod = latest.ISO()
	}
	urls := []sitemapURL{
		{Loc: BuildURL(site.URL), LastMod: lastmod},
		{Loc: AbsoluteURL(site.URL, "/archive.html"), LastMod: lastmod},
	}
	for _, e := range entries {
		if e.Headless() {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     AbsoluteURL(site.URL, e.URL),
			LastMod: e.Metadata.Date.ISO(),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(sitemap); err != nil {
		return nil, fmt.Errorf("folio: encode sitemap: %w", err)
	}
	return buf.Bytes(), nil
}

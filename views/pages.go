package views

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

func head(site SiteConfig, meta PageMeta, extra string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/>`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
	title := site.Name
	if meta.Title != "" && meta.Title != site.Name {
		title = meta.Title + " | " + site.Name
	}
	b.WriteString("<title>" + esc(title) + "</title>")
	if meta.Description != "" {
		b.WriteString(`<meta name="description" content="` + esc(meta.Description) + `"/>`)
	}
	if meta.Keywords != "" {
		b.WriteString(`<meta name="keywords" content="` + esc(meta.Keywords) + `"/>`)
	}
	if meta.URL != "" {
		canonical := buildURL(site.URL, meta.URL)
		b.WriteString(`<link rel="canonical" href="` + esc(canonical) + `"/>`)
		b.WriteString(`<meta property="og:url" content="` + esc(canonical) + `"/>`)
	}
	b.WriteString(`<meta property="og:title" content="` + esc(title) + `"/>`)
	if meta.OGType != "" {
		b.WriteString(`<meta property="og:type" content="` + esc(meta.OGType) + `"/>`)
	}
	b.WriteString(`<link rel="alternate" type="application/atom+xml" href="/feed.xml"/>`)
	b.WriteString(`<link rel="stylesheet" href="/static/style.css"/>`)
	b.WriteString(extra)
	b.WriteString("</head><body>")
	b.WriteString(`<header class="site"><a href="/">` + esc(site.Name) + `</a><nav><a href="/archive.html">Archive</a> <a href="/feed.xml">Feed</a></nav></header>`)
	return b.String()
}

// PostHeader opens a post page. Syntax highlighting assets are only
// referenced when the post contains code.
func PostHeader(h PostHead) templ.Component {
	var extra strings.Builder
	extra.WriteString(`<script type="application/ld+json">` + BlogPostingJsonLD(h) + `</script>`)
	if h.UsesCode {
		extra.WriteString(`<link rel="stylesheet" href="/static/highlight/style.css"/>`)
		extra.WriteString(`<script src="/static/highlight/highlight.js" defer></script>`)
		for _, lang := range h.Languages {
			if lang == "plaintext" {
				continue
			}
			extra.WriteString(`<script src="/static/highlight/languages/` + esc(lang) + `.js" defer></script>`)
		}
	}
	meta := PageMeta{Title: h.Title, URL: h.URL, OGType: "article", Keywords: h.Keywords}
	return component(head(h.Site, meta, extra.String()), `<main><article class="post">`)
}

func Headline(title string) templ.Component {
	return component("<h1>", esc(title), "</h1>")
}

func Categories(categories []string, day int, month string, year int) templ.Component {
	var b strings.Builder
	b.WriteString(`<div class="post-meta"><time>` + strconv.Itoa(day) + " " + esc(month) + " " + strconv.Itoa(year) + `</time><ul class="categories">`)
	for _, c := range categories {
		b.WriteString("<li>" + esc(c) + "</li>")
	}
	b.WriteString("</ul></div>")
	return component(b.String())
}

func PostFooter() templ.Component {
	return component(`</article></main><footer class="site"><a href="/">Home</a></footer></body></html>`)
}

func postList(b *strings.Builder, posts []PostSummary) {
	b.WriteString(`<ul class="posts">`)
	for _, p := range posts {
		b.WriteString(`<li><time datetime="` + esc(p.Date) + `">` + esc(p.Date) + `</time> `)
		b.WriteString(`<a href="` + esc(p.URL) + `"`)
		if p.External {
			b.WriteString(` rel="noopener" target="_blank"`)
		}
		b.WriteString(">" + esc(p.Title) + "</a>")
		if len(p.Categories) > 0 {
			b.WriteString(` <span class="categories">` + esc(JoinCategories(p.Categories)) + `</span>`)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
}

// Index is the landing page.
func Index(site SiteConfig, posts []PostSummary) templ.Component {
	var b strings.Builder
	extra := `<script type="application/ld+json">` + WebsiteJsonLD(site) + `</script>`
	b.WriteString(head(site, PageMeta{Title: site.Name, Description: site.Description, URL: "/", OGType: "website"}, extra))
	b.WriteString(`<main class="index">`)
	if site.Description != "" {
		b.WriteString(`<p class="lead">` + esc(site.Description) + `</p>`)
	}
	postList(&b, posts)
	b.WriteString(`<p><a href="/archive.html">All posts</a></p></main></body></html>`)
	return component(b.String())
}

// Archive lists every post grouped by year. posts must be sorted newest first.
func Archive(site SiteConfig, posts []PostSummary) templ.Component {
	var b strings.Builder
	b.WriteString(head(site, PageMeta{Title: "Archive", URL: "/archive.html", OGType: "website"}, ""))
	b.WriteString(`<main class="archive"><h1>Archive</h1>`)
	for start := 0; start < len(posts); {
		year := posts[start].Year
		end := start
		for end < len(posts) && posts[end].Year == year {
			end++
		}
		y := strconv.Itoa(year)
		b.WriteString(`<section id="year-` + y + `"><h2>` + y + `</h2>`)
		postList(&b, posts[start:end])
		b.WriteString("</section>")
		start = end
	}
	b.WriteString("</main></body></html>")
	return component(b.String())
}

func NotFound(site SiteConfig) templ.Component {
	return component(
		head(site, PageMeta{Title: "Not found"}, ""),
		`<main class="not-found"><h1>404</h1><p>This page does not exist.</p><p><a href="/">Back home</a></p></main></body></html>`,
	)
}

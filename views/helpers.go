package views

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"
)

// buildURL joins path segments onto a base URL.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) == 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// JoinCategories formats categories as a comma-separated keyword list.
func JoinCategories(categories []string) string {
	return strings.Join(categories, ", ")
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(h PostHead) string {
	postURL := buildURL(h.Site.URL, h.URL)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      h.Title,
		"datePublished": h.Date,
		"url":           postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  h.Site.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if h.Site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  h.Site.Author,
		}
	}
	if h.Keywords != "" {
		data["keywords"] = h.Keywords
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// component adapts a sequence of already-escaped fragments into a templ
// component.
func component(parts ...string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func esc(s string) string {
	return templ.EscapeString(s)
}

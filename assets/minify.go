package assets

import (
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"
)

const (
	mediaCSS  = "text/css"
	mediaHTML = "text/html"
	mediaJS   = "application/javascript"
	mediaJSON = "application/json"
	mediaSVG  = "image/svg+xml"
	mediaXML  = "application/xml"
)

var minifyTypes = map[string]string{
	".css":  mediaCSS,
	".html": mediaHTML,
	".htm":  mediaHTML,
	".js":   mediaJS,
	".mjs":  mediaJS,
	".json": mediaJSON,
	".svg":  mediaSVG,
	".xml":  mediaXML,
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaHTML, html.Minify)
	m.AddFunc(mediaJS, js.Minify)
	m.AddFunc(mediaJSON, json.Minify)
	m.AddFunc(mediaSVG, svg.Minify)
	m.AddFunc(mediaXML, xml.Minify)
	return m
}

// minifiable returns the media type used to minify name.
func minifiable(name string) (string, bool) {
	mediatype, ok := minifyTypes[strings.ToLower(filepath.Ext(name))]
	return mediatype, ok
}

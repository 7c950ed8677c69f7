// Package assets embeds the painting page and builds it into a single HTML document.
package assets

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

var (
	//go:embed index.html.tpl
	indexTemplate string

	//go:embed style.css
	styleCSS string

	//go:embed script.js
	scriptJS string

	//go:embed favicon.svg
	faviconSVG string
)

// PageData is substituted into the page template.
type PageData struct {
	CSS string
	JS  string
}

// Minifier returns a minifier for every asset type of the page.
func Minifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// Index renders the page with inlined CSS and JS, minified when requested.
func Index(minified bool) ([]byte, error) {
	m := Minifier()

	cssOut, jsOut := styleCSS, scriptJS
	if minified {
		var err error
		if cssOut, err = m.String("text/css", styleCSS); err != nil {
			return nil, err
		}
		if jsOut, err = m.String("text/javascript", scriptJS); err != nil {
			return nil, err
		}
	}

	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, PageData{CSS: cssOut, JS: jsOut}); err != nil {
		return nil, err
	}

	if !minified {
		return buf.Bytes(), nil
	}

	return m.Bytes("text/html", buf.Bytes())
}

// Favicon returns the site icon.
func Favicon(minified bool) ([]byte, error) {
	if !minified {
		return []byte(faviconSVG), nil
	}
	return Minifier().Bytes("image/svg+xml", []byte(faviconSVG))
}

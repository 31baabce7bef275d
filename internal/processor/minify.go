package processor

import (
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

// Media types understood by the builtin minifiers.
const (
	MediaTypeCSS = "text/css"
	MediaTypeJS  = "application/javascript"
)

// Minifier minifies text of a single media type.
type Minifier struct {
	mediaType string
	m         *minify.M
}

// NewMinifier returns a minifier for mediaType.
func NewMinifier(mediaType string) *Minifier {
	m := minify.New()
	m.AddFunc(MediaTypeCSS, css.Minify)
	m.AddFunc(MediaTypeJS, js.Minify)
	return &Minifier{mediaType: mediaType, m: m}
}

// Process minifies text.
func (mn *Minifier) Process(_ context.Context, text string, _ Input, _ Env) (string, error) {
	return mn.m.String(mn.mediaType, text)
}

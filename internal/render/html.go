// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// HTML converts the artifact's Markdown to an HTML fragment.
// Per prd006-presentation R3.2.
func (a *Artifact) HTML() string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(a.Markdown))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.Render(doc, renderer))
}

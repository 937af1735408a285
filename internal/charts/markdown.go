package charts

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// markdownToHTML renders an upstream message body. DONKI bodies are markdown;
// raw HTML inside them is dropped and only http, https, ftp and mailto links
// stay clickable.
func markdownToHTML(text string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(text))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML | html.Safelink | html.NofollowLinks,
	})
	return template.HTML(markdown.Render(doc, renderer))
}

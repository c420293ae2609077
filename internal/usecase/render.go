package usecase

import (
	"fmt"
	"strings"

	"github.com/mailgun/raymond/v2"
	"golang.org/x/net/html"

	"github.com/lunapapa-finland/JSON-resume/internal/helpers"
	"github.com/lunapapa-finland/JSON-resume/internal/partials"
)

// RenderHTML compiles src once and executes it against data. Helpers and
// partials are attached to this template only.
func RenderHTML(src string, data interface{}, h *helpers.Registry, p *partials.Registry) (out string, err error) {
	tpl, err := raymond.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	// raymond re-panics on anything that is not an error value
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("execute template: %v", r)
		}
	}()
	if h != nil {
		tpl.RegisterHelpers(h.Funcs())
	}
	if p != nil {
		tpl.RegisterPartials(p.Sources())
	}

	out, err = tpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return out, nil
}

// InlineCSS places css in a <style> element at the top of the document head
// so a saved page renders without its external stylesheet.
func InlineCSS(doc, css string) string {
	if css == "" {
		return doc
	}
	block := "<style>" + css + "</style>"

	z := html.NewTokenizer(strings.NewReader(doc))
	offset, afterHTML := 0, -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		n := len(z.Raw())
		if tt == html.StartTagToken {
			name, _ := z.TagName()
			switch string(name) {
			case "head":
				at := offset + n
				return doc[:at] + block + doc[at:]
			case "html":
				afterHTML = offset + n
			case "body":
				if afterHTML >= 0 {
					return doc[:afterHTML] + "<head>" + block + "</head>" + doc[afterHTML:]
				}
				return block + doc
			}
		}
		offset += n
	}
	if afterHTML >= 0 {
		return doc[:afterHTML] + "<head>" + block + "</head>" + doc[afterHTML:]
	}
	return block + doc
}

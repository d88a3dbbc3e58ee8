// Package refimage finds, downloads and normalizes the reference images a modify command works from.
package refimage

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var imgSrcPattern = regexp.MustCompile(`(?i)<img\b[^>]*?\bsrc\s*=\s*["']([^"']+)["']`)

// ExtractURLs returns the http(s) image URLs referenced by markdown, in order of appearance and without duplicates.
// Both ![alt](url) images and raw <img src> tags are recognized.
func ExtractURLs(markdown string) []string {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	seen := make(map[string]bool)
	var urls []string
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || seen[raw] || !isHTTP(raw) {
			return
		}
		seen[raw] = true
		urls = append(urls, raw)
	}
	addHTML := func(html string) {
		for _, m := range imgSrcPattern.FindAllStringSubmatch(html, -1) {
			add(m[1])
		}
	}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			add(string(node.Destination))
		case *ast.HTMLBlock:
			var b strings.Builder
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				b.Write(segment.Value(source))
			}
			addHTML(b.String())
		case *ast.RawHTML:
			var b strings.Builder
			for i := 0; i < node.Segments.Len(); i++ {
				segment := node.Segments.At(i)
				b.Write(segment.Value(source))
			}
			addHTML(b.String())
		}
		return ast.WalkContinue, nil
	})
	return urls
}

func isHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

package article

import (
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
)

const summaryLength = 200

var (
	headingRegexp = regexp.MustCompile(`<(h[23])>([^<]+)</h[23]>`)
	slugRegexp    = regexp.MustCompile(`[^a-z0-9]+`)
	tagRegexp     = regexp.MustCompile(`<[^>]*>`)
	spaceRegexp   = regexp.MustCompile(`\s+`)
)

// RenderMarkdown converts article markdown to html,
// h2/h3 headings get an anchor id
func RenderMarkdown(md string) string {
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	out := string(markdown.ToHTML([]byte(md), nil, renderer))

	return headingRegexp.ReplaceAllStringFunc(out, func(h string) string {
		m := headingRegexp.FindStringSubmatch(h)
		return `<` + m[1] + ` id="` + headingID(m[2]) + `">` + m[2] + `</` + m[1] + `>`
	})
}

func headingID(title string) string {
	slug := slugRegexp.ReplaceAllString(strings.ToLower(stdhtml.UnescapeString(title)), "-")
	return "header-" + strings.Trim(slug, "-")
}

// Summarize returns the first n runes of the plain text of rendered html
func Summarize(renderedHTML string, n int) string {
	text := stdhtml.UnescapeString(tagRegexp.ReplaceAllString(renderedHTML, " "))
	text = strings.TrimSpace(spaceRegexp.ReplaceAllString(text, " "))
	return truncate(text, n)
}

// truncate truncate string to n runes
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	var count int
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}

	return s
}

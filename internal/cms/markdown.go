package cms

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

	contentPolicy = newContentHTMLPolicy()
	textPolicy    = bluemonday.StrictPolicy()
)

// Render converts markdown to sanitized HTML safe for templates.
func Render(src string) (template.HTML, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(strings.TrimSpace(contentPolicy.Sanitize(buf.String()))), nil
}

// MustRender is Render for trusted embedded content; a conversion failure renders nothing.
func MustRender(src string) template.HTML {
	out, err := Render(src)
	if err != nil {
		return ""
	}
	return out
}

// PlainText strips all markup from user-supplied text. Entities are decoded again so
// templates escape the result exactly once.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func newContentHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders template descriptions to HTML using goldmark.
// Descriptions are user supplied, so raw HTML is never passed through.
package markdown

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,         // tables, strikethrough, autolinks, task lists
		extension.Typographer, // smart quotes and dashes
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
	goldmark.WithRendererOptions(
		ghtml.WithHardWraps(),
		ghtml.WithXHTML(),
	),
)

// ToHTML converts description Markdown into HTML. Embedded raw HTML is
// omitted from the output.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render is ToHTML for display paths: on a conversion error it falls back
// to the escaped source in a paragraph.
func Render(source string) string {
	out, err := ToHTML(source)
	if err != nil {
		return "<p>" + html.EscapeString(source) + "</p>"
	}
	return out
}

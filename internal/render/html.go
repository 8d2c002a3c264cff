package render

import (
	"html"
	"strings"

	"github.com/Skufu/meddev/internal/reasoning"
)

// Section is one heading/content pair in display order.
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Sections returns the parsed sections in canonical order, or nil when raw
// does not parse.
func Sections(raw string) []Section {
	parsed, ok := reasoning.ParseSections(raw)
	if !ok {
		return nil
	}
	out := make([]Section, 0, len(reasoning.Headings))
	for _, h := range reasoning.Headings {
		out = append(out, Section{Heading: string(h), Content: parsed[h]})
	}
	return out
}

// HTML renders output for the result card. Parsed output gets one block per
// section; anything else is shown escaped with newlines turned into <br>.
func HTML(raw string) string {
	sections := Sections(raw)
	if sections == nil {
		safe := strings.ReplaceAll(html.EscapeString(raw), "\n", "<br>")
		return "<div class='analysis-section'>" + safe + "</div>"
	}
	var b strings.Builder
	for _, s := range sections {
		b.WriteString("<div class='analysis-section'><strong>")
		b.WriteString(html.EscapeString(s.Heading))
		b.WriteString("</strong> - ")
		b.WriteString(html.EscapeString(s.Content))
		b.WriteString("</div>")
	}
	return b.String()
}

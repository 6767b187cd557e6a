package oshify

import "strings"

// Style describes the expression that replaces a localized literal.
// Empty fields fall back to DefaultStyle.
type Style struct {
	// Getter is the property read on the id literal.
	Getter string
	// Format is the method called with the placeholders, if any.
	Format string
}

// DefaultStyle renders '<id>'.localized and '<id>'.localized.format(...).
var DefaultStyle = Style{Getter: "localized", Format: "format"}

// Render formats a reference to the message id, passing the placeholders
// verbatim and in order.
func (s Style) Render(id string, placeholders []string) string {
	getter, format := s.Getter, s.Format
	if getter == "" {
		getter = DefaultStyle.Getter
	}
	if format == "" {
		format = DefaultStyle.Format
	}

	var b strings.Builder
	b.WriteString("'")
	b.WriteString(id)
	b.WriteString("'.")
	b.WriteString(getter)
	if len(placeholders) > 0 {
		b.WriteString(".")
		b.WriteString(format)
		b.WriteString("(")
		b.WriteString(strings.Join(placeholders, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Render is DefaultStyle.Render.
func Render(id string, placeholders []string) string {
	return DefaultStyle.Render(id, placeholders)
}

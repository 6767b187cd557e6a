// Package placeholder converts an interpolated string literal into a
// positional template and the list of expressions it interpolates.
//
// Two expression shapes are recognised inside the literal body:
//
//	${EXPR}   EXPR is any non-empty text not containing '}'
//	$TOKEN    TOKEN is a maximal run of non-whitespace characters
//
// Every occurrence is replaced by the marker "{}".
package placeholder

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Marker is substituted for every interpolation in a template.
const Marker = "{}"

// Quoted reports whether s is delimited by a matching pair of single or
// double quotes.
func Quoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	q := s[0]
	return (q == '\'' || q == '"') && s[len(s)-1] == q
}

// Extract strips the surrounding quotes from literal and returns the
// normalized template together with the interpolated expressions, in order
// of appearance. The caller must check Quoted first.
func Extract(literal string) (template string, placeholders []string) {
	var body string
	if len(literal) >= 2 {
		body = literal[1 : len(literal)-1]
	}
	return Normalize(body)
}

// Normalize is Extract for an already unquoted body.
func Normalize(body string) (template string, placeholders []string) {
	var b strings.Builder
	b.Grow(len(body))

	s := scanner{src: body}
	for {
		tok := s.next()
		switch tok.kind {
		case eof:
			return b.String(), placeholders
		case text:
			b.WriteString(tok.val)
		case braced, bare:
			b.WriteString(Marker)
			placeholders = append(placeholders, tok.val)
		}
	}
}

// CountMarkers returns the number of markers in template.
func CountMarkers(template string) int {
	return strings.Count(template, Marker)
}

type kind int

const (
	eof kind = iota
	text
	braced
	bare
)

type token struct {
	kind kind
	val  string
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) next() token {
	if s.pos >= len(s.src) {
		return token{kind: eof}
	}
	rest := s.src[s.pos:]

	if rest[0] != '$' {
		n := strings.IndexByte(rest, '$')
		if n < 0 {
			n = len(rest)
		}
		s.pos += n
		return token{kind: text, val: rest[:n]}
	}

	if strings.HasPrefix(rest, "${") {
		// the content must be at least one character long
		if end := strings.IndexByte(rest[2:], '}'); end > 0 {
			s.pos += 2 + end + 1
			return token{kind: braced, val: rest[2 : 2+end]}
		}
	}

	n := 1
	for n < len(rest) {
		r, size := utf8.DecodeRuneInString(rest[n:])
		if isSpace(r) {
			break
		}
		n += size
	}
	if n == 1 {
		// a lone sigil is ordinary text
		s.pos++
		return token{kind: text, val: "$"}
	}
	s.pos += n

	val := rest[1:n]
	// "${}" and friends fall through to the bare shape; they still lose
	// their braces.
	if len(val) >= 2 && val[0] == '{' && val[len(val)-1] == '}' {
		val = val[1 : len(val)-1]
	}
	return token{kind: bare, val: val}
}

// isSpace matches the ECMAScript \s class.
func isSpace(r rune) bool {
	switch r {
	case '\ufeff':
		return true
	case '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}

package tgui

import (
	"strings"
	"unicode/utf8"
)

// TruncRunes keeps the first n runes of s and appends "…" when something
// was cut.
func TruncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	cut := 0
	for i, r := range s {
		count++
		if count == n {
			cut = i + utf8.RuneLen(r)
			continue
		}
		if count > n {
			if cut <= 0 {
				cut = i
			}
			return s[:cut] + "…"
		}
	}
	return s
}

// Doc accumulates message lines. The zero value is ready to use.
type Doc struct {
	b strings.Builder
}

// Line appends one line of safe HTML.
func (d *Doc) Line(h H) *Doc {
	d.b.WriteString(string(h))
	d.b.WriteByte('\n')
	return d
}

// Blank appends an empty line.
func (d *Doc) Blank() *Doc {
	d.b.WriteByte('\n')
	return d
}

// Text appends h without a line break.
func (d *Doc) Text(h H) *Doc {
	d.b.WriteString(string(h))
	return d
}

// String returns the document with trailing newlines removed.
func (d *Doc) String() string {
	return strings.TrimRight(d.b.String(), "\n")
}

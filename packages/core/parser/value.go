package parser

import (
	"regexp"
	"strings"
)

// Placeholders may span line breaks, so the inner match is allowed to
// cross newlines.
var placeholderPattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)

// NewValue scans text for {{...}} placeholders and records each
// occurrence as an inline script. sel marks where the text begins in
// the source file.
func NewValue(text string, sel Selection) *Value {
	v := &Value{Text: text, Selection: sel}

	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(text, -1) {
		start := offsetPosition(text, loc[0], sel.Start)
		end := offsetPosition(text, loc[1], sel.Start)

		v.Inline = append(v.Inline, &InlineScript{
			Script:      strings.TrimSpace(text[loc[2]:loc[3]]),
			Placeholder: text[loc[0]:loc[1]],
			Selection:   Selection{File: sel.File, Start: start, End: end},
		})
	}

	return v
}

func offsetPosition(text string, offset int, base Position) Position {
	line := base.Line
	col := base.Column
	for _, r := range text[:offset] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col}
}

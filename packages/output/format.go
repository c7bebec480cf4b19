package output

import (
	"fmt"
	"strings"
)

// FormatItem is one directive of a format string.
type FormatItem int

const (
	// ItemChars stands for a literal run of characters.
	ItemChars FormatItem = iota
	// ItemFirstLine is %R, the request or status line.
	ItemFirstLine
	// ItemHeaders is %H.
	ItemHeaders
	// ItemBody is %B.
	ItemBody
	// ItemTests is %T, ignored in request formats.
	ItemTests
	// ItemName is %N, ignored in response formats.
	ItemName
)

// Format is a parsed format string. Literal parts carry their text.
type Format []FormatPart

type FormatPart struct {
	Item FormatItem
	Text string
}

// ParseFormat compiles a format string. %% escapes a literal percent,
// and \n and \t sequences are unescaped first so shells do not need to
// pass real control characters.
func ParseFormat(format string) (Format, error) {
	format = strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(format)

	items := map[rune]FormatItem{
		'R': ItemFirstLine,
		'H': ItemHeaders,
		'B': ItemBody,
		'T': ItemTests,
		'N': ItemName,
	}

	var result Format
	var buff strings.Builder
	flush := func() {
		if buff.Len() > 0 {
			result = append(result, FormatPart{Item: ItemChars, Text: buff.String()})
			buff.Reset()
		}
	}

	marker := false
	for _, ch := range format {
		if !marker {
			if ch == '%' {
				marker = true
			} else {
				buff.WriteRune(ch)
			}
			continue
		}

		marker = false
		if ch == '%' {
			buff.WriteRune('%')
			continue
		}
		item, ok := items[ch]
		if !ok {
			return nil, fmt.Errorf("invalid formatting character '%c'", ch)
		}
		flush()
		result = append(result, FormatPart{Item: item})
	}

	flush()
	return result, nil
}

package parser

import "strings"

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenBlank
	TokenComment
	TokenSeparator
	TokenDeclaration
	TokenPreHandler
	TokenHandler
	TokenLine
)

type Token struct {
	Type   TokenType
	Value  string
	Raw    string
	Line   int
	Column int
	// EndLine differs from Line for handler blocks spanning lines.
	EndLine int
}

// Lexer yields one token per logical line. Handler blocks ("< {%" and
// "> {%") consume every line up to the closing "%}" and come back as a
// single token carrying the script between the markers.
type Lexer struct {
	lines []string
	pos   int
}

func NewLexer(input string) *Lexer {
	return &Lexer{lines: strings.Split(input, "\n")}
}

func (l *Lexer) NextToken() Token {
	if l.pos >= len(l.lines) {
		return Token{Type: TokenEOF, Line: len(l.lines) + 1, Column: 1, EndLine: len(l.lines) + 1}
	}

	raw := l.lines[l.pos]
	line := l.pos + 1
	l.pos++

	trimmed := strings.TrimSpace(raw)
	column := leadingWhitespace(raw) + 1

	tok := Token{Raw: raw, Line: line, Column: column, EndLine: line}

	switch {
	case trimmed == "":
		tok.Type = TokenBlank
	case strings.HasPrefix(trimmed, "###"):
		tok.Type = TokenSeparator
		tok.Value = strings.TrimSpace(strings.TrimPrefix(trimmed, "###"))
	case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//"):
		tok.Type = TokenComment
		tok.Value = trimmed
	case strings.HasPrefix(trimmed, "@"):
		tok.Type = TokenDeclaration
		tok.Value = strings.TrimPrefix(trimmed, "@")
	case isHandlerStart(trimmed, '<'):
		tok.Type = TokenPreHandler
		tok.Value, tok.EndLine = l.readScript(trimmed, line)
	case isHandlerStart(trimmed, '>'):
		tok.Type = TokenHandler
		tok.Value, tok.EndLine = l.readScript(trimmed, line)
	default:
		tok.Type = TokenLine
		tok.Value = trimmed
	}

	return tok
}

func isHandlerStart(trimmed string, marker byte) bool {
	if len(trimmed) == 0 || trimmed[0] != marker {
		return false
	}
	rest := strings.TrimSpace(trimmed[1:])
	return strings.HasPrefix(rest, "{%")
}

// readScript collects the script between "{%" and "%}", starting on the
// already consumed first line of the block.
func (l *Lexer) readScript(trimmed string, startLine int) (string, int) {
	rest := strings.TrimSpace(trimmed[1:])
	rest = strings.TrimPrefix(rest, "{%")

	if end := strings.Index(rest, "%}"); end >= 0 {
		return strings.TrimSpace(rest[:end]), startLine
	}

	var b strings.Builder
	b.WriteString(rest)
	endLine := startLine

	for l.pos < len(l.lines) {
		raw := l.lines[l.pos]
		endLine = l.pos + 1
		l.pos++

		if end := strings.Index(raw, "%}"); end >= 0 {
			b.WriteString("\n")
			b.WriteString(raw[:end])
			return strings.TrimSpace(b.String()), endLine
		}
		b.WriteString("\n")
		b.WriteString(raw)
	}

	// Unterminated block: the parser reports it against the start line.
	return unterminatedScript, endLine
}

const unterminatedScript = "\x00unterminated"

func leadingWhitespace(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}

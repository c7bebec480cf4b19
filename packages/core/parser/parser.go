package parser

import (
	"os"
	"strings"
)

type Parser struct {
	lexer *Lexer
	cur   Token
	file  string
}

func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.advance()
	return p
}

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

func Parse(input, filename string) (*File, error) {
	p := NewParser(input)
	p.file = filename
	return p.parseFile()
}

func (p *Parser) advance() {
	p.cur = p.lexer.NextToken()
}

func (p *Parser) skipIgnored() {
	for p.cur.Type == TokenBlank || p.cur.Type == TokenComment {
		p.advance()
	}
}

func (p *Parser) errorf(tok Token, message string) *ParseError {
	return &ParseError{
		File:    p.file,
		Line:    tok.Line,
		Column:  tok.Column,
		Message: message,
	}
}

func (p *Parser) parseFile() (*File, error) {
	file := &File{Path: p.file}

	name := ""
	startLine := 1
	for {
		p.skipIgnored()

		if p.cur.Type == TokenEOF {
			return file, nil
		}
		if p.cur.Type == TokenSeparator {
			name = p.cur.Value
			startLine = p.cur.Line
			p.advance()
			continue
		}

		script, err := p.parseSection(name, startLine)
		if err != nil {
			return nil, err
		}
		file.Requests = append(file.Requests, script)
		name = ""
	}
}

// parseSection parses everything between two separators: variable
// declarations and an optional pre-request handler, the request line
// with its headers and body, then an optional response handler.
func (p *Parser) parseSection(name string, startLine int) (*RequestScript, error) {
	script := &RequestScript{
		Name: name,
		Selection: Selection{
			File:  p.file,
			Start: Position{Line: startLine, Column: 1},
		},
	}

	for {
		p.skipIgnored()

		switch p.cur.Type {
		case TokenDeclaration:
			v, err := p.parseDeclaration()
			if err != nil {
				return nil, err
			}
			script.Variables = append(script.Variables, v)
			continue
		case TokenPreHandler:
			if script.PreHandler != nil {
				return nil, p.errorf(p.cur, "duplicate pre-request handler")
			}
			h, err := p.handler()
			if err != nil {
				return nil, err
			}
			script.PreHandler = h
			continue
		case TokenSeparator, TokenEOF:
			return nil, p.errorf(p.cur, "expected request line")
		case TokenHandler:
			return nil, p.errorf(p.cur, "response handler before request line")
		}
		break
	}

	request, err := p.parseRequest()
	if err != nil {
		return nil, err
	}
	script.Request = request

	p.skipIgnored()
	if p.cur.Type == TokenHandler {
		h, err := p.handler()
		if err != nil {
			return nil, err
		}
		script.Handler = h
		p.skipIgnored()
	}

	switch p.cur.Type {
	case TokenSeparator, TokenEOF:
	default:
		return nil, p.errorf(p.cur, "unexpected content after request")
	}

	script.Selection.End = Position{Line: p.cur.Line, Column: 1}
	return script, nil
}

func (p *Parser) parseDeclaration() (*Variable, error) {
	tok := p.cur
	name, value, found := strings.Cut(tok.Value, "=")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return nil, p.errorf(tok, "malformed variable declaration: @"+tok.Value)
	}
	p.advance()

	sel := Selection{
		File:  p.file,
		Start: Position{Line: tok.Line, Column: tok.Column},
		End:   Position{Line: tok.Line, Column: tok.Column + len(tok.Raw)},
	}
	return &Variable{Name: name, Value: NewValue(strings.TrimSpace(value), sel)}, nil
}

func (p *Parser) handler() (*Handler, error) {
	tok := p.cur
	if tok.Value == unterminatedScript {
		return nil, p.errorf(tok, "unterminated handler block, missing %}")
	}
	p.advance()
	return &Handler{
		Script: tok.Value,
		Selection: Selection{
			File:  p.file,
			Start: Position{Line: tok.Line, Column: tok.Column},
			End:   Position{Line: tok.EndLine, Column: 1},
		},
	}, nil
}

func (p *Parser) parseRequest() (*Request, error) {
	lineTok := p.cur
	if lineTok.Type != TokenLine {
		return nil, p.errorf(lineTok, "expected request line")
	}

	request := &Request{
		Selection: Selection{
			File:  p.file,
			Start: Position{Line: lineTok.Line, Column: lineTok.Column},
		},
	}

	text := lineTok.Value
	p.advance()

	// The request line may continue on indented lines until the HTTP
	// version or the header block.
	for p.cur.Type == TokenLine && p.cur.Column > 1 {
		text += " " + p.cur.Value
		p.advance()
	}

	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil, p.errorf(lineTok, "expected method and request target, got: "+text)
	}

	method, ok := ParseMethod(fields[0])
	if !ok {
		return nil, p.errorf(lineTok, "unknown method: "+fields[0])
	}
	request.Method = method

	target := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
	if last := fields[len(fields)-1]; len(fields) > 2 && strings.HasPrefix(last, "HTTP/") {
		request.Version = last
		target = strings.TrimSpace(strings.TrimSuffix(target, last))
	}
	request.Target = NewValue(target, Selection{
		File:  p.file,
		Start: Position{Line: lineTok.Line, Column: lineTok.Column + len(fields[0]) + 1},
	})

	if err := p.parseHeaders(request); err != nil {
		return nil, err
	}

	if p.cur.Type == TokenBlank {
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		request.Body = body
	}

	request.Selection.End = Position{Line: p.cur.Line, Column: 1}
	return request, nil
}

func (p *Parser) parseHeaders(request *Request) error {
	for {
		if p.cur.Type == TokenComment {
			p.advance()
			continue
		}
		if p.cur.Type != TokenLine {
			return nil
		}

		tok := p.cur
		name, value, found := strings.Cut(tok.Value, ":")
		if !found || strings.TrimSpace(name) == "" {
			return p.errorf(tok, "malformed header field: "+tok.Value)
		}
		p.advance()

		sel := Selection{
			File:  p.file,
			Start: Position{Line: tok.Line, Column: tok.Column},
			End:   Position{Line: tok.Line, Column: tok.Column + len(tok.Value)},
		}
		request.Headers = append(request.Headers, &Header{
			Name:      strings.TrimSpace(name),
			Value:     NewValue(strings.TrimSpace(value), sel),
			Selection: sel,
		})
	}
}

// parseBody consumes raw lines after the header block up to the
// response handler or the end of the section. Indentation is preserved;
// surrounding blank lines are not part of the body. Lines starting with
// # or // are body text here, not comments.
func (p *Parser) parseBody() (*Value, error) {
	for p.cur.Type == TokenBlank {
		p.advance()
	}

	var lines []string
	start := Position{Line: p.cur.Line, Column: 1}

	for {
		switch p.cur.Type {
		case TokenLine, TokenDeclaration, TokenBlank, TokenComment:
			lines = append(lines, p.cur.Raw)
			p.advance()
		default:
			text := strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
			if text == "" {
				return nil, nil
			}
			return NewValue(text, Selection{File: p.file, Start: start}), nil
		}
	}
}

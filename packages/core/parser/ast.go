package parser

import "strconv"

type File struct {
	Path     string
	Requests []*RequestScript
}

// RequestScripts returns the scripts to execute, 1-indexed. A zero index
// selects every script in the file.
func (f *File) RequestScripts(index int) ([]*RequestScript, error) {
	if index == 0 {
		return f.Requests, nil
	}
	if index < 1 || index > len(f.Requests) {
		return nil, &ParseError{
			File:    f.Path,
			Message: "no request #" + strconv.Itoa(index) + " in file with " + strconv.Itoa(len(f.Requests)) + " requests",
		}
	}
	return f.Requests[index-1 : index], nil
}

type RequestScript struct {
	// Name is the text after the "###" separator, empty when the
	// section is unnamed.
	Name       string
	Request    *Request
	Variables  []*Variable
	PreHandler *Handler
	Handler    *Handler
	Selection  Selection
}

type Variable struct {
	Name  string
	Value *Value
}

type Request struct {
	Method    Method
	Target    *Value
	Version   string
	Headers   []*Header
	Body      *Value
	Selection Selection
}

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodOptions Method = "OPTIONS"
)

func ParseMethod(s string) (Method, bool) {
	switch Method(s) {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodOptions:
		return Method(s), true
	}
	return "", false
}

type Header struct {
	Name      string
	Value     *Value
	Selection Selection
}

// Value is a piece of text that may embed {{...}} placeholders. Inline
// lists each placeholder occurrence in source order; it is empty when
// the text is literal.
type Value struct {
	Text      string
	Inline    []*InlineScript
	Selection Selection
}

func (v *Value) HasInline() bool {
	return len(v.Inline) > 0
}

func (v *Value) String() string {
	return v.Text
}

// InlineScript is a single {{...}} occurrence. Placeholder is the full
// source span including braces, Script the trimmed inner text.
type InlineScript struct {
	Script      string
	Placeholder string
	Selection   Selection
}

type Handler struct {
	Script    string
	Selection Selection
}

type Selection struct {
	File  string
	Start Position
	End   Position
}

type Position struct {
	Line   int
	Column int
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return e.File + ":" + strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) + ": " + e.Message
	}
	return "line " + strconv.Itoa(e.Line) + ": " + e.Message
}

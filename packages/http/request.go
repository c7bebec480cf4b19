package http

import "strings"

// Header is a single resolved header field. Order and duplicates are
// preserved as written in the script.
type Header struct {
	Name  string
	Value string
}

// Request is a fully resolved request, every placeholder already
// substituted. An empty Body means no body is sent.
type Request struct {
	Method  string
	Target  string
	Headers []Header
	Body    string
}

func (r *Request) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Package postman exports parsed .http scripts as a Postman v2.1
// collection. Placeholders that map onto Postman dynamic variables are
// rewritten; handlers are carried over as pre-request and test events.
package postman

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/dothttp/packages/core/parser"
)

const schemaURL = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

type Collection struct {
	Info  Information `json:"info"`
	Items []*Item     `json:"item"`
}

type Information struct {
	PostmanID string `json:"_postman_id"`
	Name      string `json:"name"`
	Schema    string `json:"schema"`
}

// Item is either a folder (Items set) or a request (Request set).
type Item struct {
	Name    string   `json:"name"`
	Items   []*Item  `json:"item,omitempty"`
	Request *Request `json:"request,omitempty"`
	Events  []Event  `json:"event,omitempty"`
}

type Request struct {
	Method  string   `json:"method"`
	URL     string   `json:"url"`
	Headers []Header `json:"header,omitempty"`
	Body    *Body    `json:"body,omitempty"`
}

type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Body struct {
	Mode       string      `json:"mode"`
	Raw        string      `json:"raw,omitempty"`
	URLEncoded []Parameter `json:"urlencoded,omitempty"`
	Options    *Options    `json:"options,omitempty"`
}

type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Options struct {
	Raw RawOptions `json:"raw"`
}

type RawOptions struct {
	Language string `json:"language"`
}

type Event struct {
	Listen string `json:"listen"`
	Script Script `json:"script"`
}

type Script struct {
	Exec []string `json:"exec"`
	Type string   `json:"type"`
}

// Source is one parsed file to export.
type Source struct {
	Name string
	File *parser.File
}

// ExportCollection writes sources as a single collection. Each source
// file becomes a folder named after it.
func ExportCollection(w io.Writer, name string, sources []Source) error {
	collection := Collection{
		Info: Information{
			PostmanID: uuid.NewString(),
			Name:      name,
			Schema:    schemaURL,
		},
	}

	for _, src := range sources {
		folder := &Item{Name: src.Name}
		for i, rs := range src.File.Requests {
			folder.Items = append(folder.Items, exportRequest(rs, i+1))
		}
		collection.Items = append(collection.Items, folder)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(collection); err != nil {
		return fmt.Errorf("encoding collection: %w", err)
	}
	return nil
}

func exportRequest(rs *parser.RequestScript, position int) *Item {
	name := rs.Name
	if name == "" {
		name = "#" + strconv.Itoa(position)
	}

	rw := &rewriter{}
	request := &Request{
		Method: string(rs.Request.Method),
		URL:    rw.rewrite(rs.Request.Target),
	}
	for _, h := range rs.Request.Headers {
		request.Headers = append(request.Headers, Header{Key: h.Name, Value: rw.rewrite(h.Value)})
	}
	request.Body = exportBody(rw, rs.Request)

	item := &Item{Name: name, Request: request}

	prerequest := rw.prelude
	if rs.PreHandler != nil {
		prerequest = append(prerequest, strings.Split(rs.PreHandler.Script, "\n")...)
	}
	if len(prerequest) > 0 {
		item.Events = append(item.Events, Event{
			Listen: "prerequest",
			Script: Script{Exec: prerequest, Type: "text/javascript"},
		})
	}
	if rs.Handler != nil {
		item.Events = append(item.Events, event("test", rs.Handler.Script))
	}
	return item
}

func event(listen, script string) Event {
	return Event{
		Listen: listen,
		Script: Script{
			Exec: strings.Split(script, "\n"),
			Type: "text/javascript",
		},
	}
}

func exportBody(rw *rewriter, request *parser.Request) *Body {
	if request.Body == nil {
		return nil
	}

	raw := rw.rewrite(request.Body)
	mode, language := bodyMode(request)
	body := &Body{Mode: mode, Raw: raw}
	if language != "" {
		body.Options = &Options{Raw: RawOptions{Language: language}}
	}

	if mode == "urlencoded" {
		if values, err := url.ParseQuery(strings.TrimSpace(raw)); err == nil {
			for key, vals := range values {
				for _, value := range vals {
					body.URLEncoded = append(body.URLEncoded, Parameter{Key: key, Value: value})
				}
			}
		}
	}
	return body
}

// bodyMode picks the Postman body mode from the Content-Type header.
// Only literal header values are inspected.
func bodyMode(request *parser.Request) (string, string) {
	for _, h := range request.Headers {
		if !strings.EqualFold(h.Name, "content-type") || h.Value.HasInline() {
			continue
		}
		switch value := h.Value.Text; {
		case strings.HasPrefix(value, "application/json"):
			return "raw", "json"
		case value == "application/x-www-form-urlencoded":
			return "urlencoded", ""
		case value == "multipart/form-data":
			return "formdata", ""
		}
	}
	return "raw", ""
}

// dynamicVariables maps generator placeholders onto their Postman
// equivalents.
var dynamicVariables = map[string]string{
	"$uuid":           "{{$guid}}",
	"$random.uuid":    "{{$randomUUID}}",
	"$random.email":   "{{$randomEmail}}",
	"$random.integer": "{{$randomInt}}",
}

// rewriter maps generator placeholders onto Postman dynamic variables.
// Ranged $random.integer/$random.float calls have no dynamic-variable
// counterpart; their numeric argument lists are parsed textually and a
// pm.variables.set line for the call is collected into the item's
// pre-request script. Malformed argument lists stay untouched.
type rewriter struct {
	prelude []string
}

func (r *rewriter) rewrite(v *parser.Value) string {
	if v == nil {
		return ""
	}
	text := v.Text
	for _, inline := range v.Inline {
		if replacement, ok := dynamicVariables[inline.Script]; ok {
			text = strings.Replace(text, inline.Placeholder, replacement, 1)
			continue
		}
		switch {
		case strings.HasPrefix(inline.Script, "$random.integer("):
			text = r.rangedInteger(text, inline)
		case strings.HasPrefix(inline.Script, "$random.float("):
			text = r.rangedFloat(text, inline)
		}
	}
	return text
}

func (r *rewriter) rangedInteger(text string, inline *parser.InlineScript) string {
	args, ok := callArguments(inline.Script, "$random.integer")
	if !ok {
		return text
	}
	if args == "" {
		return strings.Replace(text, inline.Placeholder, "{{$randomInt}}", 1)
	}

	if min, max, found := strings.Cut(args, ","); found {
		lo, err := strconv.ParseInt(strings.TrimSpace(min), 10, 64)
		if err != nil {
			return text
		}
		hi, err := strconv.ParseInt(strings.TrimSpace(max), 10, 64)
		if err != nil {
			return text
		}
		r.prelude = append(r.prelude, fmt.Sprintf(
			"pm.variables.set('%s', Object.create({toJSON: () => (%d + ~~(Math.random() * ((%d - %d) + 1))).toString()}));",
			inline.Script, lo, hi, lo))
	} else {
		hi, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil {
			return text
		}
		r.prelude = append(r.prelude, fmt.Sprintf(
			"pm.variables.set('%s', Object.create({toJSON: () => (~~(Math.random() * (%d + 1))).toString()}));",
			inline.Script, hi))
	}
	return strings.Replace(text, inline.Placeholder, "{{"+inline.Script+"}}", 1)
}

func (r *rewriter) rangedFloat(text string, inline *parser.InlineScript) string {
	args, ok := callArguments(inline.Script, "$random.float")
	if !ok {
		return text
	}
	if args == "" {
		return strings.Replace(text, inline.Placeholder, "{{$random.float}}", 1)
	}

	if min, max, found := strings.Cut(args, ","); found {
		lo, err := strconv.ParseFloat(strings.TrimSpace(min), 64)
		if err != nil {
			return text
		}
		hi, err := strconv.ParseFloat(strings.TrimSpace(max), 64)
		if err != nil {
			return text
		}
		r.prelude = append(r.prelude, fmt.Sprintf(
			"pm.variables.set('%s', Object.create({toJSON: () => (%s + (Math.random() * (%s - %s))).toString()}));",
			inline.Script, number(lo), number(hi), number(lo)))
	} else {
		hi, err := strconv.ParseFloat(strings.TrimSpace(args), 64)
		if err != nil {
			return text
		}
		r.prelude = append(r.prelude, fmt.Sprintf(
			"pm.variables.set('%s', Object.create({toJSON: () => (Math.random() * (%s + 1)).toString()}));",
			inline.Script, number(hi)))
	}
	return strings.Replace(text, inline.Placeholder, "{{"+inline.Script+"}}", 1)
}

// callArguments returns the text between the parentheses of a generator
// call, reporting false when the parentheses are unbalanced.
func callArguments(script, generator string) (string, bool) {
	call := strings.TrimPrefix(script, generator)
	if !strings.HasPrefix(call, "(") || !strings.HasSuffix(call, ")") {
		return "", false
	}
	return strings.TrimSpace(call[1 : len(call)-1]), true
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ExportEnvironment writes a snapshot as a Postman environment.
func ExportEnvironment(w io.Writer, name string, snapshot map[string]any) error {
	type variable struct {
		Key     string `json:"key"`
		Value   any    `json:"value"`
		Enabled bool   `json:"enabled"`
	}
	environment := struct {
		ID     string     `json:"id"`
		Name   string     `json:"name"`
		Values []variable `json:"values"`
	}{
		ID:     uuid.NewString(),
		Name:   name,
		Values: []variable{},
	}

	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		environment.Values = append(environment.Values, variable{Key: key, Value: snapshot[key], Enabled: true})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(environment); err != nil {
		return fmt.Errorf("encoding environment: %w", err)
	}
	return nil
}

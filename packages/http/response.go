package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Response carries what the scripting host and the output layer need.
// Header names are lower-cased; multiple values for one name are
// joined with ", ".
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// JSONObject decodes the body when it is a JSON object. Arrays,
// scalars and invalid JSON report false, which keeps the scripted
// response.body a plain string.
func (r *Response) JSONObject() (map[string]any, bool) {
	if !gjson.ValidBytes(r.Body) {
		return nil, false
	}
	if !gjson.ParseBytes(r.Body).IsObject() {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal(r.Body, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func (r *Response) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

package output

import (
	"encoding/json"

	"github.com/abdul-hamid-achik/dothttp/packages/http"
	"github.com/abdul-hamid-achik/dothttp/packages/script"
)

// Output receives run events as they happen. Tests is called once at
// the end of the run with every report gathered along the way.
type Output interface {
	Request(request *http.Request, name string) error
	Response(response *http.Response, report script.Report) error
	Tests(reports []RunReport) error
	// Failed reports whether any test seen so far failed.
	Failed() bool
}

// RunReport is one executed request's test report together with where
// it came from.
type RunReport struct {
	File    string
	Request string
	Report  script.Report
}

// prettifyBody re-indents body when it is a JSON object and returns it
// unchanged otherwise.
func prettifyBody(body string) string {
	var object map[string]any
	if err := json.Unmarshal([]byte(body), &object); err != nil {
		return body
	}
	pretty, err := json.MarshalIndent(object, "", "  ")
	if err != nil {
		return body
	}
	return string(pretty)
}

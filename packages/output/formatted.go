package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/dothttp/packages/http"
	"github.com/abdul-hamid-achik/dothttp/packages/script"
)

// FormattedOutput prints each request and response through its format
// strings as they execute. When any test failed it finishes with a
// numbered failure list on the error writer.
type FormattedOutput struct {
	writer         io.Writer
	errWriter      io.Writer
	requestFormat  Format
	responseFormat Format
	failed         bool
}

type FormattedOption func(*FormattedOutput)

func WithWriter(w io.Writer) FormattedOption {
	return func(f *FormattedOutput) {
		f.writer = w
	}
}

func WithErrWriter(w io.Writer) FormattedOption {
	return func(f *FormattedOutput) {
		f.errWriter = w
	}
}

func WithNoColor(noColor bool) FormattedOption {
	return func(f *FormattedOutput) {
		if noColor {
			color.NoColor = true
		}
	}
}

func NewFormattedOutput(requestFormat, responseFormat Format, opts ...FormattedOption) *FormattedOutput {
	f := &FormattedOutput{
		writer:         os.Stdout,
		errWriter:      os.Stderr,
		requestFormat:  requestFormat,
		responseFormat: responseFormat,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FormattedOutput) Request(request *http.Request, name string) error {
	for _, part := range f.requestFormat {
		var toWrite string
		switch part.Item {
		case ItemChars:
			toWrite = part.Text
		case ItemFirstLine:
			toWrite = request.Method + " " + request.Target
		case ItemHeaders:
			toWrite = formatRequestHeaders(request.Headers)
		case ItemBody:
			toWrite = prettifyBody(request.Body)
		case ItemName:
			toWrite = "[" + name + "]"
		case ItemTests:
			continue
		}

		if toWrite == "" {
			continue
		}
		if _, err := fmt.Fprint(f.writer, toWrite); err != nil {
			return err
		}
	}
	return nil
}

func (f *FormattedOutput) Response(response *http.Response, report script.Report) error {
	f.failed = f.failed || len(report.Failed()) > 0

	for _, part := range f.responseFormat {
		var toWrite string
		switch part.Item {
		case ItemChars:
			toWrite = part.Text
		case ItemFirstLine:
			toWrite = response.Proto + " " + response.Status
		case ItemHeaders:
			toWrite = formatResponseHeaders(response.Headers)
		case ItemBody:
			toWrite = prettifyBody(response.BodyString())
		case ItemTests:
			toWrite = formatTests(report)
		case ItemName:
			continue
		}

		if toWrite == "" {
			continue
		}
		if _, err := fmt.Fprint(f.writer, toWrite); err != nil {
			return err
		}
	}
	return nil
}

// Tests lists every failed test with its origin, but only when
// something failed.
func (f *FormattedOutput) Tests(reports []RunReport) error {
	if !f.failed {
		return nil
	}

	red := color.New(color.FgRed).SprintFunc()
	if _, err := fmt.Fprintln(f.errWriter, red("RUN FAILED")); err != nil {
		return err
	}

	index := 1
	for _, run := range reports {
		for _, result := range run.Report.Failed() {
			_, err := fmt.Fprintf(f.errWriter, "%d. Test `%s` in `[%s / %s]` FAILED with %s\n",
				index, result.Name, run.File, run.Request, result.Error)
			if err != nil {
				return err
			}
			index++
		}
	}
	return nil
}

func (f *FormattedOutput) Failed() bool {
	return f.failed
}

func formatRequestHeaders(headers []http.Header) string {
	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Value)
	}
	return b.String()
}

// formatResponseHeaders prints headers sorted by name. The response
// header map does not preserve wire order.
func formatResponseHeaders(headers map[string]string) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, headers[name])
	}
	return b.String()
}

func formatTests(report script.Report) string {
	if report.IsEmpty() {
		return ""
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var b strings.Builder
	for _, result := range report {
		fmt.Fprintf(&b, "Test `%s`: ", result.Name)
		if result.Failed() {
			fmt.Fprintln(&b, red("FAILED with "+result.Error))
		} else {
			fmt.Fprintln(&b, green("OK"))
		}
	}
	return b.String()
}

package output

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/abdul-hamid-achik/dothttp/packages/http"
	"github.com/abdul-hamid-achik/dothttp/packages/script"
)

// CiOutput stays silent while requests run and prints one result table
// at the end, followed by a completion summary.
type CiOutput struct {
	writer io.Writer
	failed bool
}

type CiOption func(*CiOutput)

func WithCiWriter(w io.Writer) CiOption {
	return func(c *CiOutput) {
		c.writer = w
	}
}

func NewCiOutput(opts ...CiOption) *CiOutput {
	c := &CiOutput{writer: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CiOutput) Request(request *http.Request, name string) error {
	return nil
}

func (c *CiOutput) Response(response *http.Response, report script.Report) error {
	return nil
}

func (c *CiOutput) Tests(reports []RunReport) error {
	table := tabwriter.NewWriter(c.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(table, "File\tRequest\tTest\tResult")

	totalRequests := 0
	failedRequests := 0
	for _, run := range reports {
		totalRequests++
		if run.Report.IsEmpty() {
			fmt.Fprintf(table, "%s\t%s\tNO TESTS FOUND\t\n", run.File, run.Request)
			continue
		}

		requestFailed := false
		for _, result := range run.Report {
			verdict := "PASSED"
			if result.Failed() {
				verdict = "FAILED"
				requestFailed = true
				c.failed = true
			}
			fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", run.File, run.Request, result.Name, verdict)
		}
		if requestFailed {
			failedRequests++
		}
	}

	if err := table.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.writer, "%d requests completed, %d have failed tests\n", totalRequests, failedRequests)
	return err
}

func (c *CiOutput) Failed() bool {
	return c.failed
}

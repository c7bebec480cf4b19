package script

// TestResult is the outcome of a single client.test invocation.
type TestResult struct {
	Name  string
	Error string
}

func (t TestResult) Failed() bool {
	return t.Error != ""
}

// Report holds the results registered during one request, ordered by
// test name.
type Report []TestResult

func (r Report) IsEmpty() bool {
	return len(r) == 0
}

func (r Report) Failed() []TestResult {
	var failed []TestResult
	for _, t := range r {
		if t.Failed() {
			failed = append(failed, t)
		}
	}
	return failed
}

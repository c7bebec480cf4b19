package script

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/dothttp/packages/core/parser"
	"github.com/abdul-hamid-achik/dothttp/packages/http"
)

func newTestEngine(t *testing.T, global, env map[string]any) *Engine {
	t.Helper()
	engine, err := NewEngine(global, env)
	require.NoError(t, err)
	return engine
}

func TestExecuteSyntaxError(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	_, err := engine.Execute("..test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error executing script")
}

func TestNewEngineRejectsClientName(t *testing.T) {
	_, err := NewEngine(map[string]any{"client": "x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "`client`")
}

func TestResolveFromSeededGlobals(t *testing.T) {
	engine := newTestEngine(t, map[string]any{"a": "1"}, nil)

	result, err := engine.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, "1", result)
}

func TestResolveOrderRequestBeforeGlobalBeforeEnv(t *testing.T) {
	engine := newTestEngine(t, map[string]any{"a": "global", "b": "global"}, map[string]any{"a": "env", "b": "env", "c": "env"})
	engine.DeclareVariable("a", "request")

	for name, want := range map[string]string{"a": "request", "b": "global", "c": "env"} {
		result, err := engine.Resolve(name)
		require.NoError(t, err)
		assert.Equal(t, want, result)
	}
}

func TestResolveUnknownNameStaysLiteral(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	result, err := engine.Resolve("missing")
	require.NoError(t, err)
	assert.Equal(t, "{{missing}}", result)
}

func TestProcessReplacesFirstRemainingOccurrence(t *testing.T) {
	engine := newTestEngine(t, nil, nil)
	_, err := engine.Execute("var n = 0; var $next = function() { return ++n; }")
	require.NoError(t, err)

	value := parser.NewValue("{{ $next() }} and {{ $next() }}", parser.Selection{})
	result, err := engine.Process(value)
	require.NoError(t, err)
	assert.Equal(t, "1 and 2", result)
}

func TestProcessTwoRandomUUIDsDiffer(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	value := parser.NewValue(`{"first": "{{$random.uuid}}", "second": "{{$random.uuid}}"}`, parser.Selection{})
	result, err := engine.Process(value)
	require.NoError(t, err)

	first := value.Inline[0].Placeholder
	assert.NotContains(t, result, first)

	ids := extractQuoted(result)
	require.Len(t, ids, 4)
	assert.NotEqual(t, ids[1], ids[3])
	assert.Len(t, ids[1], 36)
}

func extractQuoted(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r != '"' {
			continue
		}
		if start < 0 {
			start = i + 1
		} else {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}

func TestProcessLiteralValue(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	value := parser.NewValue("no placeholders here", parser.Selection{})
	result, err := engine.Process(value)
	require.NoError(t, err)
	assert.Equal(t, "no placeholders here", result)
}

func TestProcessErrorNamesPlaceholder(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	value := parser.NewValue("{{$nope..}}", parser.Selection{})
	_, err := engine.Process(value)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed processing `{{$nope..}}`")
}

func TestRandomIntegerStringifiesToNumber(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	result, err := engine.Resolve("$random.integer")
	require.NoError(t, err)
	_, err = strconv.Atoi(result)
	assert.NoError(t, err, "expected %q to parse as an integer", result)
}

func TestRandomIntegerRange(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	for i := 0; i < 20; i++ {
		result, err := engine.Execute("$random.integer(5, 10)")
		require.NoError(t, err)
		n, err := strconv.Atoi(result)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 5)
		assert.Less(t, n, 10)
	}
}

func TestRandomAlphabeticRequiresLength(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	result, err := engine.Execute("$random.alphabetic(8)")
	require.NoError(t, err)
	assert.Len(t, result, 8)

	_, err = engine.Execute("$random.alphabetic('x')")
	assert.Error(t, err)
}

func TestUUIDAccessorIsLive(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	first, err := engine.Execute("$uuid")
	require.NoError(t, err)
	second, err := engine.Execute("$uuid")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Len(t, first, 36)
}

func TestTimestampAccessors(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	ts, err := engine.Execute("$timestamp")
	require.NoError(t, err)
	_, err = strconv.ParseInt(ts, 10, 64)
	assert.NoError(t, err)

	iso, err := engine.Execute("$isoTimestamp")
	require.NoError(t, err)
	assert.Contains(t, iso, "T")
}

func TestClientGlobalPersistsAcrossReset(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	_, err := engine.Execute(`client.global.set("token", "abc")`)
	require.NoError(t, err)

	require.NoError(t, engine.Reset())

	result, err := engine.Resolve("token")
	require.NoError(t, err)
	assert.Equal(t, "abc", result)
}

func TestResetDiscardsScriptState(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	_, err := engine.Execute("var leak = 42")
	require.NoError(t, err)
	require.NoError(t, engine.Reset())

	_, err = engine.Execute("leak")
	assert.Error(t, err)
}

func TestResetDiscardsRequestVariablesAndTests(t *testing.T) {
	engine := newTestEngine(t, nil, nil)
	engine.DeclareVariable("local", "1")
	_, err := engine.Execute(`client.test("t", function() {})`)
	require.NoError(t, err)

	require.NoError(t, engine.Reset())

	result, err := engine.Resolve("local")
	require.NoError(t, err)
	assert.Equal(t, "{{local}}", result)
	assert.True(t, engine.Report().IsEmpty())
}

func TestClientGlobalGetFallsBackToEnvironment(t *testing.T) {
	engine := newTestEngine(t, nil, map[string]any{"host": "example.com"})

	result, err := engine.Execute(`client.global.get("host")`)
	require.NoError(t, err)
	assert.Equal(t, "example.com", result)

	_, err = engine.Execute(`client.global.set("host", "other.com")`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"host": "other.com"}, engine.Snapshot())
}

func TestClientGlobalIgnoresNullAndUndefined(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	_, err := engine.Execute(`client.global.set("a", null)`)
	require.NoError(t, err)
	_, err = engine.Execute(`client.global.set("b", undefined)`)
	require.NoError(t, err)
	assert.Empty(t, engine.Snapshot())

	result, err := engine.Execute(`client.global.get("a") === undefined`)
	require.NoError(t, err)
	assert.Equal(t, "true", result)
}

func TestClientGlobalClear(t *testing.T) {
	engine := newTestEngine(t, map[string]any{"a": "1", "b": "2"}, nil)

	_, err := engine.Execute(`client.global.clear("a")`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": "2"}, engine.Snapshot())

	_, err = engine.Execute(`client.global.clearAll()`)
	require.NoError(t, err)
	assert.Empty(t, engine.Snapshot())

	result, err := engine.Execute(`client.global.isEmpty()`)
	require.NoError(t, err)
	assert.Equal(t, "true", result)
}

func TestClientLog(t *testing.T) {
	var buf bytes.Buffer
	engine, err := NewEngine(nil, nil, WithLogWriter(&buf))
	require.NoError(t, err)

	_, err = engine.Execute(`client.log("hello", 42)`)
	require.NoError(t, err)
	assert.Equal(t, "hello 42\n", buf.String())
}

func TestClientTestRecordsFailures(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	script := `
client.test("passes", function() {});
client.test("fails", function() { throw "boom"; });
client.test("asserts", function() { client.assert(false, "status is 200"); });
`
	_, err := engine.Execute(script)
	require.NoError(t, err)

	report := engine.Report()
	require.Len(t, report, 3)
	assert.Equal(t, TestResult{Name: "asserts", Error: "Assertion failed: status is 200"}, report[0])
	assert.Equal(t, TestResult{Name: "fails", Error: "boom"}, report[1])
	assert.Equal(t, TestResult{Name: "passes"}, report[2])
	assert.Equal(t, []TestResult{report[0], report[1]}, []TestResult(report.Failed()))
}

func TestClientAssertDefaultMessage(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	_, err := engine.Execute(`client.test("t", function() { client.assert(false); })`)
	require.NoError(t, err)

	report := engine.Report()
	require.Len(t, report, 1)
	assert.Equal(t, "Assertion failed: Assertion failed", report[0].Error)
}

func TestClientAssertOutsideTestIsFatal(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	_, err := engine.Execute(`client.assert(1 === 2, "math holds")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assertion failed: math holds")
}

func TestClientTestArgumentValidation(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	_, err := engine.Execute(`client.test(42, function() {})`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected to get test name")

	_, err = engine.Execute(`client.test("t", "not a function")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected to get test function")
}

func TestSetResponseExposesStatusHeadersBody(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	res := &http.Response{
		StatusCode: 200,
		Headers:    map[string]string{"x-auth-token": "secret"},
		Body:       []byte(`{"token": "abc", "count": 2}`),
	}
	require.NoError(t, engine.SetResponse(res))

	result, err := engine.Execute(`response.status`)
	require.NoError(t, err)
	assert.Equal(t, "200", result)

	result, err = engine.Execute(`response.headers['x-auth-token']`)
	require.NoError(t, err)
	assert.Equal(t, "secret", result)

	result, err = engine.Execute(`response.body.token`)
	require.NoError(t, err)
	assert.Equal(t, "abc", result)
}

func TestSetResponseNonObjectBodyStaysString(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	require.NoError(t, engine.SetResponse(&http.Response{StatusCode: 200, Body: []byte("[1, 2]")}))
	result, err := engine.Execute(`typeof response.body`)
	require.NoError(t, err)
	assert.Equal(t, "string", result)
}

func TestSetResponseEmptyBodyIsNull(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	require.NoError(t, engine.SetResponse(&http.Response{StatusCode: 204}))
	result, err := engine.Execute(`response.body === null`)
	require.NoError(t, err)
	assert.Equal(t, "true", result)
}

func TestHandleRecordsTests(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	handler := &parser.Handler{Script: `
client.test("status ok", function() {
	client.assert(response.status === 201, "expected 201");
});
`}
	res := &http.Response{StatusCode: 200}
	require.NoError(t, engine.Handle(handler, res))

	report := engine.Report()
	require.Len(t, report, 1)
	assert.True(t, report[0].Failed())
	assert.Equal(t, "Assertion failed: expected 201", report[0].Error)
}

func TestHandleThrowOutsideTestFails(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	handler := &parser.Handler{Script: `throw "fatal"`}
	err := engine.Handle(handler, &http.Response{StatusCode: 200})
	require.Error(t, err)
}

func TestPreHandleRequestViews(t *testing.T) {
	engine := newTestEngine(t, nil, map[string]any{"host": "example.com"})
	engine.DeclareVariable("id", "7")

	request := &parser.Request{
		Method: parser.MethodGet,
		Target: parser.NewValue("https://{{host}}/items/{{id}}", parser.Selection{}),
		Headers: []*parser.Header{
			{Name: "Accept", Value: parser.NewValue("application/json", parser.Selection{})},
		},
	}
	handler := &parser.Handler{Script: `
client.global.set("raw", request.url.getRawValue());
client.global.set("url", request.url.tryGetSubstitutedValue());
client.global.set("accept", request.headers.findByName("Accept").getRawValue());
client.global.set("fromEnv", request.environment.get("host"));
client.global.set("fromVars", request.variables.get("id"));
`}
	require.NoError(t, engine.PreHandle(handler, request))

	snapshot := engine.Snapshot()
	assert.Equal(t, "https://{{host}}/items/{{id}}", snapshot["raw"])
	assert.Equal(t, "https://example.com/items/7", snapshot["url"])
	assert.Equal(t, "application/json", snapshot["accept"])
	assert.Equal(t, "example.com", snapshot["fromEnv"])
	assert.Equal(t, "7", snapshot["fromVars"])
}

func TestPreHandleVariablesVisibleToSubstitution(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	handler := &parser.Handler{Script: `request.variables.set("token", "abc")`}
	require.NoError(t, engine.PreHandle(handler, &parser.Request{Method: parser.MethodGet}))

	result, err := engine.Resolve("token")
	require.NoError(t, err)
	assert.Equal(t, "abc", result)
}

func TestRequestBodyViewNilIsNull(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	handler := &parser.Handler{Script: `client.global.set("isNull", request.body.getRawValue() === null ? "yes" : "no")`}
	require.NoError(t, engine.PreHandle(handler, &parser.Request{Method: parser.MethodGet}))
	assert.Equal(t, "yes", engine.Snapshot()["isNull"])
}

package http

import (
	"context"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDo(t *testing.T) {
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "token-123", r.Header.Get("X-Auth-Token"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"a":1}`, string(body))

		w.Header().Set("X-Request-Id", "abc")
		w.WriteHeader(201)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient()
	res, err := client.Do(context.Background(), &Request{
		Method: "POST",
		Target: server.URL,
		Headers: []Header{
			{Name: "X-Auth-Token", Value: "token-123"},
		},
		Body: `{"a":1}`,
	})
	require.NoError(t, err)

	assert.Equal(t, 201, res.StatusCode)
	assert.Equal(t, "abc", res.Headers["x-request-id"])
	assert.Equal(t, "abc", res.Header("X-Request-Id"))
	assert.Equal(t, `{"ok":true}`, res.BodyString())
	assert.Positive(t, res.Duration)
}

func TestClientDoGetWithoutBody(t *testing.T) {
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		_, _ = w.Write([]byte("plain"))
	}))
	defer server.Close()

	client := NewClient()
	res, err := client.Do(context.Background(), &Request{Method: "GET", Target: server.URL})
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "plain", res.BodyString())
}

func TestClientDoNoFollowRedirects(t *testing.T) {
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		stdhttp.Redirect(w, r, "/elsewhere", stdhttp.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(false))
	res, err := client.Do(context.Background(), &Request{Method: "GET", Target: server.URL})
	require.NoError(t, err)
	assert.Equal(t, 302, res.StatusCode)
}

func TestClientDoMaxRedirects(t *testing.T) {
	var hits int
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		hits++
		stdhttp.Redirect(w, r, fmt.Sprintf("/hop/%d", hits), stdhttp.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithMaxRedirects(2))
	res, err := client.Do(context.Background(), &Request{Method: "GET", Target: server.URL})
	require.NoError(t, err)

	// Two requests go out; the second redirect is handed back as-is.
	assert.Equal(t, 302, res.StatusCode)
	assert.Equal(t, 2, hits)
}

func TestResponseJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		object bool
	}{
		{"object", `{"token": "abc"}`, true},
		{"array", `[1, 2]`, false},
		{"scalar", `42`, false},
		{"invalid", `{nope`, false},
		{"empty", ``, false},
		{"text", `hello world`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &Response{Body: []byte(tt.body)}
			obj, ok := res.JSONObject()
			assert.Equal(t, tt.object, ok)
			if tt.object {
				assert.Equal(t, "abc", obj["token"])
			}
		})
	}
}

func TestRequestHeaderLookup(t *testing.T) {
	req := &Request{Headers: []Header{{Name: "Content-Type", Value: "application/json"}}}

	value, ok := req.Header("content-type")
	require.True(t, ok)
	assert.Equal(t, "application/json", value)

	_, ok = req.Header("Accept")
	assert.False(t, ok)
}

package llmclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"hello world"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	text, kind, e := c.Generate("llama3", "say hi", nil, Options{Temperature: 0.1, NumPredict: 100}, 5*time.Second)
	if e != nil {
		t.Fatalf("Generate returned error: %v", e)
	}
	if kind != "" {
		t.Fatalf("expected no failure kind on success, got %q", kind)
	}
	if text != "hello world" {
		t.Fatalf("got %q, want %q", text, "hello world")
	}
}

func TestGenerate_EmptyResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":""}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, kind, e := c.Generate("llama3", "say hi", nil, Options{}, 5*time.Second)
	if e == nil {
		t.Fatalf("expected an error for empty response")
	}
	if kind != FailureEmpty {
		t.Fatalf("expected FailureEmpty, got %q", kind)
	}
}

func TestGenerate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`internal error`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, kind, e := c.Generate("llama3", "say hi", nil, Options{}, 5*time.Second)
	if e == nil {
		t.Fatalf("expected an error for HTTP 500")
	}
	if kind != FailureHTTPError {
		t.Fatalf("expected FailureHTTPError, got %q", kind)
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1")
	_, kind, e := c.Generate("llama3", "say hi", nil, Options{}, 2*time.Second)
	if e == nil {
		t.Fatalf("expected an error for unreachable endpoint")
	}
	if kind != FailureUnreachable && kind != FailureTimeout {
		t.Fatalf("expected unreachable or timeout, got %q", kind)
	}
}

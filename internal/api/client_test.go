package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, timeout)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func TestGetJSONAcceptsOkEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","value":7}`))
	}, 0)
	var out struct {
		Value int `json:"value"`
	}
	if err := c.GetJSON(context.Background(), "/thing", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != 7 {
		t.Fatalf("decoded %d", out.Value)
	}
}

func TestGetJSONSurfacesBusinessRejectionDetail(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"error","detail":"instance limit reached"}`))
	}, 0)
	err := c.GetJSON(context.Background(), "/thing", nil)
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindRejected {
		t.Fatalf("kind = %v", apiErr.Kind)
	}
	if apiErr.Detail != "instance limit reached" {
		t.Fatalf("detail = %q", apiErr.Detail)
	}
}

func TestGetJSONRejectsOkEnvelopeWithNonOkStatusField(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pending"}`))
	}, 0)
	err := c.GetJSON(context.Background(), "/thing", nil)
	apiErr, ok := err.(*Error)
	if !ok || apiErr.Kind != KindRejected {
		t.Fatalf("expected rejection for status!=ok, got %v", err)
	}
}

func TestMalformedBodyIsDistinctFromHTTPError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}, 0)
	err := c.GetJSON(context.Background(), "/thing", nil)
	apiErr, ok := err.(*Error)
	if !ok || apiErr.Kind != KindMalformed {
		t.Fatalf("expected malformed kind, got %v", err)
	}
	if apiErr.Body == "" {
		t.Fatalf("raw body context missing")
	}
}

func TestGetRawChecksHTTPStatusOnly(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pwn1":{"title":"x"}}`))
	}, 0)
	var out map[string]any
	if err := c.GetRaw(context.Background(), "/api/challenges", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["pwn1"]; !ok {
		t.Fatalf("decoded %#v", out)
	}

	c2, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, 0)
	err := c2.GetRaw(context.Background(), "/api/challenges", &out)
	apiErr, ok := err.(*Error)
	if !ok || apiErr.Kind != KindHTTPStatus {
		t.Fatalf("expected http status kind, got %v", err)
	}
}

func TestTimeoutIsCancelledAndClassified(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)
	start := time.Now()
	err := c.GetJSON(context.Background(), "/slow", nil)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("call was not bounded by the client timeout")
	}
}

func TestBearerTokenHeaderWhenSet(t *testing.T) {
	var got string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"status":"ok"}`))
	}, 0)
	if err := c.GetJSON(context.Background(), "/me", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("no token set, header should be empty, got %q", got)
	}
	c.SetToken("abc")
	if err := c.GetJSON(context.Background(), "/me", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Bearer abc" {
		t.Fatalf("authorization header = %q", got)
	}
}

func TestCSRFTokenReadFromJar(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "tok123", Path: "/"})
		w.Write([]byte(`{"status":"ok"}`))
	}, 0)
	_ = srv
	if got := c.CSRFToken(); got != "" {
		t.Fatalf("jar should start empty, got %q", got)
	}
	if err := c.GetJSON(context.Background(), "/login", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.CSRFToken(); got != "tok123" {
		t.Fatalf("csrf token = %q", got)
	}
}

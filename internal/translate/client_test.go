package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientTranslate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %s, want /translate", r.URL.Path)
		}
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Q != "hello" || req.Target != "fr" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(translateResponse{TranslatedText: "bonjour"})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second)
	got, err := c.Translate(context.Background(), "hello", "fr")
	if err != nil {
		t.Fatal(err)
	}
	if got != "bonjour" {
		t.Fatalf("translated = %q, want bonjour", got)
	}
}

func TestClientTranslateServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second)
	if _, err := c.Translate(context.Background(), "hello", "fr"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestClientTranslateUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 100*time.Millisecond)
	if _, err := c.Translate(context.Background(), "hello", "fr"); err == nil {
		t.Fatal("expected error when service is unreachable")
	}
}

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(url string) *Client {
	return NewClient(Options{URL: url, Timeout: time.Second}, zerolog.Nop())
}

func TestIndexExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Fatalf("expected HEAD, got %s", r.Method)
		}
		if r.URL.Path == "/present" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	exists, err := client.IndexExists(context.Background(), "present")
	if err != nil {
		t.Fatalf("IndexExists should not fail: %v", err)
	}
	if !exists {
		t.Fatal("present index should be reported as existing")
	}

	exists, err = client.IndexExists(context.Background(), "absent")
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if exists {
		t.Fatal("absent index should not be reported as existing")
	}
}

func TestCreateIndexAlreadyExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "resource_already_exists_exception"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if err := client.CreateIndex(context.Background(), "dup"); err != nil {
		t.Fatalf("already existing index must not be an error: %v", err)
	}
}

func TestCreateIndexFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "cluster_block_exception"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if err := client.CreateIndex(context.Background(), "blocked"); err == nil {
		t.Fatal("non-duplicate failure must propagate")
	}
}

func TestIndexDocument(t *testing.T) {
	var gotPath string
	var gotDoc map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotDoc); err != nil {
			t.Fatalf("decode document: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	doc := map[string]any{"price": "42.5", "product": "BTC-USD"}
	if err := client.IndexDocument(context.Background(), "gdax-btc-usd", doc); err != nil {
		t.Fatalf("IndexDocument should succeed: %v", err)
	}

	if gotPath != "/gdax-btc-usd/_doc" {
		t.Fatalf("unexpected document path %s", gotPath)
	}
	if gotDoc["product"] != "BTC-USD" {
		t.Fatalf("document not round-tripped: %#v", gotDoc)
	}
}

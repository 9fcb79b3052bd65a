package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"grimm.is/allowsync/internal/itemset"
	"grimm.is/allowsync/internal/logging"
)

func TestFeedSourceFetchesBothFamilies(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/v4":
			w.Write([]byte("# edge ranges\n203.0.113.0/24\n198.51.100.7\n"))
		case "/v6":
			w.Write([]byte("2001:db8:aa::/48\n; stale\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewFeed(FeedConfig{
		Name:    "cdn",
		IPv4URL: srv.URL + "/v4",
		IPv6URL: srv.URL + "/v6",
	}, logging.Default())

	set, err := s.Desired(context.Background())
	if err != nil {
		t.Fatalf("Desired error: %v", err)
	}
	want := []string{"198.51.100.7", "2001:db8:aa::/48", "203.0.113.0/24"}
	if !reflect.DeepEqual(set.Items(), want) {
		t.Errorf("Items = %v, want %v", set.Items(), want)
	}
	if !strings.Contains(gotUA, "Allowsync/") {
		t.Errorf("Expected branded User-Agent, got %q", gotUA)
	}
	if s.Name() != "feed.cdn" {
		t.Errorf("Name = %q, want feed.cdn", s.Name())
	}
}

func TestFeedSourceSingleURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("203.0.113.0/24\n"))
	}))
	defer srv.Close()

	s := NewFeed(FeedConfig{Name: "cdn", IPv4URL: srv.URL}, logging.Default())
	set, err := s.Desired(context.Background())
	if err != nil {
		t.Fatalf("Desired error: %v", err)
	}
	if !set.Has("203.0.113.0/24") || set.Len() != 1 {
		t.Errorf("Items = %v", set.Items())
	}
}

func TestFeedSourceServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewFeed(FeedConfig{Name: "cdn", IPv4URL: srv.URL}, logging.Default())
	if _, err := s.Desired(context.Background()); err == nil {
		t.Error("Expected error for 500 response")
	}
}

func TestFeedSourceUnreachableFails(t *testing.T) {
	s := NewFeed(FeedConfig{Name: "cdn", IPv4URL: "http://127.0.0.1:1/v4"}, logging.Default())
	if _, err := s.Desired(context.Background()); err == nil {
		t.Error("Expected error for unreachable feed")
	}
}

func TestFeedSourceEmptyFeedIsEmptySetError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# nothing published\n"))
	}))
	defer srv.Close()

	s := NewFeed(FeedConfig{Name: "cdn", IPv4URL: srv.URL}, logging.Default())
	_, err := s.Desired(context.Background())
	if !errors.Is(err, itemset.ErrEmptyDesiredSet) {
		t.Errorf("Expected ErrEmptyDesiredSet, got %v", err)
	}
}

func TestFeedSourceExtrasKeepEmptyFeedAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n"))
	}))
	defer srv.Close()

	s := NewFeed(FeedConfig{
		Name:      "cdn",
		IPv4URL:   srv.URL,
		ExtraIPv4: []string{"198.51.100.7"},
	}, logging.Default())

	set, err := s.Desired(context.Background())
	if err != nil {
		t.Fatalf("Desired error: %v", err)
	}
	if !set.Has("198.51.100.7") {
		t.Errorf("Extra item missing: %v", set.Items())
	}
}

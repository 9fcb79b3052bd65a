package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"grimm.is/allowsync/internal/logging"
)

// fakeListAPI is an in-memory list API covering the routes the backend
// uses.
type fakeListAPI struct {
	mu     sync.Mutex
	lists  map[string][]string
	token  string
	calls  int
	lastUA string
}

func newFakeListAPI(token string) (*httptest.Server, *fakeListAPI) {
	f := &fakeListAPI{lists: make(map[string][]string), token: token}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	return srv, f
}

func (f *fakeListAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastUA = r.Header.Get("User-Agent")

	if f.token != "" && r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload struct {
		Name  string   `json:"name"`
		Items []string `json:"items"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/lists")
	switch {
	case path == "" && r.Method == http.MethodPost:
		f.lists[payload.Name] = append([]string(nil), payload.Items...)
		w.WriteHeader(http.StatusCreated)

	case strings.HasSuffix(path, "/items/delete") && r.Method == http.MethodPost:
		name := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/items/delete")
		kept := f.lists[name][:0]
		for _, item := range f.lists[name] {
			drop := false
			for _, gone := range payload.Items {
				if item == gone {
					drop = true
					break
				}
			}
			if !drop {
				kept = append(kept, item)
			}
		}
		f.lists[name] = kept

	case strings.HasSuffix(path, "/items") && r.Method == http.MethodPost:
		name := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/items")
		f.lists[name] = append(f.lists[name], payload.Items...)

	case r.Method == http.MethodGet:
		name := strings.TrimPrefix(path, "/")
		items, ok := f.lists[name]
		if !ok {
			http.Error(w, "no such list", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"name": name, "items": items})

	default:
		http.Error(w, "bad route", http.StatusBadRequest)
	}
}

func newTestHTTPBackend(srv *httptest.Server, token string) *HTTPBackend {
	cfg := HTTPConfig{
		BaseURL:    srv.URL + "/api/v1/", // trailing slash must be tolerated
		Collection: "blocked-ips",
		Token:      token,
	}
	return NewHTTP(cfg, logging.Default())
}

func TestHTTPBackend_FetchAndMutate(t *testing.T) {
	srv, api := newFakeListAPI("s3cret")
	defer srv.Close()
	api.lists["blocked-ips"] = []string{"1.1.1.1", "2.2.2.2"}

	be := newTestHTTPBackend(srv, "s3cret")
	ctx := context.Background()

	got, err := be.Fetch(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1", "2.2.2.2"}, got)
	assert.True(t, strings.HasPrefix(api.lastUA, "Allowsync/"), "unexpected user agent %q", api.lastUA)

	err = be.Add(ctx, []string{"3.3.3.3"})
	assert.NoError(t, err)
	err = be.Remove(ctx, []string{"1.1.1.1"})
	assert.NoError(t, err)

	got, err = be.Fetch(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"2.2.2.2", "3.3.3.3"}, got)
}

func TestHTTPBackend_FetchMissing(t *testing.T) {
	srv, _ := newFakeListAPI("")
	defer srv.Close()

	be := newTestHTTPBackend(srv, "")

	_, err := be.Fetch(context.Background())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrCollectionMissing))
}

func TestHTTPBackend_Create(t *testing.T) {
	srv, api := newFakeListAPI("")
	defer srv.Close()

	be := newTestHTTPBackend(srv, "")
	ctx := context.Background()

	err := be.Create(ctx, []string{"10.0.0.0/8"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8"}, api.lists["blocked-ips"])

	got, err := be.Fetch(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8"}, got)
}

func TestHTTPBackend_BadToken(t *testing.T) {
	srv, _ := newFakeListAPI("s3cret")
	defer srv.Close()

	be := newTestHTTPBackend(srv, "wrong")

	_, err := be.Fetch(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.False(t, errors.Is(err, ErrCollectionMissing))
}

func TestHTTPBackend_StatusErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	be := NewHTTP(HTTPConfig{BaseURL: srv.URL, Collection: "x"}, logging.Default())

	err := be.Add(context.Background(), []string{"1.1.1.1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "backend exploded")
}

func TestHTTPBackend_EmptyDeltaIsNoop(t *testing.T) {
	srv, api := newFakeListAPI("")
	defer srv.Close()

	be := newTestHTTPBackend(srv, "")

	assert.NoError(t, be.Add(context.Background(), nil))
	assert.NoError(t, be.Remove(context.Background(), nil))
	assert.Equal(t, 0, api.calls)
}

func TestHTTPBackend_Location(t *testing.T) {
	be := NewHTTP(HTTPConfig{BaseURL: "http://waf:8080/api/v1/", Collection: "allow"}, logging.Default())
	assert.Equal(t, "http://waf:8080/api/v1/lists/allow", be.Location())
}

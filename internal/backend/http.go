package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"grimm.is/allowsync/internal/brand"
	"grimm.is/allowsync/internal/logging"
)

const defaultAPITimeout = 15 * time.Second

// HTTPConfig configures a list-API collection.
type HTTPConfig struct {
	BaseURL    string // e.g. http://waf:8080/api/v1
	Collection string
	Token      string // bearer token, optional
	Timeout    time.Duration
}

// HTTPBackend talks to a REST list API:
//
//	GET  {base}/lists/{name}              -> {"name": ..., "items": [...]}
//	POST {base}/lists                     <- {"name": ..., "items": [...]}
//	POST {base}/lists/{name}/items        <- {"items": [...]}
//	POST {base}/lists/{name}/items/delete <- {"items": [...]}
type HTTPBackend struct {
	cfg    HTTPConfig
	log    *logging.Logger
	client *http.Client
}

type listPayload struct {
	Name  string   `json:"name,omitempty"`
	Items []string `json:"items"`
}

// NewHTTP creates a list-API backend.
func NewHTTP(cfg HTTPConfig, log *logging.Logger) *HTTPBackend {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultAPITimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPBackend{
		cfg:    cfg,
		log:    log.WithComponent("backend"),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch returns the recorded membership.
func (b *HTTPBackend) Fetch(ctx context.Context) ([]string, error) {
	resp, err := b.do(ctx, http.MethodGet, b.cfg.BaseURL+"/lists/"+b.cfg.Collection, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", b.Location(), ErrCollectionMissing)
	default:
		return nil, b.statusError("fetch", resp)
	}

	var payload listPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.Location(), err)
	}
	return payload.Items, nil
}

// Create creates the collection with an initial membership.
func (b *HTTPBackend) Create(ctx context.Context, items []string) error {
	resp, err := b.do(ctx, http.MethodPost, b.cfg.BaseURL+"/lists", listPayload{Name: b.cfg.Collection, Items: items})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return b.statusError("create", resp)
	}
	return nil
}

// Add inserts items into the collection.
func (b *HTTPBackend) Add(ctx context.Context, items []string) error {
	if len(items) == 0 {
		return nil
	}
	resp, err := b.do(ctx, http.MethodPost, b.cfg.BaseURL+"/lists/"+b.cfg.Collection+"/items", listPayload{Items: items})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return b.statusError("add", resp)
	}
	return nil
}

// Remove deletes items from the collection.
func (b *HTTPBackend) Remove(ctx context.Context, items []string) error {
	if len(items) == 0 {
		return nil
	}
	resp, err := b.do(ctx, http.MethodPost, b.cfg.BaseURL+"/lists/"+b.cfg.Collection+"/items/delete", listPayload{Items: items})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return b.statusError("remove", resp)
	}
	return nil
}

// Location describes the collection for logs.
func (b *HTTPBackend) Location() string {
	return b.cfg.BaseURL + "/lists/" + b.cfg.Collection
}

func (b *HTTPBackend) do(ctx context.Context, method, url string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", brand.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.Token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp, nil
}

func (b *HTTPBackend) statusError(op string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(detail))
	if msg != "" {
		return fmt.Errorf("%s %s: status %s: %s", op, b.Location(), resp.Status, msg)
	}
	return fmt.Errorf("%s %s: status %s", op, b.Location(), resp.Status)
}

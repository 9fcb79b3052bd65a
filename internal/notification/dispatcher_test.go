package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"grimm.is/allowsync/internal/config"
)

type capture struct {
	mu      sync.Mutex
	bodies  []string
	headers []http.Header
}

func (c *capture) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, string(body))
		c.headers = append(c.headers, r.Header.Clone())
		c.mu.Unlock()
	}))
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

func TestDispatcherWebhook(t *testing.T) {
	rec := &capture{}
	srv := rec.server()
	defer srv.Close()

	cfg := &config.NotificationsConfig{
		Enabled: true,
		Channels: []config.NotificationChannel{
			{Name: "ops", Type: "webhook", Enabled: true, WebhookURL: srv.URL},
		},
	}

	d := NewDispatcher(cfg, nil)
	d.Send(context.Background(), Notification{
		Title:   "sync complete",
		Message: "wireguard: +2 -1",
		Level:   LevelInfo,
	})

	if rec.count() != 1 {
		t.Fatalf("Expected 1 delivery, got %d", rec.count())
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(rec.bodies[0]), &payload); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if !strings.Contains(payload["text"], "sync complete") {
		t.Errorf("Expected title in payload, got %q", payload["text"])
	}
	if !strings.Contains(payload["text"], "wireguard: +2 -1") {
		t.Errorf("Expected message in payload, got %q", payload["text"])
	}
}

func TestDispatcherDiscordPayload(t *testing.T) {
	rec := &capture{}
	srv := rec.server()
	defer srv.Close()

	cfg := &config.NotificationsConfig{
		Enabled: true,
		Channels: []config.NotificationChannel{
			{Name: "chat", Type: "discord", Enabled: true, WebhookURL: srv.URL},
		},
	}

	d := NewDispatcher(cfg, nil)
	d.SendSimple(context.Background(), "title", "message", LevelWarning)

	if rec.count() != 1 {
		t.Fatalf("Expected 1 delivery, got %d", rec.count())
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(rec.bodies[0]), &payload); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if _, ok := payload["content"]; !ok {
		t.Errorf("Expected discord content payload, got %q", rec.bodies[0])
	}
}

func TestDispatcherNtfyHeaders(t *testing.T) {
	rec := &capture{}
	srv := rec.server()
	defer srv.Close()

	cfg := &config.NotificationsConfig{
		Enabled: true,
		Channels: []config.NotificationChannel{
			{
				Name:    "phone",
				Type:    "ntfy",
				Enabled: true,
				Server:  srv.URL,
				Topic:   "allowsync",
				Token:   "tk_test",
				Headers: map[string]string{"X-Extra": "1"},
			},
		},
	}

	d := NewDispatcher(cfg, nil)
	d.Send(context.Background(), Notification{Title: "t", Message: "m", Level: LevelCritical})

	if rec.count() != 1 {
		t.Fatalf("Expected 1 delivery, got %d", rec.count())
	}
	h := rec.headers[0]
	if h.Get("Title") != "t" {
		t.Errorf("Expected Title header, got %q", h.Get("Title"))
	}
	if h.Get("Priority") != "high" {
		t.Errorf("Expected high priority for critical, got %q", h.Get("Priority"))
	}
	if h.Get("Authorization") != "Bearer tk_test" {
		t.Errorf("Expected bearer token, got %q", h.Get("Authorization"))
	}
	if h.Get("X-Extra") != "1" {
		t.Errorf("Expected custom header, got %q", h.Get("X-Extra"))
	}
	if rec.bodies[0] != "m" {
		t.Errorf("Expected raw message body, got %q", rec.bodies[0])
	}
}

func TestDispatcherLevelFilter(t *testing.T) {
	rec := &capture{}
	srv := rec.server()
	defer srv.Close()

	cfg := &config.NotificationsConfig{
		Enabled: true,
		Channels: []config.NotificationChannel{
			{Name: "critical-only", Type: "webhook", Enabled: true, WebhookURL: srv.URL, Level: LevelCritical},
		},
	}

	d := NewDispatcher(cfg, nil)
	d.SendSimple(context.Background(), "t", "m", LevelInfo)
	d.SendSimple(context.Background(), "t", "m", LevelWarning)

	if rec.count() != 0 {
		t.Fatalf("Expected no deliveries below critical, got %d", rec.count())
	}

	d.SendSimple(context.Background(), "t", "m", LevelCritical)
	if rec.count() != 1 {
		t.Fatalf("Expected critical delivery, got %d", rec.count())
	}
}

func TestDispatcherDisabled(t *testing.T) {
	rec := &capture{}
	srv := rec.server()
	defer srv.Close()

	cfg := &config.NotificationsConfig{
		Enabled: false,
		Channels: []config.NotificationChannel{
			{Name: "ops", Type: "webhook", Enabled: true, WebhookURL: srv.URL},
		},
	}

	d := NewDispatcher(cfg, nil)
	d.SendSimple(context.Background(), "t", "m", LevelCritical)

	if rec.count() != 0 {
		t.Fatalf("Expected no deliveries when disabled, got %d", rec.count())
	}

	// A nil config behaves the same.
	d = NewDispatcher(nil, nil)
	d.SendSimple(context.Background(), "t", "m", LevelCritical)
}

func TestShouldSend(t *testing.T) {
	tests := []struct {
		msg     string
		channel string
		want    bool
	}{
		{LevelInfo, "", true},
		{LevelInfo, LevelInfo, true},
		{LevelInfo, LevelWarning, false},
		{LevelWarning, LevelWarning, true},
		{LevelCritical, LevelWarning, true},
		{LevelCritical, LevelCritical, true},
		{LevelInfo, LevelCritical, false},
	}

	for _, tt := range tests {
		if got := shouldSend(tt.msg, tt.channel); got != tt.want {
			t.Errorf("shouldSend(%q, %q): expected %v, got %v", tt.msg, tt.channel, got, tt.want)
		}
	}
}

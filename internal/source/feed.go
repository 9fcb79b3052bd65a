package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"grimm.is/allowsync/internal/brand"
	"grimm.is/allowsync/internal/itemset"
	"grimm.is/allowsync/internal/logging"
)

const (
	defaultFeedTimeout = 30 * time.Second

	// maxFeedSize caps how much of a feed body is read. Published CIDR
	// feeds are a few kilobytes; anything near this limit is a broken or
	// hostile endpoint.
	maxFeedSize = 10 << 20
)

// FeedConfig configures a published-list source. Each URL serves one item
// per line, with #/; comments tolerated. At least one URL must be set.
type FeedConfig struct {
	Name      string
	IPv4URL   string
	IPv6URL   string
	Mode      itemset.Mode
	PrefixLen int
	ExtraIPv4 []string
	ExtraIPv6 []string
	Timeout   time.Duration
}

// FeedSource fetches published address feeds over HTTP.
type FeedSource struct {
	cfg    FeedConfig
	log    *logging.Logger
	client *http.Client
}

// NewFeed creates a feed source.
func NewFeed(cfg FeedConfig, log *logging.Logger) *FeedSource {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultFeedTimeout
	}
	return &FeedSource{
		cfg:    cfg,
		log:    log.WithComponent("source"),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the configured identity.
func (s *FeedSource) Name() string {
	return "feed." + s.cfg.Name
}

// Desired fetches the configured feeds and builds the desired set. Feeds
// are fetched unconditionally: the desired state must be rebuilt from what
// the publisher currently serves, never from a cache.
func (s *FeedSource) Desired(ctx context.Context) (itemset.Set, error) {
	var v4, v6 []string
	if s.cfg.IPv4URL != "" {
		items, err := s.fetch(ctx, s.cfg.IPv4URL)
		if err != nil {
			return nil, fmt.Errorf("source %s: ipv4 feed: %w", s.Name(), err)
		}
		v4 = items
	}
	if s.cfg.IPv6URL != "" {
		items, err := s.fetch(ctx, s.cfg.IPv6URL)
		if err != nil {
			return nil, fmt.Errorf("source %s: ipv6 feed: %w", s.Name(), err)
		}
		v6 = items
	}

	s.log.Debug("fetched feed source",
		"source", s.Name(), "ipv4", len(v4), "ipv6", len(v6))

	v4 = append(v4, s.cfg.ExtraIPv4...)
	v6 = append(v6, s.cfg.ExtraIPv6...)

	set, err := itemset.Build(v4, v6, s.cfg.Mode, s.cfg.PrefixLen)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.Name(), err)
	}
	return set, nil
}

// fetch downloads one feed and reduces it to candidate items.
func (s *FeedSource) fetch(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", brand.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	var lines []string
	scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxFeedSize))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	return itemset.FilterCandidates(lines), nil
}

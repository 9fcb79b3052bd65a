package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"

	"grimm.is/allowsync/internal/itemset"
	"grimm.is/allowsync/internal/logging"
)

const defaultQueryTimeout = 5 * time.Second

// DNSConfig configures a DNS-backed source. The domain's A and AAAA records
// are the candidate streams.
type DNSConfig struct {
	Name      string
	Domain    string
	Server    string // host or host:port; system resolver when empty
	Mode      itemset.Mode
	PrefixLen int
	ExtraIPv4 []string
	ExtraIPv6 []string
	Timeout   time.Duration
}

// DNSSource resolves a dynamic DNS name into the desired set.
type DNSSource struct {
	cfg DNSConfig
	log *logging.Logger

	// exchange is swappable for tests.
	exchange func(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error)
}

// NewDNS creates a DNS source.
func NewDNS(cfg DNSConfig, log *logging.Logger) *DNSSource {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultQueryTimeout
	}
	s := &DNSSource{
		cfg: cfg,
		log: log.WithComponent("source"),
	}
	s.exchange = s.realExchange
	return s
}

// Name returns the configured identity.
func (s *DNSSource) Name() string {
	return "dns." + s.cfg.Name
}

// Desired queries A and AAAA records for the configured domain and builds
// the desired set from the answers plus any static extras.
func (s *DNSSource) Desired(ctx context.Context) (itemset.Set, error) {
	servers, err := s.servers()
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.Name(), err)
	}

	v4, err := s.query(ctx, servers, dns.TypeA)
	if err != nil {
		return nil, fmt.Errorf("source %s: A lookup: %w", s.Name(), err)
	}
	v6, err := s.query(ctx, servers, dns.TypeAAAA)
	if err != nil {
		return nil, fmt.Errorf("source %s: AAAA lookup: %w", s.Name(), err)
	}

	s.log.Debug("resolved dns source",
		"source", s.Name(), "domain", s.cfg.Domain,
		"ipv4", len(v4), "ipv6", len(v6))

	v4 = append(v4, s.cfg.ExtraIPv4...)
	v6 = append(v6, s.cfg.ExtraIPv6...)

	set, err := itemset.Build(v4, v6, s.cfg.Mode, s.cfg.PrefixLen)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.Name(), err)
	}
	return set, nil
}

// servers returns the resolver addresses to try, in order.
func (s *DNSSource) servers() ([]string, error) {
	if s.cfg.Server != "" {
		addr := s.cfg.Server
		if !strings.Contains(addr, ":") {
			addr = addr + ":53"
		}
		return []string{addr}, nil
	}
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return nil, fmt.Errorf("read resolv.conf: %w", err)
	}
	if len(conf.Servers) == 0 {
		return nil, fmt.Errorf("no resolvers configured")
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, srv := range conf.Servers {
		servers = append(servers, srv+":"+conf.Port)
	}
	return servers, nil
}

// query asks each server in turn for qtype records and extracts the
// addresses from the first answered response. Non-address records in the
// answer section (CNAMEs along the chain) are skipped.
func (s *DNSSource) query(ctx context.Context, servers []string, qtype uint16) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(s.cfg.Domain), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range servers {
		resp, err := s.exchange(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("server %s returned %s for %s", server, dns.RcodeToString[resp.Rcode], s.cfg.Domain)
			continue
		}

		var addrs []string
		for _, rr := range resp.Answer {
			switch record := rr.(type) {
			case *dns.A:
				addrs = append(addrs, record.A.String())
			case *dns.AAAA:
				addrs = append(addrs, record.AAAA.String())
			}
		}
		return addrs, nil
	}
	return nil, lastErr
}

// realExchange performs the query over UDP, retrying over TCP when the
// response came back truncated.
func (s *DNSSource) realExchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	c := new(dns.Client)
	c.Timeout = s.cfg.Timeout
	c.Net = "udp"

	resp, _, err := c.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		c.Net = "tcp"
		resp, _, err = c.ExchangeContext(ctx, msg, server)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

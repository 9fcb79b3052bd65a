package syncer

import (
	"fmt"
	"time"

	"grimm.is/allowsync/internal/backend"
	"grimm.is/allowsync/internal/config"
	"grimm.is/allowsync/internal/docstore"
	"grimm.is/allowsync/internal/itemset"
	"grimm.is/allowsync/internal/logging"
	"grimm.is/allowsync/internal/markers"
	"grimm.is/allowsync/internal/source"
)

// New assembles a Syncer from a validated config. Construction resolves
// every block into its runtime collaborator, so a config that passed
// Validate can still fail here on platform limits (nftset targets off
// Linux).
func New(cfg *config.Config, log *logging.Logger) (*Syncer, error) {
	if log == nil {
		log = logging.Default()
	}
	s := &Syncer{
		log:     log.WithComponent("syncer"),
		sources: make(map[string]source.Source, len(cfg.Sources)),
	}

	for _, block := range cfg.Sources {
		src, err := buildSource(block, log)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", block.Ref(), err)
		}
		s.sources[block.Ref()] = src
	}

	for _, block := range cfg.Targets {
		t, err := buildTarget(block, log)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", block.Name, err)
		}
		if _, ok := s.sources[t.SourceRef()]; !ok {
			return nil, fmt.Errorf("target %s: unknown source %q", block.Name, t.SourceRef())
		}
		s.targets = append(s.targets, t)
	}

	return s, nil
}

func buildSource(block config.SourceBlock, log *logging.Logger) (source.Source, error) {
	mode, err := itemset.ParseMode(block.IPv6Mode)
	if err != nil {
		return nil, err
	}
	timeout, err := parseTimeout(block.Timeout)
	if err != nil {
		return nil, err
	}

	switch block.Kind {
	case "dns":
		return source.NewDNS(source.DNSConfig{
			Name:      block.Name,
			Domain:    block.Domain,
			Server:    block.Server,
			Mode:      mode,
			PrefixLen: block.IPv6PrefixLen,
			ExtraIPv4: block.ExtraIPv4,
			ExtraIPv6: block.ExtraIPv6,
			Timeout:   timeout,
		}, log), nil
	case "feed":
		return source.NewFeed(source.FeedConfig{
			Name:      block.Name,
			IPv4URL:   block.IPv4URL,
			IPv6URL:   block.IPv6URL,
			Mode:      mode,
			PrefixLen: block.IPv6PrefixLen,
			ExtraIPv4: block.ExtraIPv4,
			ExtraIPv6: block.ExtraIPv6,
			Timeout:   timeout,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", block.Kind)
	}
}

func buildTarget(block config.TargetBlock, log *logging.Logger) (Target, error) {
	switch block.Kind {
	case "document":
		indent, err := markers.ParseIndentStrategy(block.Indent)
		if err != nil {
			return nil, err
		}
		var store docstore.Store
		if block.Container != "" {
			store = docstore.NewExec(block.Engine, block.Container, block.Path, nil)
		} else {
			store = docstore.NewFile(block.Path)
		}
		return NewDocument(DocumentConfig{
			Name:          block.Name,
			SourceRef:     block.Source,
			Marker:        block.Marker,
			FamilyMarkers: block.FamilyMarkers,
			CommentToken:  block.CommentToken,
			Indent:        indent,
			VerifyYAML:    block.VerifyYAML,
			Restart:       block.Restart,
		}, store, log), nil

	case "list":
		timeout, err := parseTimeout(block.Timeout)
		if err != nil {
			return nil, err
		}
		b := backend.NewHTTP(backend.HTTPConfig{
			BaseURL:    block.URL,
			Collection: block.Collection,
			Token:      block.ResolveToken(),
			Timeout:    timeout,
		}, log)
		return NewList(block.Name, "list", block.Source, b, log), nil

	case "nftset":
		b, err := backend.NewNFTSet(backend.NFTSetConfig{
			Table: block.Table,
			SetV4: block.SetV4,
			SetV6: block.SetV6,
		}, log)
		if err != nil {
			return nil, err
		}
		return NewList(block.Name, "nftset", block.Source, b, log), nil

	default:
		return nil, fmt.Errorf("unknown target kind %q", block.Kind)
	}
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	return d, nil
}

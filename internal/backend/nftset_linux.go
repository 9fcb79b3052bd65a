//go:build linux
// +build linux

package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strings"

	"github.com/google/nftables"

	"grimm.is/allowsync/internal/logging"
)

// NFTSetBackend keeps a pair of interval sets in an inet table in sync.
// IPv4 items go into SetV4 and IPv6 items into SetV6; a set name left
// empty means that family is not managed here. All items, hosts
// included, are stored as [start, end) interval pairs so the recorded
// contents can be read back as addresses and prefixes.
type NFTSetBackend struct {
	cfg  NFTSetConfig
	conn NFTablesConn
	log  *logging.Logger

	table *nftables.Table
	sets  map[string]*nftables.Set
}

// NewNFTSet connects to nftables and returns a backend for the
// configured table and sets.
func NewNFTSet(cfg NFTSetConfig, log *logging.Logger) (*NFTSetBackend, error) {
	conn, err := nftables.New()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nftables: %w", err)
	}
	return newNFTSetWithConn(cfg, NewRealNFTablesConn(conn), log), nil
}

// newNFTSetWithConn creates a backend with a custom connection (for testing).
func newNFTSetWithConn(cfg NFTSetConfig, conn NFTablesConn, log *logging.Logger) *NFTSetBackend {
	if log == nil {
		log = logging.Default()
	}
	return &NFTSetBackend{
		cfg:  cfg,
		conn: conn,
		log:  log.WithComponent("nftset"),
		sets: make(map[string]*nftables.Set),
	}
}

// getTable returns the table reference, finding it if needed.
func (b *NFTSetBackend) getTable() (*nftables.Table, error) {
	if b.table != nil {
		return b.table, nil
	}

	tables, err := b.conn.ListTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	for _, t := range tables {
		if t.Name == b.cfg.Table && t.Family == nftables.TableFamilyINet {
			b.table = t
			return t, nil
		}
	}

	return nil, fmt.Errorf("table %s: %w", b.cfg.Table, ErrCollectionMissing)
}

// getSet returns a set reference by name, finding it if needed.
func (b *NFTSetBackend) getSet(name string) (*nftables.Set, error) {
	if s, ok := b.sets[name]; ok {
		return s, nil
	}

	table, err := b.getTable()
	if err != nil {
		return nil, err
	}

	sets, err := b.conn.GetSets(table)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets: %w", err)
	}

	for _, s := range sets {
		if s.Name == name {
			b.sets[name] = s
			return s, nil
		}
	}

	return nil, fmt.Errorf("set %s: %w", name, ErrCollectionMissing)
}

func (b *NFTSetBackend) setNames() []string {
	names := make([]string, 0, 2)
	if b.cfg.SetV4 != "" {
		names = append(names, b.cfg.SetV4)
	}
	if b.cfg.SetV6 != "" {
		names = append(names, b.cfg.SetV6)
	}
	return names
}

// Fetch reads the current contents of the managed sets.
func (b *NFTSetBackend) Fetch(_ context.Context) ([]string, error) {
	items := make([]string, 0)
	for _, name := range b.setNames() {
		set, err := b.getSet(name)
		if err != nil {
			return nil, err
		}

		elements, err := b.conn.GetSetElements(set)
		if err != nil {
			return nil, fmt.Errorf("failed to read set %s: %w", name, err)
		}

		items = append(items, b.itemsFromElements(name, elements)...)
	}
	sort.Strings(items)
	return items, nil
}

// Create makes the table and sets if they do not exist, then loads the
// initial items.
func (b *NFTSetBackend) Create(ctx context.Context, items []string) error {
	table, err := b.getTable()
	if err != nil {
		if !errors.Is(err, ErrCollectionMissing) {
			return err
		}
		table = b.conn.AddTable(&nftables.Table{
			Name:   b.cfg.Table,
			Family: nftables.TableFamilyINet,
		})
		b.table = table
	}

	if b.cfg.SetV4 != "" {
		set := &nftables.Set{
			Name:     b.cfg.SetV4,
			Table:    table,
			KeyType:  nftables.TypeIPAddr,
			Interval: true,
		}
		if err := b.conn.AddSet(set, nil); err != nil {
			return fmt.Errorf("failed to add set %s: %w", set.Name, err)
		}
		b.sets[set.Name] = set
	}
	if b.cfg.SetV6 != "" {
		set := &nftables.Set{
			Name:     b.cfg.SetV6,
			Table:    table,
			KeyType:  nftables.TypeIP6Addr,
			Interval: true,
		}
		if err := b.conn.AddSet(set, nil); err != nil {
			return fmt.Errorf("failed to add set %s: %w", set.Name, err)
		}
		b.sets[set.Name] = set
	}

	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	return b.Add(ctx, items)
}

// Add inserts items into the managed sets.
func (b *NFTSetBackend) Add(_ context.Context, items []string) error {
	if len(items) == 0 {
		return nil
	}
	return b.applyElements(items, func(set *nftables.Set, elems []nftables.SetElement) error {
		if err := b.conn.SetAddElements(set, elems); err != nil {
			return fmt.Errorf("failed to add elements to %s: %w", set.Name, err)
		}
		return nil
	})
}

// Remove deletes items from the managed sets.
func (b *NFTSetBackend) Remove(_ context.Context, items []string) error {
	if len(items) == 0 {
		return nil
	}
	return b.applyElements(items, func(set *nftables.Set, elems []nftables.SetElement) error {
		if err := b.conn.SetDeleteElements(set, elems); err != nil {
			return fmt.Errorf("failed to delete elements from %s: %w", set.Name, err)
		}
		return nil
	})
}

// Location identifies the table and sets for logs and reports.
func (b *NFTSetBackend) Location() string {
	return fmt.Sprintf("nft:%s/%s", b.cfg.Table, strings.Join(b.setNames(), ","))
}

// applyElements splits items by family, converts them to interval
// pairs, applies op per set, and commits once.
func (b *NFTSetBackend) applyElements(items []string, op func(*nftables.Set, []nftables.SetElement) error) error {
	v4, v6, err := b.elements(items)
	if err != nil {
		return err
	}

	if len(v4) > 0 {
		set, err := b.getSet(b.cfg.SetV4)
		if err != nil {
			return err
		}
		if err := op(set, v4); err != nil {
			return err
		}
	}
	if len(v6) > 0 {
		set, err := b.getSet(b.cfg.SetV6)
		if err != nil {
			return err
		}
		if err := op(set, v6); err != nil {
			return err
		}
	}

	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// elements converts items to per-family interval element pairs.
func (b *NFTSetBackend) elements(items []string) (v4, v6 []nftables.SetElement, err error) {
	for _, item := range items {
		prefix, err := itemPrefix(item)
		if err != nil {
			return nil, nil, err
		}
		pair := intervalPair(prefix)
		if prefix.Addr().Is4() {
			if b.cfg.SetV4 == "" {
				return nil, nil, fmt.Errorf("no IPv4 set configured for item %s", item)
			}
			v4 = append(v4, pair...)
		} else {
			if b.cfg.SetV6 == "" {
				return nil, nil, fmt.Errorf("no IPv6 set configured for item %s", item)
			}
			v6 = append(v6, pair...)
		}
	}
	return v4, v6, nil
}

// itemPrefix parses an item as a prefix; bare addresses become
// single-address prefixes.
func itemPrefix(item string) (netip.Prefix, error) {
	if strings.Contains(item, "/") {
		p, err := netip.ParsePrefix(item)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid item %q: %w", item, err)
		}
		return p.Masked(), nil
	}
	a, err := netip.ParseAddr(item)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid item %q: %w", item, err)
	}
	return netip.PrefixFrom(a, a.BitLen()), nil
}

// intervalPair encodes a prefix as a start element plus an exclusive
// end element, the representation interval sets use.
func intervalPair(p netip.Prefix) []nftables.SetElement {
	return []nftables.SetElement{
		{Key: p.Masked().Addr().AsSlice()},
		{Key: exclusiveEnd(p), IntervalEnd: true},
	}
}

// exclusiveEnd returns the first address after the prefix as raw bytes.
func exclusiveEnd(p netip.Prefix) []byte {
	end := p.Masked().Addr().AsSlice()
	mask := net.CIDRMask(p.Bits(), len(end)*8)
	for i := range end {
		end[i] |= ^mask[i]
	}
	// Increment for exclusive end
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			break
		}
	}
	return end
}

// itemsFromElements pairs sorted start/end elements back into items.
// Ranges that do not correspond to a single address or prefix are
// skipped, so they are never touched by a delta.
func (b *NFTSetBackend) itemsFromElements(setName string, elements []nftables.SetElement) []string {
	sort.Slice(elements, func(i, j int) bool {
		c := bytes.Compare(elements[i].Key, elements[j].Key)
		if c != 0 {
			return c < 0
		}
		// Adjacent ranges share a boundary key. The end comes first.
		return elements[i].IntervalEnd && !elements[j].IntervalEnd
	})

	var items []string
	var start netip.Addr
	haveStart := false
	for _, e := range elements {
		if e.IntervalEnd {
			if !haveStart {
				// Interval sets carry a zero end marker with no start.
				continue
			}
			if item, ok := rangeItem(start, e.Key); ok {
				items = append(items, item)
			} else {
				b.log.Warn("Skipping unrecognized range in set", "set", setName, "start", start.String())
			}
			haveStart = false
			continue
		}

		a, ok := netip.AddrFromSlice(e.Key)
		if !ok {
			b.log.Warn("Skipping element with unexpected key length", "set", setName, "length", len(e.Key))
			haveStart = false
			continue
		}
		if haveStart {
			b.log.Warn("Skipping unpaired range start in set", "set", setName, "start", start.String())
		}
		start = a
		haveStart = true
	}
	if haveStart {
		b.log.Warn("Skipping unbounded range in set", "set", setName, "start", start.String())
	}
	return items
}

// rangeItem recovers the item for a [start, end) range. A range one
// address wide renders as a bare address, wider aligned ranges as a
// prefix.
func rangeItem(start netip.Addr, endKey []byte) (string, bool) {
	if len(endKey) != len(start.AsSlice()) {
		return "", false
	}
	for bits := start.BitLen(); bits >= 0; bits-- {
		p := netip.PrefixFrom(start, bits)
		if p.Masked().Addr() != start {
			// Start is not aligned at this width or any wider one.
			break
		}
		if bytes.Equal(exclusiveEnd(p), endKey) {
			if bits == start.BitLen() {
				return start.String(), true
			}
			return p.String(), true
		}
	}
	return "", false
}

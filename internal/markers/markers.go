// Package markers rewrites managed regions inside configuration documents
// that this tool does not own. A region is delimited by a BEGIN/END comment
// pair; only the lines strictly between the pair are ever replaced. The
// document is treated as opaque text, so the rewriter works on any line
// oriented format regardless of what surrounds the markers.
//
// Two marker families exist. Named regions carry an operator-chosen
// identity:
//
//	# BEGIN managed: dyn.example.net
//	    - 192.0.2.10
//	# END managed: dyn.example.net
//
// Family regions are fixed per address family:
//
//	# BEGIN managed ipv4
//	# END managed ipv4
//
// Identity matching is exact and case-sensitive, and the identity token must
// end at whitespace or end of line, so "x.test" never claims regions of
// "x.test-backup". Text after the identity is tolerated and preserved; the
// BEGIN and END lines themselves are never rewritten.
package markers

import (
	"fmt"
	"sort"
	"strings"
)

// IndentStrategy selects how body lines are indented relative to the
// markers.
type IndentStrategy string

const (
	// IndentFixed indents body lines two spaces past the BEGIN line.
	IndentFixed IndentStrategy = "fixed"
	// IndentInherit reuses the indentation of the region's existing body,
	// falling back to IndentFixed when the region is empty.
	IndentInherit IndentStrategy = "inherit"
)

// ParseIndentStrategy maps a config string to a strategy. Empty defaults to
// fixed.
func ParseIndentStrategy(s string) (IndentStrategy, error) {
	switch s {
	case "", string(IndentFixed):
		return IndentFixed, nil
	case string(IndentInherit):
		return IndentInherit, nil
	}
	return "", fmt.Errorf("unknown indent strategy %q (want fixed or inherit)", s)
}

// Marker identifies one managed region family within a document. Exactly
// one of Name or Family is set.
type Marker struct {
	Name   string
	Family string
}

// Named returns the marker for an operator-chosen region identity.
func Named(name string) Marker {
	return Marker{Name: name}
}

// ForFamily returns the fixed marker for an address family region
// ("ipv4" or "ipv6").
func ForFamily(family string) Marker {
	return Marker{Family: family}
}

func (m Marker) String() string {
	if m.Name != "" {
		return "managed: " + m.Name
	}
	return "managed " + m.Family
}

// Options control matching and rendering. The zero value is usable: comment
// token "#" and fixed indentation.
type Options struct {
	CommentToken string
	Indent       IndentStrategy
}

func (o Options) withDefaults() Options {
	if o.CommentToken == "" {
		o.CommentToken = "#"
	}
	if o.Indent == "" {
		o.Indent = IndentFixed
	}
	return o
}

// Region is one located instance of a marker pair. Line indices refer to
// the document split on "\n"; Body excludes the marker lines.
type Region struct {
	BeginLine int
	EndLine   int
	Indent    string
	Body      []string
}

// bodyIndent resolves the indentation rendered body lines should carry.
func (r Region) bodyIndent(strategy IndentStrategy) string {
	if strategy == IndentInherit {
		for _, line := range r.Body {
			trimmed := strings.TrimLeft(line, " \t")
			if strings.HasPrefix(trimmed, "- ") {
				return line[:len(line)-len(trimmed)]
			}
		}
	}
	return r.Indent + "  "
}

// parseMarkerLine dissects one document line. A marker line is optional
// whitespace, the comment token, whitespace, BEGIN or END, and the managed
// label. It returns the verb, the identity marker, and the leading
// whitespace; ok is false for every other line.
func parseMarkerLine(line, commentToken string) (verb string, m Marker, indent string, ok bool) {
	rest := strings.TrimLeft(line, " \t")
	indent = line[:len(line)-len(rest)]
	if !strings.HasPrefix(rest, commentToken) {
		return "", Marker{}, "", false
	}
	rest = rest[len(commentToken):]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", Marker{}, "", false
	}
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return "", Marker{}, "", false
	}
	if fields[0] != "BEGIN" && fields[0] != "END" {
		return "", Marker{}, "", false
	}
	switch fields[1] {
	case "managed:":
		return fields[0], Named(fields[2]), indent, true
	case "managed":
		return fields[0], ForFamily(fields[2]), indent, true
	}
	return "", Marker{}, "", false
}

// Locate finds every non-overlapping region of m in doc, scanning top to
// bottom. Pairing is non-greedy: the first END with the same identity
// closes an open BEGIN. A BEGIN that never sees its END is skipped and the
// scan resumes on the following line, so a torn region cannot swallow the
// rest of the document.
func Locate(doc string, m Marker, opts Options) []Region {
	opts = opts.withDefaults()
	lines := strings.Split(doc, "\n")

	var regions []Region
	for i := 0; i < len(lines); i++ {
		verb, got, indent, ok := parseMarkerLine(lines[i], opts.CommentToken)
		if !ok || verb != "BEGIN" || got != m {
			continue
		}
		closed := false
		for j := i + 1; j < len(lines); j++ {
			verb, got, _, ok := parseMarkerLine(lines[j], opts.CommentToken)
			if !ok || verb != "END" || got != m {
				continue
			}
			regions = append(regions, Region{
				BeginLine: i,
				EndLine:   j,
				Indent:    indent,
				Body:      lines[i+1 : j],
			})
			i = j
			closed = true
			break
		}
		if !closed {
			// Unmatched BEGIN. Leave it and everything after it alone.
			break
		}
	}
	return regions
}

// Rewrite replaces the body of every region of m in doc with one line per
// item, "- <item>", indented per the configured strategy. Items are
// rendered in lexicographic order so the result is deterministic. The
// returned flag reports whether the document actually changed; a document
// containing no matching region is returned untouched with changed false,
// and rewriting an already current document is a no-op.
func Rewrite(doc string, m Marker, items []string, opts Options) (string, bool) {
	opts = opts.withDefaults()
	regions := Locate(doc, m, opts)
	if len(regions) == 0 {
		return doc, false
	}

	sorted := append([]string(nil), items...)
	sort.Strings(sorted)

	lines := strings.Split(doc, "\n")
	out := make([]string, 0, len(lines))
	next := 0
	for _, r := range regions {
		out = append(out, lines[next:r.BeginLine+1]...)
		indent := r.bodyIndent(opts.Indent)
		for _, item := range sorted {
			out = append(out, indent+"- "+item)
		}
		out = append(out, lines[r.EndLine])
		next = r.EndLine + 1
	}
	out = append(out, lines[next:]...)

	result := strings.Join(out, "\n")
	return result, result != doc
}

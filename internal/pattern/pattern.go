// Package pattern classifies route path patterns and compiles their
// wildcard forms into anchored regular expressions.
//
// A pattern is either a literal path, or a path containing "*" (any run
// of characters except "/") and "**" (any run of characters). Patterns
// that start with a wildcard are matched from the end of the path.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Wildcard is the character that introduces a wildcard run.
const Wildcard = '*'

// MatchType classifies how a pattern is indexed and matched.
type MatchType int

const (
	// Equals patterns contain no wildcard and match byte-identical paths.
	Equals MatchType = iota
	// Prefix patterns contain a wildcard after a literal prefix.
	Prefix
	// Suffix patterns start with a wildcard and are indexed reversed.
	Suffix
)

// String returns the match type name.
func (t MatchType) String() string {
	switch t {
	case Equals:
		return "equals"
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	default:
		return "unknown"
	}
}

// Pattern is a compiled route path pattern.
type Pattern struct {
	// Path is the pattern as declared.
	Path string
	// Type is the pattern classification.
	Type MatchType
	// Key is the literal text before the first wildcard run. For Suffix
	// patterns it is taken from the reversed pattern and stays reversed.
	Key string
	// Regexp is the anchored full-match expression. It is nil for Equals
	// patterns and is applied to the reversed path for Suffix patterns.
	Regexp *regexp.Regexp
}

// Compile classifies path and builds its matcher. Only the first
// character decides between Suffix and the other types, so "*.png" is a
// Suffix pattern while "/img/*.png" is a Prefix pattern.
func Compile(path string) (*Pattern, error) {
	p := &Pattern{Path: path, Type: Equals, Key: path}

	subject := path
	if path != "" && path[0] == Wildcard {
		p.Type = Suffix
		subject = Reverse(path)
	}

	parts := split(subject)
	if len(parts) == 1 {
		return p, nil
	}

	if p.Type != Suffix {
		p.Type = Prefix
	}
	p.Key = parts[0]

	rx, err := regexp.Compile(toRegexp(parts))
	if err != nil {
		return nil, fmt.Errorf("failed to compile path pattern %q: %w", path, err)
	}
	p.Regexp = rx
	return p, nil
}

// Match reports whether path satisfies the pattern. For Suffix patterns
// path must already be reversed.
func (p *Pattern) Match(path string) bool {
	if p.Type == Equals {
		return path == p.Path
	}
	if !strings.HasPrefix(path, p.Key) {
		return false
	}
	return p.Regexp.MatchString(path)
}

// split cuts s into alternating literal and wildcard-run parts. The
// result always starts with a literal (possibly empty); wildcard runs
// sit at odd indices.
func split(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); {
		if s[i] != Wildcard {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == Wildcard {
			j++
		}
		parts = append(parts, s[start:i], s[i:j])
		start = j
		i = j
	}
	return append(parts, s[start:])
}

func toRegexp(parts []string) string {
	var sb strings.Builder
	sb.WriteByte('^')
	for i, part := range parts {
		switch {
		case i%2 == 0:
			sb.WriteString(regexp.QuoteMeta(part))
		case len(part) == 1:
			sb.WriteString("[^/]*")
		default:
			sb.WriteString(".*")
		}
	}
	sb.WriteByte('$')
	return sb.String()
}

// Reverse returns s with its characters in reverse order. Multi-byte
// UTF-8 sequences keep their internal byte order so the result stays a
// valid pattern source; invalid bytes are moved one at a time.
func Reverse(s string) string {
	b := make([]byte, len(s))
	end := len(s)
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		copy(b[end-size:end], s[i:i+size])
		end -= size
		i += size
	}
	return string(b)
}

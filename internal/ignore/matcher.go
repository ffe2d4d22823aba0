package ignore

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// PatternMatcher ignores candidate paths matching any of a set of glob
// patterns. Patterns use '/' as separator, '*' stays within one path
// segment and '**' crosses segments. A pattern without '/' is matched
// against the base name only.
type PatternMatcher struct {
	patterns []pattern
}

type pattern struct {
	source   string
	glob     glob.Glob
	baseOnly bool
}

func NewPatternMatcher(patterns []string) (*PatternMatcher, error) {
	m := &PatternMatcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		g, err := glob.Compile(strings.TrimPrefix(p, "/"), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, pattern{
			source:   p,
			glob:     g,
			baseOnly: !strings.Contains(p, "/"),
		})
	}
	return m, nil
}

// Ignore reports whether p, a slash separated path relative to a scope
// root, matches a pattern.
func (m *PatternMatcher) Ignore(p string) bool {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	for _, pat := range m.patterns {
		target := p
		if pat.baseOnly {
			target = path.Base(p)
		}
		if pat.glob.Match(target) {
			return true
		}
	}
	return false
}

// Patterns returns the active patterns.
func (m *PatternMatcher) Patterns() []string {
	out := make([]string, 0, len(m.patterns))
	for _, p := range m.patterns {
		out = append(out, p.source)
	}
	return out
}

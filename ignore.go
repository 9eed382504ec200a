// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package requestlog

import "strings"

// PathMatcher reports whether a request path is exempt from logging.
// It is immutable once compiled and safe for concurrent use.
type PathMatcher struct {
	patterns []pattern
}

// pattern is a wildcard path split on '*'. A pattern without wildcards has a
// single part and matches only that exact path.
type pattern struct {
	source string
	parts  []string
}

// CompileIgnorePaths compiles wildcard path patterns. Each '*' matches any
// sequence of characters, including none; everything else matches literally,
// and the pattern must cover the whole path. Duplicate patterns are dropped.
//
// An empty or whitespace-only entry fails with [ErrEmptyIgnorePath].
func CompileIgnorePaths(paths ...string) (*PathMatcher, error) {
	m := &PathMatcher{patterns: make([]pattern, 0, len(paths))}
	seen := make(map[string]struct{}, len(paths))

	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return nil, emptyIgnorePathError()
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		m.patterns = append(m.patterns, pattern{source: p, parts: strings.Split(p, "*")})
	}

	return m, nil
}

// Patterns returns the compiled patterns in configuration order.
func (m *PathMatcher) Patterns() []string {
	if m == nil {
		return nil
	}

	out := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = p.source
	}

	return out
}

// Len returns the number of distinct patterns.
func (m *PathMatcher) Len() int {
	if m == nil {
		return 0
	}

	return len(m.patterns)
}

// Match reports whether path fully matches any pattern.
func (m *PathMatcher) Match(path string) bool {
	if m == nil {
		return false
	}
	for i := range m.patterns {
		if m.patterns[i].match(path) {
			return true
		}
	}

	return false
}

func (p *pattern) match(s string) bool {
	if len(p.parts) == 1 {
		return s == p.parts[0]
	}

	first, last := p.parts[0], p.parts[len(p.parts)-1]
	if len(s) < len(first)+len(last) ||
		!strings.HasPrefix(s, first) || !strings.HasSuffix(s, last) {
		return false
	}

	// Middle parts are matched leftmost-first inside the remaining window.
	rest := s[len(first) : len(s)-len(last)]
	for _, part := range p.parts[1 : len(p.parts)-1] {
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
	}

	return true
}

// Package gitignore implements enough of the gitignore pattern syntax
// (https://git-scm.com/docs/gitignore) for the scanner's supplemental
// exclude-folder reconciliation: glob stars, character classes, anchored
// and directory-only patterns, double-star directory spans, and negation.
//
// Patterns are compiled into a list of path-segment globs rather than a
// single regular expression: matching walks the candidate path one
// path component at a time, backtracking across "**" segments the way a
// shell expands them, and each individual segment is matched with a
// small wildcard scanner (the same two-pointer technique used for
// classic '*'/'?' wildcard matching) instead of building a regexp.
package gitignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Matcher holds compiled gitignore patterns and matches paths against them.
type Matcher struct {
	mu    sync.RWMutex
	rules []rule
}

// doubleStar is the sentinel segment value meaning "**": zero or more
// path components.
const doubleStar = "**"

type rule struct {
	segments []string // pattern split on '/', with "**" kept as a literal sentinel
	negation bool
	dirOnly  bool
}

// New creates an empty Matcher.
func New() *Matcher {
	return &Matcher{}
}

// AddPattern compiles and appends a single gitignore pattern line.
func (m *Matcher) AddPattern(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return
	}

	var r rule
	if strings.HasPrefix(pattern, "!") {
		r.negation = true
		pattern = strings.TrimPrefix(pattern, "!")
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		anchored = true
	}

	segs := strings.Split(pattern, "/")
	if !anchored {
		segs = append([]string{doubleStar}, segs...)
	}
	r.segments = segs

	m.mu.Lock()
	m.rules = append(m.rules, r)
	m.mu.Unlock()
}

// AddFromFile loads patterns from a .gitignore file, one per line.
func (m *Matcher) AddFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open gitignore file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.AddPattern(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read gitignore file: %w", err)
	}
	return nil
}

// Match reports whether a posix-style relative path (with no leading "/")
// is ignored by the accumulated rules. Later rules override earlier ones,
// and a negated rule ("!pattern") can un-ignore a path matched earlier.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	parts := strings.Split(path, "/")

	m.mu.RLock()
	defer m.mu.RUnlock()

	ignored := false
	for _, r := range m.rules {
		if r.matches(parts, isDir) {
			ignored = !r.negation
		}
	}
	return ignored
}

// matches reports whether the rule applies to path, either because the
// full path matches the rule's segments, or because an ancestor
// directory does (in which case every descendant is ignored too,
// regardless of whether the rule itself was written with a trailing
// slash).
func (r rule) matches(pathParts []string, isDir bool) bool {
	for end := 1; end <= len(pathParts); end++ {
		if !segmentsMatch(r.segments, pathParts[:end]) {
			continue
		}
		if end < len(pathParts) {
			return true // an ancestor directory matched; everything under it is ignored
		}
		if r.dirOnly && !isDir {
			continue
		}
		return true
	}
	return false
}

// segmentsMatch reports whether pattern segments (with "**" sentinels
// meaning "zero or more components") match exactly the given path
// components.
func segmentsMatch(pat, path []string) bool {
	if len(pat) == 0 {
		return len(path) == 0
	}
	if pat[0] == doubleStar {
		for i := 0; i <= len(path); i++ {
			if segmentsMatch(pat[1:], path[i:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 || !globMatch(pat[0], path[0]) {
		return false
	}
	return segmentsMatch(pat[1:], path[1:])
}

// globMatch reports whether a single path component matches a single
// glob segment supporting '*', '?', '[...]' character classes and '\'
// escapes, using the standard two-pointer backtracking technique for
// wildcard matching (the star position and the string position it last
// matched are remembered so a failed continuation can retry the star
// against one more character).
func globMatch(pattern, name string) bool {
	pat := []rune(pattern)
	str := []rune(name)

	pi, si := 0, 0
	starPi, starSi := -1, -1

	for si < len(str) {
		if pi < len(pat) {
			switch pat[pi] {
			case '?':
				pi++
				si++
				continue
			case '*':
				starPi, starSi = pi, si
				pi++
				continue
			case '[':
				if end, ok := classEnd(pat, pi); ok {
					if matchClass(pat[pi:end+1], str[si]) {
						pi = end + 1
						si++
						continue
					}
				} else if pat[pi] == str[si] {
					pi++
					si++
					continue
				}
			case '\\':
				if pi+1 < len(pat) && pat[pi+1] == str[si] {
					pi += 2
					si++
					continue
				}
			default:
				if pat[pi] == str[si] {
					pi++
					si++
					continue
				}
			}
		}
		if starPi < 0 {
			return false
		}
		starSi++
		pi, si = starPi+1, starSi
	}

	for pi < len(pat) && pat[pi] == '*' {
		pi++
	}
	return pi == len(pat)
}

// classEnd finds the closing ']' of a '[...]' class starting at pat[open],
// tolerating a leading negation marker ('!' or '^').
func classEnd(pat []rune, open int) (int, bool) {
	i := open + 1
	if i < len(pat) && (pat[i] == '!' || pat[i] == '^') {
		i++
	}
	for i < len(pat) {
		if pat[i] == ']' {
			return i, true
		}
		i++
	}
	return 0, false
}

// matchClass reports whether r is matched by a '[...]' class (including
// its surrounding brackets), supporting negation and 'a-z' style ranges.
func matchClass(class []rune, r rune) bool {
	body := class[1 : len(class)-1]
	negate := false
	if len(body) > 0 && (body[0] == '!' || body[0] == '^') {
		negate = true
		body = body[1:]
	}

	matched := false
	for i := 0; i < len(body); {
		if i+2 < len(body) && body[i+1] == '-' {
			if r >= body[i] && r <= body[i+2] {
				matched = true
			}
			i += 3
			continue
		}
		if body[i] == r {
			matched = true
		}
		i++
	}

	if negate {
		return !matched
	}
	return matched
}

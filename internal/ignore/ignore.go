// Package ignore implements the .graphignore pattern matcher (C1):
// glob/gitignore-style path exclusion plus an optional language allow-set.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/cgerrors"
)

// alwaysSkip supplements user rules with a fixed set of directories that
// are never worth analyzing, ported from the teacher's
// getDefaultExcludePatterns plus the original's always_skip_dirs.
var alwaysSkip = map[string]struct{}{
	".git": {}, ".svn": {}, ".hg": {}, ".bzr": {},
	"__pycache__": {}, ".pytest_cache": {}, ".mypy_cache": {}, ".tox": {},
	".venv": {}, "venv": {}, "env": {},
	"node_modules": {}, "bower_components": {},
	".cache": {}, ".sass-cache": {}, ".parcel-cache": {},
	"dist": {}, "build": {}, "out": {}, "target": {},
	"bin": {}, "obj": {}, "vendor": {},
	".idea": {}, ".vscode": {}, ".vs": {},
	".DS_Store": {},
}

// compiled holds the derived, immutable matching structures built from a
// Matcher's current pattern set. Swapped in atomically (spec §9 "Global
// state": runtime additions rebuild internal structures atomically).
type compiled struct {
	ignoreGlobs  []string
	includeGlobs []string
	languages    map[string]struct{}
}

// Matcher decides path inclusion per spec §4.1. Readers
// (ShouldIgnore/ShouldAnalyzeLanguage) only load the atomically swapped
// compiled state, so they are safe alongside a mutator. The mutators
// (AddPattern/AddLanguage) append to the builder lists without a lock,
// then recompile and swap; two mutators must not run concurrently.
type Matcher struct {
	rootPath string

	ignorePatterns  []string
	includePatterns []string
	languages       map[string]struct{}

	state atomic.Pointer[compiled]
}

// New creates an empty Matcher rooted at rootPath (used to resolve the
// .graphignore file location).
func New(rootPath string) *Matcher {
	m := &Matcher{rootPath: rootPath, languages: make(map[string]struct{})}
	m.recompile()
	return m
}

// LoadGraphignore reads and parses a .graphignore file at rootPath, per
// the directive syntax in spec §4.1: blank/`#` lines skipped,
// `language: <name>` adds to the allow-set, `!`-prefixed lines are
// whitelist patterns, everything else is an ignore glob.
func LoadGraphignore(rootPath string) (*Matcher, error) {
	m := New(rootPath)
	path := filepath.Join(rootPath, ".graphignore")

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, &cgerrors.IgnoreParseError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "language:"):
			lang := strings.TrimSpace(strings.TrimPrefix(line, "language:"))
			m.languages[strings.ToLower(lang)] = struct{}{}
		case strings.HasPrefix(line, "!"):
			m.includePatterns = append(m.includePatterns, strings.TrimSpace(line[1:]))
		default:
			m.ignorePatterns = append(m.ignorePatterns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &cgerrors.IgnoreParseError{Path: path, Err: err}
	}

	m.recompile()
	return m, nil
}

// AddPattern adds an ignore pattern (or, when include is true, a
// whitelist pattern) at runtime and rebuilds the compiled state.
func (m *Matcher) AddPattern(pattern string, include bool) {
	if include {
		m.includePatterns = append(m.includePatterns, pattern)
	} else {
		m.ignorePatterns = append(m.ignorePatterns, pattern)
	}
	m.recompile()
}

// AddLanguage adds a language to the allow-set at runtime.
func (m *Matcher) AddLanguage(lang string) {
	m.languages[strings.ToLower(lang)] = struct{}{}
	m.recompile()
}

func (m *Matcher) recompile() {
	langs := make(map[string]struct{}, len(m.languages))
	for k := range m.languages {
		langs[k] = struct{}{}
	}
	c := &compiled{
		ignoreGlobs:  toDoublestarGlobs(m.ignorePatterns),
		includeGlobs: toDoublestarGlobs(m.includePatterns),
		languages:    langs,
	}
	m.state.Store(c)
}

// toDoublestarGlobs translates the spec's glob dialect (`*`, `?`,
// trailing `/` for directory-only) into doublestar-compatible patterns.
// A bare segment with no `/` is also matched against any path depth, the
// same way the original Python `_compile_pattern` anchors with `(^|/)`.
func toDoublestarGlobs(patterns []string) []string {
	out := make([]string, 0, len(patterns)*2)
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		dirOnly := strings.HasSuffix(p, "/")
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			out = append(out, p, p+"/**")
			if dirOnly {
				continue
			}
		} else {
			// bare name: match at any depth, as a file or as a directory prefix
			out = append(out, p, "**/"+p, p+"/**", "**/"+p+"/**")
		}
	}
	return out
}

func matchAny(globs []string, path string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
	}
	return false
}

// ShouldIgnore implements should_ignore(path) from spec §4.1: true if any
// always-skip segment appears in path, else if any whitelist pattern
// matches return false, else if any ignore pattern matches return true,
// else false.
func (m *Matcher) ShouldIgnore(path string) bool {
	path = filepath.ToSlash(path)
	for _, seg := range strings.Split(path, "/") {
		if _, skip := alwaysSkip[seg]; skip {
			return true
		}
	}

	c := m.state.Load()
	if matchAny(c.includeGlobs, path) {
		return false
	}
	return matchAny(c.ignoreGlobs, path)
}

// ShouldAnalyzeLanguage implements should_analyze_language(lang) from
// spec §4.1: true when the allow-set is empty, else membership test.
func (m *Matcher) ShouldAnalyzeLanguage(lang string) bool {
	c := m.state.Load()
	if len(c.languages) == 0 {
		return true
	}
	_, ok := c.languages[strings.ToLower(lang)]
	return ok
}

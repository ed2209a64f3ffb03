// Package seam implements cross-language seam detection (C5): spotting
// source text that calls out to a different language runtime (an HTTP
// client hitting a Node service, ADO.NET against SQL Server, and so on)
// and synthesizing SEAM relationships for the code graph, ported
// verbatim from the original seam_detector.py pattern table.
package seam

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// langPair is the (source, target) key into the pattern table, both
// lower-cased.
type langPair struct {
	source string
	target string
}

// Detector holds the compiled pattern table and any runtime additions.
type Detector struct {
	mu       sync.RWMutex
	patterns map[langPair][]*regexp.Regexp
	// endpointCapture holds, per pair, an extra pattern whose first
	// capture group is the canonical endpoint identifier (a URL or
	// driver call) to attach as Metadata["endpoint"] on a detected seam.
	endpointCapture map[langPair]*regexp.Regexp
}

// New builds a Detector pre-loaded with the built-in pattern table.
func New() *Detector {
	d := &Detector{
		patterns:        make(map[langPair][]*regexp.Regexp),
		endpointCapture: make(map[langPair]*regexp.Regexp),
	}
	for _, sp := range builtinPatterns() {
		key := langPair{source: strings.ToLower(sp.source), target: strings.ToLower(sp.target)}
		for _, p := range sp.patterns {
			d.patterns[key] = append(d.patterns[key], regexp.MustCompile("(?i)"+p))
		}
	}
	// PostAsync("https://...") is the one built-in pattern with a
	// meaningful endpoint capture, per spec.md §4.5.
	d.endpointCapture[langPair{source: "csharp", target: "node"}] = regexp.MustCompile(`(?i)PostAsync\(\s*"([^"]+)"`)
	return d
}

type seamPattern struct {
	source, target string
	patterns       []string
}

// builtinPatterns is a verbatim port of seam_detector.py's seam_patterns
// list.
func builtinPatterns() []seamPattern {
	return []seamPattern{
		{"csharp", "node", []string{`HttpClient`, `PostAsync`, `RestClient`, `npm`, `node.*service`}},
		{"csharp", "sql", []string{`SqlConnection`, `SqlCommand`, `DbContext`, `ExecuteReader`, `ExecuteNonQuery`}},
		{"typescript", "python", []string{`fetch`, `axios`, `XMLHttpRequest`, `api`}},
		{"typescript", "node", []string{`import.*from`, `require`, `@angular`, `@nestjs`, `express`}},
		{"python", "java", []string{`subprocess`, `socket`, `grpc`, `requests`}},
		{"python", "sql", []string{`sqlite3`, `psycopg2`, `pymysql`, `execute`}},
	}
}

// Seam is a detected cross-language call site.
type Seam struct {
	SourceLanguage string
	TargetLanguage string
	SourceName     string
	TargetName     string
	Endpoint       string // non-empty when a pattern captured a canonical identifier
}

// Detect reports whether codeContent contains a pattern registered for
// (sourceLanguage, targetLanguage), returning the detected Seam (with
// Endpoint populated when available) and true on a match.
func (d *Detector) Detect(sourceLanguage, targetLanguage, codeContent, sourceName, targetName string) (Seam, bool) {
	key := langPair{source: strings.ToLower(sourceLanguage), target: strings.ToLower(targetLanguage)}

	d.mu.RLock()
	patterns := d.patterns[key]
	endpointRe := d.endpointCapture[key]
	d.mu.RUnlock()

	for _, p := range patterns {
		if p.MatchString(codeContent) {
			s := Seam{
				SourceLanguage: key.source,
				TargetLanguage: key.target,
				SourceName:     sourceName,
				TargetName:     targetName,
			}
			if endpointRe != nil {
				if m := endpointRe.FindStringSubmatch(codeContent); len(m) > 1 {
					s.Endpoint = m[1]
				}
			}
			return s, true
		}
	}
	return Seam{}, false
}

// AddPattern registers a custom detection pattern at runtime, per
// seam_detector.py's add_pattern. An invalid regex is silently ignored,
// matching the original's log-and-continue behavior.
func (d *Detector) AddPattern(sourceLanguage, targetLanguage, pattern string) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return
	}
	key := langPair{source: strings.ToLower(sourceLanguage), target: strings.ToLower(targetLanguage)}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.patterns[key] = append(d.patterns[key], re)
}

// RegisteredPairs returns every (source, target) language pair with at
// least one pattern, sorted for deterministic output.
func (d *Detector) RegisteredPairs() [][2]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([][2]string, 0, len(d.patterns))
	for k := range d.patterns {
		out = append(out, [2]string{k.source, k.target})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

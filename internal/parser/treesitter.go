package parser

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tscpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tsgo "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tsjava "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tsjavascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tspython "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tsrust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// grammars maps the lang.Language.Grammar tag (see internal/lang) to its
// compiled tree-sitter language. Built lazily and cached: constructing a
// sitter.Language per parse would be wasteful, and the bindings are safe
// to share across goroutines once built (a *sitter.Parser is not, so a
// fresh one is still created per parse call).
var grammars = map[string]func() *sitter.Language{
	"go":         func() *sitter.Language { return sitter.NewLanguage(tsgo.Language()) },
	"python":     func() *sitter.Language { return sitter.NewLanguage(tspython.Language()) },
	"javascript": func() *sitter.Language { return sitter.NewLanguage(tsjavascript.Language()) },
	"java":       func() *sitter.Language { return sitter.NewLanguage(tsjava.Language()) },
	"rust":       func() *sitter.Language { return sitter.NewLanguage(tsrust.Language()) },
	"cpp":        func() *sitter.Language { return sitter.NewLanguage(tscpp.Language()) },
}

var (
	grammarMu    sync.Mutex
	grammarCache = map[string]*sitter.Language{}
)

func grammarFor(tag string) *sitter.Language {
	grammarMu.Lock()
	defer grammarMu.Unlock()
	if l, ok := grammarCache[tag]; ok {
		return l
	}
	build, ok := grammars[tag]
	if !ok {
		return nil
	}
	l := build()
	grammarCache[tag] = l
	return l
}

// Package lang implements the data-driven language registry (C3): a
// table of Language records describing how each supported language's
// functions, classes, and imports are recognized, either via a
// tree-sitter grammar or a regex fallback. There is no per-language Go
// type — callers dispatch on table lookups, not subclasses.
package lang

import "regexp"

// EntityKind names one of the syntactic constructs a Language's pattern
// tables can recognize.
type EntityKind string

const (
	EntityFunction EntityKind = "function"
	EntityClass    EntityKind = "class"
	EntityImport   EntityKind = "import"
	EntityVariable EntityKind = "variable"
	EntityCall     EntityKind = "call"
)

// Language describes one supported language. A Language with a non-nil
// Grammar is parsed via tree-sitter (C4 builds an AST and walks it with
// ASTNodeKinds); all others fall back to RegexPatterns applied line by
// line. A file is never run through both paths (spec's parser
// plurality rule) — HasAST decides up front.
type Language struct {
	Name       string
	Extensions []string

	// Grammar, when non-nil, is the tree-sitter grammar loader for this
	// language (see internal/parser for the concrete bindings).
	Grammar any

	// ASTNodeKinds maps an EntityKind to the tree-sitter node type name(s)
	// that identify it in this grammar's parse tree.
	ASTNodeKinds map[EntityKind][]string

	// RegexPatterns maps an EntityKind to the fallback matcher used when
	// Grammar is nil. Each pattern is expected to capture the entity's
	// name in its first capture group.
	RegexPatterns map[EntityKind]*regexp.Regexp
}

// HasAST reports whether this language is parsed via tree-sitter rather
// than regex fallback.
func (l *Language) HasAST() bool {
	return l.Grammar != nil
}

// ExtensionSet returns l.Extensions as a lookup set.
func (l *Language) ExtensionSet() map[string]struct{} {
	m := make(map[string]struct{}, len(l.Extensions))
	for _, e := range l.Extensions {
		m[e] = struct{}{}
	}
	return m
}

// Registry resolves languages by name or file extension.
type Registry struct {
	byName map[string]*Language
	byExt  map[string]*Language
}

// New builds a Registry pre-populated with the default languages.
func New() *Registry {
	r := &Registry{byName: make(map[string]*Language), byExt: make(map[string]*Language)}
	for _, l := range defaultLanguages() {
		r.Register(l)
	}
	return r
}

// Register adds or replaces a Language in the registry.
func (r *Registry) Register(l *Language) {
	r.byName[l.Name] = l
	for _, ext := range l.Extensions {
		r.byExt[ext] = l
	}
}

// ByName looks up a language by its canonical name.
func (r *Registry) ByName(name string) (*Language, bool) {
	l, ok := r.byName[name]
	return l, ok
}

// ByExtension looks up a language by file extension (including the
// leading dot, lower-cased).
func (r *Registry) ByExtension(ext string) (*Language, bool) {
	l, ok := r.byExt[ext]
	return l, ok
}

// SupportedExtensions returns every registered extension.
func (r *Registry) SupportedExtensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}

// Languages returns every registered Language.
func (r *Registry) Languages() []*Language {
	out := make([]*Language, 0, len(r.byName))
	for _, l := range r.byName {
		out = append(out, l)
	}
	return out
}

func namePattern(kw string) *regexp.Regexp {
	return regexp.MustCompile(kw)
}

// defaultLanguages builds the 26-language table referenced by this
// project's full specification. Languages with a tree-sitter grammar
// wired in internal/parser (go, python, javascript/typescript, java,
// rust, cpp) get ASTNodeKinds; the rest are regex-only.
func defaultLanguages() []*Language {
	return []*Language{
		{
			Name: "go", Extensions: []string{".go"},
			Grammar: "go",
			ASTNodeKinds: map[EntityKind][]string{
				EntityFunction: {"function_declaration", "method_declaration"},
				EntityClass:    {"type_declaration"},
				EntityImport:   {"import_declaration", "import_spec"},
				EntityCall:     {"call_expression"},
			},
		},
		{
			Name: "python", Extensions: []string{".py", ".pyi"},
			Grammar: "python",
			ASTNodeKinds: map[EntityKind][]string{
				EntityFunction: {"function_definition"},
				EntityClass:    {"class_definition"},
				EntityImport:   {"import_statement", "import_from_statement"},
				EntityCall:     {"call"},
			},
		},
		{
			Name: "javascript", Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
			Grammar: "javascript",
			ASTNodeKinds: map[EntityKind][]string{
				EntityFunction: {"function_declaration", "method_definition", "arrow_function"},
				EntityClass:    {"class_declaration"},
				EntityImport:   {"import_statement"},
				EntityCall:     {"call_expression"},
			},
		},
		{
			Name: "typescript", Extensions: []string{".ts", ".tsx"},
			Grammar: "javascript", // reused grammar, per spec.md §9 parser plurality
			ASTNodeKinds: map[EntityKind][]string{
				EntityFunction: {"function_declaration", "method_definition", "arrow_function"},
				EntityClass:    {"class_declaration", "interface_declaration"},
				EntityImport:   {"import_statement"},
				EntityCall:     {"call_expression"},
			},
		},
		{
			Name: "java", Extensions: []string{".java"},
			Grammar: "java",
			ASTNodeKinds: map[EntityKind][]string{
				EntityFunction: {"method_declaration", "constructor_declaration"},
				EntityClass:    {"class_declaration", "interface_declaration", "enum_declaration"},
				EntityImport:   {"import_declaration"},
				EntityCall:     {"method_invocation"},
			},
		},
		{
			Name: "rust", Extensions: []string{".rs"},
			Grammar: "rust",
			ASTNodeKinds: map[EntityKind][]string{
				EntityFunction: {"function_item"},
				EntityClass:    {"struct_item", "enum_item", "trait_item"},
				EntityImport:   {"use_declaration"},
				EntityCall:     {"call_expression"},
			},
		},
		{
			Name: "cpp", Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".h"},
			Grammar: "cpp",
			ASTNodeKinds: map[EntityKind][]string{
				EntityFunction: {"function_definition"},
				EntityClass:    {"class_specifier", "struct_specifier"},
				EntityImport:   {"preproc_include"},
				EntityCall:     {"call_expression"},
			},
		},
		{Name: "c", Extensions: []string{".c"}, RegexPatterns: regexSet(
			`^\s*(?:[\w\*\s]+?)\s+(\w+)\s*\([^;{]*\)\s*\{`,
			`^\s*(?:typedef\s+)?struct\s+(\w+)`,
			`^\s*#include\s*[<"]([^>"]+)[>"]`,
		)},
		{Name: "csharp", Extensions: []string{".cs"}, RegexPatterns: regexSet(
			`^\s*(?:public|private|protected|internal|static|\s)*\s+\w[\w<>\[\],\s]*\s+(\w+)\s*\([^;{]*\)\s*\{`,
			`^\s*(?:public|internal)?\s*(?:partial\s+)?(?:class|interface|struct)\s+(\w+)`,
			`^\s*using\s+([\w\.]+)\s*;`,
		)},
		{Name: "php", Extensions: []string{".php"}, RegexPatterns: regexSet(
			`^\s*(?:public|private|protected|static|\s)*function\s+(\w+)\s*\(`,
			`^\s*class\s+(\w+)`,
			`^\s*(?:use|require|include)[^(]*\(?['"]?([\w\\\/\.]+)['"]?\)?\s*;`,
		)},
		{Name: "ruby", Extensions: []string{".rb"}, RegexPatterns: regexSet(
			`^\s*def\s+(\w+[\?!]?)`,
			`^\s*class\s+(\w+)`,
			`^\s*require(?:_relative)?\s+['"]([\w\/\.\-]+)['"]`,
		)},
		{Name: "kotlin", Extensions: []string{".kt", ".kts"}, RegexPatterns: regexSet(
			`^\s*(?:public|private|internal|\s)*fun\s+(\w+)\s*\(`,
			`^\s*(?:data\s+|sealed\s+)?class\s+(\w+)`,
			`^\s*import\s+([\w\.]+)`,
		)},
		{Name: "swift", Extensions: []string{".swift"}, RegexPatterns: regexSet(
			`^\s*(?:public|private|internal|\s)*func\s+(\w+)\s*\(`,
			`^\s*(?:class|struct|protocol)\s+(\w+)`,
			`^\s*import\s+(\w+)`,
		)},
		{Name: "scala", Extensions: []string{".scala"}, RegexPatterns: regexSet(
			`^\s*def\s+(\w+)\s*[\(\[:]`,
			`^\s*(?:case\s+)?class\s+(\w+)`,
			`^\s*import\s+([\w\.\_]+)`,
		)},
		{Name: "dart", Extensions: []string{".dart"}, RegexPatterns: regexSet(
			`^\s*(?:[\w\<\>\?]+\s+)?(\w+)\s*\([^;{]*\)\s*(?:async\s*)?\{`,
			`^\s*(?:abstract\s+)?class\s+(\w+)`,
			`^\s*import\s+['"]([\w\:\/\.\-]+)['"]`,
		)},
		{Name: "objectivec", Extensions: []string{".m", ".mm"}, RegexPatterns: regexSet(
			`^\s*[-+]\s*\([\w\s\*]+\)\s*(\w+)`,
			`^\s*@interface\s+(\w+)`,
			`^\s*#import\s*[<"]([^>"]+)[>"]`,
		)},
		{Name: "perl", Extensions: []string{".pl", ".pm"}, RegexPatterns: regexSet(
			`^\s*sub\s+(\w+)`,
			`^\s*package\s+([\w:]+)`,
			`^\s*use\s+([\w:]+)`,
		)},
		{Name: "lua", Extensions: []string{".lua"}, RegexPatterns: regexSet(
			`^\s*(?:local\s+)?function\s+([\w\.\:]+)`,
			``,
			`^\s*(?:local\s+\w+\s*=\s*)?require\s*\(?['"]([\w\.\-\/]+)['"]`,
		)},
		{Name: "haskell", Extensions: []string{".hs"}, RegexPatterns: regexSet(
			`^(\w+)\s*::`,
			`^\s*data\s+(\w+)`,
			`^\s*import\s+(?:qualified\s+)?([\w\.]+)`,
		)},
		{Name: "html", Extensions: []string{".html", ".htm"}, RegexPatterns: regexSet(
			``,
			``,
			`<link[^>]+href=["']([^"']+)["']`,
		)},
		{Name: "css", Extensions: []string{".css", ".scss", ".less"}, RegexPatterns: regexSet(
			``,
			`([\.\#][\w\-]+)\s*\{`,
			`@import\s+["']([^"']+)["']`,
		)},
		{Name: "json", Extensions: []string{".json"}, RegexPatterns: regexSet("", "", "")},
		{Name: "yaml", Extensions: []string{".yaml", ".yml"}, RegexPatterns: regexSet("", "", "")},
		{Name: "shell", Extensions: []string{".sh", ".bash"}, RegexPatterns: regexSet(
			`^\s*(?:function\s+)?(\w+)\s*\(\)\s*\{`,
			``,
			`^\s*(?:source|\.)\s+([\w\.\/\-]+)`,
		)},
		{Name: "sql", Extensions: []string{".sql"}, RegexPatterns: regexSet(
			`(?i)create\s+(?:or\s+replace\s+)?(?:procedure|function)\s+([\w\.]+)`,
			`(?i)create\s+table\s+([\w\.]+)`,
			``,
		)},
		{Name: "markdown", Extensions: []string{".md", ".markdown"}, RegexPatterns: regexSet("", "", "")},
	}
}

// regexSet builds the RegexPatterns map for (function, class, import)
// patterns in that order; an empty string skips that EntityKind.
func regexSet(function, class, imp string) map[EntityKind]*regexp.Regexp {
	m := make(map[EntityKind]*regexp.Regexp, 3)
	if function != "" {
		m[EntityFunction] = namePattern(function)
	}
	if class != "" {
		m[EntityClass] = namePattern(class)
	}
	if imp != "" {
		m[EntityImport] = namePattern(imp)
	}
	return m
}

package parser

import "time"

// Tuning constants, ported from the teacher's magic-number-avoidance
// style in its own config.go.
const (
	DefaultMaxFileSize  = 10 * 1024 * 1024 // bytes; files past this are rejected, not truncated
	DefaultMaxASTDepth  = 200              // AST conversion recursion ceiling
	DefaultParseTimeout = 30 * time.Second
)

// Config holds the Extractor's runtime tuning knobs.
type Config struct {
	MaxFileSize  int           `yaml:"max_file_size" json:"max_file_size"`
	MaxASTDepth  int           `yaml:"max_ast_depth" json:"max_ast_depth"`
	ParseTimeout time.Duration `yaml:"parse_timeout" json:"parse_timeout"`

	// StrictTimeoutEnforcement discards a parse that took longer than
	// ParseTimeout; the check runs once the parse has returned, since
	// tree-sitter parses are not preemptible mid-call. When false (the
	// default) parse duration is not checked.
	StrictTimeoutEnforcement bool `yaml:"strict_timeout_enforcement" json:"strict_timeout_enforcement"`
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:              DefaultMaxFileSize,
		MaxASTDepth:              DefaultMaxASTDepth,
		ParseTimeout:             DefaultParseTimeout,
		StrictTimeoutEnforcement: false,
	}
}

// Validate repairs any non-positive values back to their defaults rather
// than failing outright, matching the teacher's lenient validation.
func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.MaxASTDepth <= 0 {
		c.MaxASTDepth = DefaultMaxASTDepth
	}
	if c.ParseTimeout <= 0 {
		c.ParseTimeout = DefaultParseTimeout
	}
	return nil
}

package wiki

import "github.com/bmatcuk/doublestar/v4"

// ReservedPathGuard rejects mutations targeting protected path patterns.
// Patterns are doublestar globs matched against the absolute normalized
// path, e.g. "/login" or "/edit/**".
type ReservedPathGuard struct {
	patterns []string
}

// DefaultReservedPatterns covers every path the route table claims for
// itself, so a page can never shadow an action URL.
var DefaultReservedPatterns = []string{
	"/login",
	"/logout",
	"/signup",
	"/profile",
	"/edit", "/edit/**",
	"/new", "/new/**",
	"/move/**",
	"/delete/**",
	"/history", "/history/**",
	"/changes/**",
	"/compare", "/compare/**",
	"/version/**",
	"/static/**",
	"/metrics",
	"/healthz",
	"/_/**",
}

// NewReservedPathGuard builds a guard from ordered glob patterns. Malformed
// patterns are rejected eagerly since they come from configuration.
func NewReservedPathGuard(patterns []string) (*ReservedPathGuard, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p}
		}
	}
	return &ReservedPathGuard{patterns: patterns}, nil
}

// Reserved reports whether the path matches any reserved pattern. The path
// is normalized to absolute form before matching.
func (g *ReservedPathGuard) Reserved(path string) bool {
	abs := "/" + NormalizePath(path)
	for _, p := range g.patterns {
		if ok, _ := doublestar.Match(p, abs); ok {
			return true
		}
	}
	return false
}

// PatternError reports an invalid reserved-path pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "invalid reserved path pattern: " + e.Pattern
}

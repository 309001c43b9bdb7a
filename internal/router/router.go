// Package router matches request verbs and paths against registered route
// patterns and extracts named captures.
//
// Patterns are tested in registration order and the first structural match
// wins; there is no specificity ranking. A pattern segment may be a literal,
// a named capture (":name", matching anything but a slash unless a
// sub-pattern says otherwise), or an optional trailing group ("(/:name)").
// Routes registered with Tail let their final capture absorb the remaining
// path including slashes.
package router

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Params holds the named captures extracted from a matched path. Captures
// inside an optional group that did not participate in the match are absent.
type Params map[string]string

// Router matches verb + path pairs against registered routes. H is the
// handler type bound to each route; the router never calls it.
type Router[H any] struct {
	patterns map[string]string
	routes   []*route[H]
}

type route[H any] struct {
	method  string
	raw     string
	re      *regexp.Regexp
	handler H
}

// Option configures a single route registration.
type Option func(*routeConfig)

type routeConfig struct {
	constraints map[string]string
	tail        bool
}

// Constraint restricts the named capture of this route to the given
// regular sub-pattern.
func Constraint(name, expr string) Option {
	return func(c *routeConfig) {
		c.constraints[name] = expr
	}
}

// Tail lets the final capture of the route absorb all remaining path
// segments, including embedded slashes.
func Tail() Option {
	return func(c *routeConfig) {
		c.tail = true
	}
}

// New creates an empty router.
func New[H any]() *Router[H] {
	return &Router[H]{patterns: make(map[string]string)}
}

// Pattern registers a default sub-pattern for every capture with the given
// name, across all routes registered afterwards. Route-level constraints
// take precedence.
func (r *Router[H]) Pattern(name, expr string) {
	r.patterns[name] = expr
}

// Handle registers a route for the given verb and pattern. Registration
// order is match order. It panics on a malformed pattern, which is a
// programming error in the route table.
func (r *Router[H]) Handle(method, pattern string, handler H, opts ...Option) {
	cfg := routeConfig{constraints: make(map[string]string)}
	for _, opt := range opts {
		opt(&cfg)
	}
	re, err := r.compile(pattern, cfg)
	if err != nil {
		panic(fmt.Sprintf("router: bad pattern %q: %v", pattern, err))
	}
	r.routes = append(r.routes, &route[H]{
		method:  method,
		raw:     pattern,
		re:      re,
		handler: handler,
	})
}

// Match normalizes the path and returns the handler and captures of the
// first matching route. The second return is false when no route matches.
func (r *Router[H]) Match(method, p string) (H, Params, bool) {
	p = Normalize(p)
	for _, rt := range r.routes {
		if rt.method != method {
			continue
		}
		m := rt.re.FindStringSubmatch(p)
		if m == nil {
			continue
		}
		params := make(Params)
		for i, name := range rt.re.SubexpNames() {
			if name == "" || i >= len(m) {
				continue
			}
			params[name] = m[i]
		}
		return rt.handler, params, true
	}
	var zero H
	return zero, nil, false
}

// Normalize resolves "." and ".." segments, collapses duplicate slashes and
// guarantees a single leading slash. ".." segments can never escape the
// root.
func Normalize(p string) string {
	return path.Clean("/" + p)
}

var captureRe = regexp.MustCompile(`:(\w+)`)

// compile translates a route pattern into an anchored regular expression
// with one named group per capture.
func (r *Router[H]) compile(pattern string, cfg routeConfig) (*regexp.Regexp, error) {
	captures := captureRe.FindAllStringSubmatch(pattern, -1)
	last := ""
	if len(captures) > 0 {
		last = captures[len(captures)-1][1]
	}

	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); {
		switch c := pattern[i]; c {
		case '(':
			b.WriteString("(?:")
			i++
		case ')':
			b.WriteString(")?")
			i++
		case ':':
			m := captureRe.FindStringSubmatch(pattern[i:])
			if m == nil {
				return nil, fmt.Errorf("dangling ':' at offset %d", i)
			}
			name := m[1]
			b.WriteString("(?P<" + name + ">" + r.subpattern(name, cfg, name == last) + ")")
			i += len(m[0])
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// subpattern picks the sub-pattern for a capture: route constraint, then
// router-wide pattern, then tail for the final capture, then no-slash.
func (r *Router[H]) subpattern(name string, cfg routeConfig, isLast bool) string {
	if expr, ok := cfg.constraints[name]; ok {
		return expr
	}
	if expr, ok := r.patterns[name]; ok {
		return expr
	}
	if cfg.tail && isLast {
		return ".+"
	}
	return "[^/]+"
}

// Package hooks runs named hook points as ordered chains.
//
// Around points compose registered prelude/postlude pairs onion-style: the
// first registered hook is outermost, and an explicit chain-runner
// guarantees postlude execution on every exit path of the wrapped segment.
// Plain points run their callbacks strictly in registration order over a
// shared context value.
package hooks

import "fmt"

// Prelude runs before the wrapped chain. A non-nil error aborts the chain
// immediately; the failing hook's own postlude is skipped, while hooks that
// already entered the chain still unwind.
type Prelude[C any] func(C) error

// Postlude runs after the wrapped chain. err is the error propagating out of
// the wrapped segment, nil on success and on handled failures.
type Postlude[C any] func(C, error)

// Hook is a plain callback mutating the shared context.
type Hook[C any] func(C)

type around[C any] struct {
	before Prelude[C]
	after  Postlude[C]
}

// Pipeline holds the hook registrations for a fixed set of named points.
// Points must be declared up front; registering or invoking an undeclared
// point panics, which catches typos at startup.
type Pipeline[C any] struct {
	arounds map[string][]around[C]
	plain   map[string][]Hook[C]
}

// New creates a pipeline with the given around and plain hook points.
func New[C any](aroundPoints, plainPoints []string) *Pipeline[C] {
	p := &Pipeline[C]{
		arounds: make(map[string][]around[C], len(aroundPoints)),
		plain:   make(map[string][]Hook[C], len(plainPoints)),
	}
	for _, name := range aroundPoints {
		p.arounds[name] = nil
	}
	for _, name := range plainPoints {
		p.plain[name] = nil
	}
	return p
}

// Around registers a prelude/postlude pair on an around point. Either side
// may be nil. The first registered pair wraps all later ones.
func (p *Pipeline[C]) Around(point string, before Prelude[C], after Postlude[C]) {
	if _, ok := p.arounds[point]; !ok {
		panic(fmt.Sprintf("hooks: unknown around point %q", point))
	}
	p.arounds[point] = append(p.arounds[point], around[C]{before: before, after: after})
}

// On registers a plain hook.
func (p *Pipeline[C]) On(point string, h Hook[C]) {
	if _, ok := p.plain[point]; !ok {
		panic(fmt.Sprintf("hooks: unknown plain point %q", point))
	}
	p.plain[point] = append(p.plain[point], h)
}

// Invoke runs the plain hooks of a point in registration order.
func (p *Pipeline[C]) Invoke(point string, c C) {
	hs, ok := p.plain[point]
	if !ok {
		panic(fmt.Sprintf("hooks: unknown plain point %q", point))
	}
	for _, h := range hs {
		h(c)
	}
}

// Run executes the around chain of a point wrapped around core. Preludes run
// outermost-first; on the first prelude error the chain aborts and only the
// hooks whose preludes completed unwind. Postludes always run in reverse
// order once their prelude succeeded, receiving the error propagating out of
// the segment they wrap.
func (p *Pipeline[C]) Run(point string, c C, core func(C) error) error {
	chain, ok := p.arounds[point]
	if !ok {
		panic(fmt.Sprintf("hooks: unknown around point %q", point))
	}

	entered := 0
	var err error
	for _, h := range chain {
		if h.before != nil {
			if err = h.before(c); err != nil {
				break
			}
		}
		entered++
	}
	if err == nil {
		err = core(c)
	}
	for i := entered - 1; i >= 0; i-- {
		if chain[i].after != nil {
			chain[i].after(c, err)
		}
	}
	return err
}

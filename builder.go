package convoflow

import (
	"errors"
	"fmt"
)

// DefaultContextName is the required name for a builder's sole context.
const DefaultContextName = "default"

// Builder is the top-level collection of contexts. It owns whole-graph
// validation and the sole serialization entry point.
type Builder struct {
	contexts     []*Context
	contextIndex map[string]*Context

	err error
}

// New creates an empty workflow builder.
func New() *Builder {
	return &Builder{
		contextIndex: make(map[string]*Context),
	}
}

// AddContext creates, registers, and returns a context. A repeated name
// records ErrDuplicateName on the builder and leaves the original context in
// place.
func (b *Builder) AddContext(name string) *Context {
	if _, exists := b.contextIndex[name]; exists {
		b.fail(fmt.Errorf("%w: context %q already exists", ErrDuplicateName, name))
		return newContext(name)
	}
	c := newContext(name)
	b.contexts = append(b.contexts, c)
	b.contextIndex[name] = c
	return c
}

// Contexts returns the builder's contexts in insertion order.
func (b *Builder) Contexts() []*Context {
	return append([]*Context{}, b.contexts...)
}

// Context returns the named context, or nil if it was never added.
func (b *Builder) Context(name string) *Context {
	return b.contextIndex[name]
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Validate checks referential integrity across the whole graph. References
// are resolved only here, never at mutation time, so steps and contexts may
// forward-reference siblings created later. Each category is scanned
// exhaustively and all failures are reported together via errors.Join.
func (b *Builder) Validate() error {
	var errs []error
	if b.err != nil {
		errs = append(errs, b.err)
	}

	if len(b.contexts) == 0 {
		errs = append(errs, fmt.Errorf("%w: builder has no contexts", ErrEmptyContent))
	}
	if len(b.contexts) == 1 && b.contexts[0].name != DefaultContextName {
		errs = append(errs, fmt.Errorf("%w: a builder with a single context must name it %q, got %q",
			ErrDanglingReference, DefaultContextName, b.contexts[0].name))
	}

	for _, c := range b.contexts {
		if c.err != nil {
			errs = append(errs, c.err)
		}
		if len(c.steps) == 0 {
			errs = append(errs, fmt.Errorf("%w: context %q has no steps", ErrEmptyContent, c.name))
		}
		for _, target := range c.validContexts {
			if _, ok := b.contextIndex[target]; !ok {
				errs = append(errs, fmt.Errorf("%w: context %q references unknown context %q",
					ErrDanglingReference, c.name, target))
			}
		}
		for _, s := range c.steps {
			if s.err != nil {
				errs = append(errs, s.err)
			}
			for _, target := range s.validSteps {
				if target == NextStep {
					continue
				}
				if _, ok := c.stepIndex[target]; !ok {
					errs = append(errs, fmt.Errorf("%w: step %q in context %q references unknown step %q",
						ErrDanglingReference, s.name, c.name, target))
				}
			}
			for _, target := range s.validContexts {
				if _, ok := b.contextIndex[target]; !ok {
					errs = append(errs, fmt.Errorf("%w: step %q in context %q references unknown context %q",
						ErrDanglingReference, s.name, c.name, target))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Serialize validates the graph and walks it into the nested document
// consumed by the external engine. Serialization is unreachable except
// through a validated graph. The returned document is insertion-ordered and
// immutable; it may be read concurrently as long as the builder is not
// mutated afterward.
func (b *Builder) Serialize() (*Document, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	doc := &Document{contexts: make(map[string]map[string]any, len(b.contexts))}
	for _, c := range b.contexts {
		m, err := c.serialize()
		if err != nil {
			return nil, err
		}
		doc.names = append(doc.names, c.name)
		doc.contexts[c.name] = m
	}
	return doc, nil
}

// Package resolver turns the multisampled scene surface into single-sample buffers that
// post-processing can read.
package resolver

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
)

// Pair maps one source attachment role onto one destination attachment role.
type Pair struct {
	Source      surface.Role
	Destination surface.Role
}

// DefaultPairs resolves both color attachments and writes depth into the auxiliary channel.
var DefaultPairs = []Pair{
	{Source: surface.RoleColor0, Destination: surface.RoleColor0},
	{Source: surface.RoleColor1, Destination: surface.RoleColor1},
	{Source: surface.RoleDepth, Destination: surface.RoleAux},
}

// resolver is the implementation of the Resolver interface.
type resolver struct {
	mu    *sync.Mutex
	pairs []Pair
}

// Resolver blits every attachment of a multisampled surface into its single-sample counterpart.
type Resolver interface {
	// Resolve records one blit per attachment pair on ctx, in pair order. It must run after the
	// scene draw and before anything reads the destination.
	//
	// Parameters:
	//   - ctx: the frame's render context
	//   - source: the multisampled surface
	//   - destination: the single-sample surface of the same size
	//
	// Returns:
	//   - error: an error if a paired attachment is missing or a blit fails
	Resolve(ctx renderer.RenderContext, source, destination surface.Surface) error

	// Pairs returns the attachment pairs resolved on every call.
	Pairs() []Pair
}

var _ Resolver = &resolver{}

// NewResolver creates a Resolver over DefaultPairs.
//
// Parameters:
//   - options: variadic list of ResolverBuilderOption functions
//
// Returns:
//   - Resolver: the new resolver
func NewResolver(options ...ResolverBuilderOption) Resolver {
	r := &resolver{
		mu:    &sync.Mutex{},
		pairs: append([]Pair(nil), DefaultPairs...),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *resolver) Resolve(ctx renderer.RenderContext, source, destination surface.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	backend := ctx.Backend()
	for _, p := range r.pairs {
		src, ok := source.Attachment(p.Source)
		if !ok {
			return fmt.Errorf("resolve: %s has no %s attachment", source.Label, p.Source)
		}
		dst, ok := destination.Attachment(p.Destination)
		if !ok {
			return fmt.Errorf("resolve: %s has no %s attachment", destination.Label, p.Destination)
		}
		if err := backend.Blit(src.Handle, dst.Handle); err != nil {
			return fmt.Errorf("resolve %s.%s into %s.%s: %w", source.Label, p.Source, destination.Label, p.Destination, err)
		}
	}
	return nil
}

func (r *resolver) Pairs() []Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Pair(nil), r.pairs...)
}

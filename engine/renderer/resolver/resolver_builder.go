package resolver

// ResolverBuilderOption is a functional option applied to a resolver during construction via NewResolver.
type ResolverBuilderOption func(*resolver)

// WithPairs replaces the attachment pairs the resolver blits.
//
// Parameters:
//   - pairs: the pairs, in blit order
//
// Returns:
//   - ResolverBuilderOption: a function that applies the pairs option to a resolver
func WithPairs(pairs ...Pair) ResolverBuilderOption {
	return func(r *resolver) {
		r.pairs = append([]Pair(nil), pairs...)
	}
}

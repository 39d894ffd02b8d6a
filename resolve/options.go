package resolve

import "io"

// Options holds everything a single Solve call needs: root constraints and
// the provider that answers for every identifier they transitively reach
// (spec.md §4.4). It mirrors golang-dep's SolveParameters, pared down to
// what the core actually uses — the manifest/lock/vendor-dir concerns
// SolveParameters also carries belong to the out-of-scope CLI layer.
//
// Cancellation is deliberately not a field here: Solve takes a
// context.Context as an ordinary function argument instead, the way every
// other blocking call in this module does. golang-dep's own
// Prepare/Solve split never threads a context through SolveParameters
// either; storing one on a struct invites it going stale across the
// struct's lifetime, which a function argument can't do.
type Options struct {
	// Roots are the constraints the solution must satisfy directly.
	Roots []Constraint

	// Provider answers container lookups for every identifier reached
	// during the search. Required.
	Provider PackageContainerProvider

	// Delegate receives best-effort trace events. Defaults to NoopDelegate
	// if nil. If Trace is also set, both receive every event.
	Delegate Delegate

	// Trace, if non-nil, gets a golang-dep-style line-oriented trace log
	// of the search (see TraceDelegate). Set this instead of building a
	// TraceDelegate by hand when all you want is the log.
	Trace io.Writer

	// PrefetchConcurrency hints how many containers a Provider may fetch
	// concurrently ahead of the engine actually needing them. The engine
	// itself never spawns goroutines over search branches (spec.md §5);
	// this is advisory input a Provider implementation may read back out
	// of Options via its own constructor — Solve does not act on it
	// directly.
	PrefetchConcurrency int
}

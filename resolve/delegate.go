package resolve

import "github.com/gopkgdep/resolve/semrange"

// Delegate receives best-effort observability events from the solver.
// Ordering is the engine's decision order; events must never influence
// search (spec.md §4.4, §6).
type Delegate interface {
	// Added fires the first time the provider is hit for id.
	Added(id PackageIdentifier)
	// TryingVersion fires before the engine tentatively binds id to v.
	TryingVersion(id PackageIdentifier, v semrange.Version)
	// ResolutionFailed fires when id's candidate list is exhausted with no
	// satisfying version, immediately before the engine backtracks past it.
	ResolutionFailed(id PackageIdentifier, requirement semrange.Set)
}

// NoopDelegate implements Delegate with no-ops, for callers with no
// interest in trace events.
type NoopDelegate struct{}

func (NoopDelegate) Added(PackageIdentifier)                           {}
func (NoopDelegate) TryingVersion(PackageIdentifier, semrange.Version) {}
func (NoopDelegate) ResolutionFailed(PackageIdentifier, semrange.Set)  {}

// multiDelegate fans every event out to a fixed list of delegates, in
// order. Used by Solve to let Options.Trace and Options.Delegate both
// observe the same run without either one knowing about the other.
type multiDelegate []Delegate

func (m multiDelegate) Added(id PackageIdentifier) {
	for _, d := range m {
		d.Added(id)
	}
}

func (m multiDelegate) TryingVersion(id PackageIdentifier, v semrange.Version) {
	for _, d := range m {
		d.TryingVersion(id, v)
	}
}

func (m multiDelegate) ResolutionFailed(id PackageIdentifier, requirement semrange.Set) {
	for _, d := range m {
		d.ResolutionFailed(id, requirement)
	}
}

// depthAware is an optional interface a Delegate may implement to learn the
// search's current queue depth. It's kept separate from Delegate itself
// because Delegate's three events are a fixed wire-level contract
// (spec.md §6); a delegate that wants depth-sensitive rendering (like
// TraceDelegate's indentation) opts in to this instead of growing that
// contract.
type depthAware interface {
	setDepth(depth int)
}

// setDepth implements depthAware, forwarding to every member that opts in,
// so multiDelegate itself satisfies depthAware whenever any of its members
// do.
func (m multiDelegate) setDepth(depth int) {
	for _, d := range m {
		if da, ok := d.(depthAware); ok {
			da.setDepth(depth)
		}
	}
}

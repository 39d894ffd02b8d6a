package resolve

import (
	radix "github.com/armon/go-radix"

	"github.com/gopkgdep/resolve/semrange"
)

// BindingKind tags the three cases of a Binding.
type BindingKind uint8

const (
	// BindingVersion means the package was resolved to a concrete version.
	BindingVersion BindingKind = iota
	// BindingExcluded means the resolver decided not to include the package.
	BindingExcluded
	// BindingUnversioned means the package is present in a user-provided
	// working state with no version chosen.
	BindingUnversioned
)

func (k BindingKind) String() string {
	switch k {
	case BindingVersion:
		return "version"
	case BindingExcluded:
		return "excluded"
	case BindingUnversioned:
		return "unversioned"
	default:
		return "unknown"
	}
}

// Binding is the resolver's decision for one identifier (spec.md §3).
type Binding struct {
	Kind    BindingKind
	Version semrange.Version // meaningful only when Kind == BindingVersion
}

func versionBinding(v semrange.Version) Binding { return Binding{Kind: BindingVersion, Version: v} }

// ExcludedBinding is the decision to leave a package out entirely.
func ExcludedBinding() Binding { return Binding{Kind: BindingExcluded} }

// UnversionedBinding is the decision to accept a package's on-disk
// working state without selecting a version.
func UnversionedBinding() Binding { return Binding{Kind: BindingUnversioned} }

type undoEntry struct {
	id      PackageIdentifier
	prev    semrange.Set
	hadPrev bool
}

type boundEntry struct {
	container PackageContainer
	binding   Binding
	undo      []undoEntry
}

// VersionAssignment is an ordered mapping from container to binding, plus
// the derived merged-constraints map: for each identifier named by any
// assigned package's outgoing constraints, the running intersection of
// every requirement imposed on it (spec.md §3). The merged map is backed
// by a radix tree keyed on the identifier string, which both gives
// deterministic identifier-ordered iteration (spec.md §5) and is the
// natural fit for a set of URL-shaped keys with long shared prefixes.
//
// VersionAssignment is not safe for concurrent use; each search branch
// holds its own (spec.md §4.3).
type VersionAssignment struct {
	order    []PackageIdentifier
	bindings map[PackageIdentifier]*boundEntry
	merged   *radix.Tree
}

// NewVersionAssignment returns an empty assignment.
func NewVersionAssignment() *VersionAssignment {
	return &VersionAssignment{
		bindings: make(map[PackageIdentifier]*boundEntry),
		merged:   radix.New(),
	}
}

// Constraint returns the merged requirement seen so far for id, defaulting
// to Any if id has never been referenced.
func (a *VersionAssignment) Constraint(id PackageIdentifier) semrange.Set {
	if v, ok := a.merged.Get(string(id)); ok {
		return v.(semrange.Set)
	}
	return semrange.Any()
}

// Binding returns the current binding for id, if any.
func (a *VersionAssignment) Binding(id PackageIdentifier) (Binding, bool) {
	e, ok := a.bindings[id]
	if !ok {
		return Binding{}, false
	}
	return e.binding, true
}

// Bindings returns the assignment's entries in the order they were bound.
func (a *VersionAssignment) Bindings() []PackageIdentifier {
	out := make([]PackageIdentifier, len(a.order))
	copy(out, a.order)
	return out
}

// IsValid reports whether binding is compatible with the current merged
// constraints for c's identifier (spec.md §4.3).
func (a *VersionAssignment) IsValid(c PackageContainer, binding Binding) bool {
	switch binding.Kind {
	case BindingVersion:
		return a.Constraint(c.Identifier()).Contains(binding.Version)
	case BindingExcluded:
		// Valid only if no bound package has yet imposed a requirement on
		// this id — once something requires it, it can no longer be
		// excluded.
		_, referenced := a.merged.Get(string(c.Identifier()))
		return !referenced
	case BindingUnversioned:
		return true
	default:
		return false
	}
}

// Bind records binding for c, incorporating c's outgoing dependencies
// (for BindingVersion and BindingUnversioned) into the merged constraints
// map. It returns a *contradiction if doing so drives any merged
// requirement to empty; the assignment is left unchanged in that case.
func (a *VersionAssignment) Bind(c PackageContainer, binding Binding, deps []Constraint) error {
	id := c.Identifier()
	if _, exists := a.bindings[id]; exists {
		return &InvalidInputError{Identifier: id, Reason: "already bound"}
	}

	var undo []undoEntry
	if binding.Kind == BindingVersion || binding.Kind == BindingUnversioned {
		for _, dep := range deps {
			if dep.Requirement.IsUnversioned() {
				// An unversioned outgoing dependency imposes no version
				// constraint of its own; it's resolved via its own
				// on-disk state, not a merged range.
				continue
			}
			prevRaw, had := a.merged.Get(string(dep.Identifier))
			prev := semrange.Any()
			if had {
				prev = prevRaw.(semrange.Set)
			}
			next := semrange.Intersect(prev, dep.Requirement.Set())
			a.merged.Insert(string(dep.Identifier), next)
			undo = append(undo, undoEntry{id: dep.Identifier, prev: prev, hadPrev: had})

			if next.Kind() == semrange.KindEmpty {
				a.rollback(undo)
				return &contradiction{identifier: dep.Identifier}
			}

			// A newly-merged requirement can narrow the set without
			// emptying it while still excluding a version already bound
			// for this identifier (e.g. cyclic or diamond dependencies
			// converging on different ranges). That's still a
			// contradiction: constraints[c.id] must contain the bound
			// version (spec.md §3's second assignment invariant).
			if existing, bound := a.bindings[dep.Identifier]; bound && existing.binding.Kind == BindingVersion {
				if !next.Contains(existing.binding.Version) {
					a.rollback(undo)
					return &contradiction{identifier: dep.Identifier}
				}
			}
		}
	}

	a.order = append(a.order, id)
	a.bindings[id] = &boundEntry{container: c, binding: binding, undo: undo}
	return nil
}

// Unbind reverses a prior Bind, restoring the merged map to its state
// beforehand. It is a no-op if c was never bound.
func (a *VersionAssignment) Unbind(c PackageContainer) {
	id := c.Identifier()
	entry, ok := a.bindings[id]
	if !ok {
		return
	}
	a.rollback(entry.undo)
	delete(a.bindings, id)
	for i := len(a.order) - 1; i >= 0; i-- {
		if a.order[i] == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

func (a *VersionAssignment) rollback(undo []undoEntry) {
	for i := len(undo) - 1; i >= 0; i-- {
		u := undo[i]
		if u.hadPrev {
			a.merged.Insert(string(u.id), u.prev)
		} else {
			a.merged.Delete(string(u.id))
		}
	}
}

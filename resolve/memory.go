package resolve

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/gopkgdep/resolve/semrange"
)

// MapContainer is a PackageContainer backed by an in-process map of
// version to outgoing constraints. It is the reference implementation
// used by unit tests and the resolvetest fixture loader, in the spirit of
// golang-dep's depspec test fixtures: a container with no network behind
// it at all.
type MapContainer struct {
	id       PackageIdentifier
	versions []semrange.Version
	deps     map[string][]Constraint // keyed by Version.String()
	working  []Constraint
	hasWork  bool
}

// NewMapContainer builds a MapContainer whose versions are exactly the
// keys of deps, sorted strictly descending.
func NewMapContainer(id PackageIdentifier, deps map[string][]Constraint) *MapContainer {
	mc := &MapContainer{id: id, deps: map[string][]Constraint{}}
	for vs, cs := range deps {
		v := semrange.MustParse(vs)
		mc.versions = append(mc.versions, v)
		mc.deps[v.String()] = cs
	}
	sort.Slice(mc.versions, func(i, j int) bool {
		return mc.versions[j].Less(mc.versions[i])
	})
	return mc
}

// WithWorkingState attaches the constraints reported when this container
// is bound unversioned, and returns mc for chaining.
func (mc *MapContainer) WithWorkingState(cs []Constraint) *MapContainer {
	mc.working = cs
	mc.hasWork = true
	return mc
}

// Identifier implements PackageContainer.
func (mc *MapContainer) Identifier() PackageIdentifier { return mc.id }

// Versions implements PackageContainer.
func (mc *MapContainer) Versions(ctx context.Context) ([]semrange.Version, error) {
	out := make([]semrange.Version, len(mc.versions))
	copy(out, mc.versions)
	return out, nil
}

// Dependencies implements PackageContainer.
func (mc *MapContainer) Dependencies(ctx context.Context, v semrange.Version) ([]Constraint, error) {
	cs, ok := mc.deps[v.String()]
	if !ok {
		return nil, &noSuchVersionError{id: mc.id, v: v}
	}
	return cs, nil
}

// UnversionedDependencies implements PackageContainer.
func (mc *MapContainer) UnversionedDependencies(ctx context.Context) ([]Constraint, error) {
	if !mc.hasWork {
		return nil, ErrNoWorkingState
	}
	return mc.working, nil
}

// InMemoryProvider is a PackageContainerProvider over a fixed set of
// containers known up front. Looking up an identifier not present fails
// with UnknownContainerError, matching a real provider that can't find
// the package on the network.
type InMemoryProvider struct {
	containers map[PackageIdentifier]PackageContainer
}

// NewInMemoryProvider builds a provider from the given containers.
func NewInMemoryProvider(containers ...PackageContainer) *InMemoryProvider {
	p := &InMemoryProvider{containers: make(map[PackageIdentifier]PackageContainer, len(containers))}
	for _, c := range containers {
		p.containers[c.Identifier()] = c
	}
	return p
}

// errNotFound is returned by Container for an identifier the provider was
// never given. The solver wraps it into an UnknownContainerError; this
// type stays unexported so that wrapping is the only place the public
// error kind is constructed.
type errNotFound struct {
	id PackageIdentifier
}

func (e *errNotFound) Error() string { return "no such package: " + e.id.String() }

// Container implements PackageContainerProvider.
func (p *InMemoryProvider) Container(ctx context.Context, id PackageIdentifier) (PackageContainer, error) {
	c, ok := p.containers[id]
	if !ok {
		return nil, errors.WithStack(&errNotFound{id: id})
	}
	return c, nil
}

package resolve

import (
	"context"
	"errors"

	"github.com/gopkgdep/resolve/semrange"
)

// ErrNoWorkingState is returned by UnversionedDependencies when a
// container has no on-disk working copy to report constraints from.
var ErrNoWorkingState = errors.New("resolve: container has no unversioned working state")

// PackageContainer is a handle for one identifier's metadata: the
// versions it offers, in strictly descending order, and the outgoing
// constraints declared by each version (spec.md §4.2).
type PackageContainer interface {
	// Identifier returns the identifier this container answers for.
	Identifier() PackageIdentifier

	// Versions returns the available versions, newest first. Fetching all
	// versions must be possible, but the engine only asks for as much of
	// the sequence as it needs.
	Versions(ctx context.Context) ([]semrange.Version, error)

	// Dependencies returns the outgoing constraints declared by version v.
	// MapContainer fails with an error satisfying IsNoSuchVersion if v is
	// not among Versions; IsNoSuchVersion does not recognize the errors
	// other implementations (such as gitsource's) return for that case.
	// The resolver does not memoize the result: after backtracking it may
	// call this again for a version it already asked about, so
	// implementations should memoize per version.
	Dependencies(ctx context.Context, v semrange.Version) ([]Constraint, error)

	// UnversionedDependencies returns the outgoing constraints of the
	// package's current working state, for use when a root names this
	// identifier with the unversioned sentinel (spec.md §4.4). Containers
	// backed purely by tagged releases, with no local checkout, return
	// ErrNoWorkingState.
	UnversionedDependencies(ctx context.Context) ([]Constraint, error)
}

// PackageContainerProvider maps an identifier to its container, fetching
// lazily. It is the only component in the core permitted to do I/O
// (spec.md §4.2, §1).
type PackageContainerProvider interface {
	Container(ctx context.Context, id PackageIdentifier) (PackageContainer, error)
}

type noSuchVersionError struct {
	id PackageIdentifier
	v  semrange.Version
}

func (e *noSuchVersionError) Error() string {
	return "resolve: " + e.id.String() + " has no version " + e.v.String()
}

// IsNoSuchVersion reports whether err was produced by MapContainer's
// Dependencies method for a version outside its Versions list. It checks
// the error's type directly and does not look through wrapped errors.
func IsNoSuchVersion(err error) bool {
	_, ok := err.(*noSuchVersionError)
	return ok
}

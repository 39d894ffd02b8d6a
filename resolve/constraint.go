package resolve

import "github.com/gopkgdep/resolve/semrange"

// Requirement is a constraint's payload: either a concrete VersionSet, or
// the unversioned sentinel meaning "present in the referring package's
// working state, no version pinned" (spec.md §3).
type Requirement struct {
	set         semrange.Set
	unversioned bool
}

// VersionedRequirement wraps a concrete VersionSet as a Requirement.
func VersionedRequirement(s semrange.Set) Requirement {
	return Requirement{set: s}
}

// Unversioned is the sentinel requirement.
func Unversioned() Requirement {
	return Requirement{unversioned: true}
}

// IsUnversioned reports whether r is the unversioned sentinel.
func (r Requirement) IsUnversioned() bool {
	return r.unversioned
}

// Set returns the underlying VersionSet. Calling it on an unversioned
// requirement panics; callers must check IsUnversioned first, exactly as
// they must check a Go map's "ok" before indexing blindly.
func (r Requirement) Set() semrange.Set {
	if r.unversioned {
		panic("resolve: Set called on an unversioned Requirement")
	}
	return r.set
}

func (r Requirement) String() string {
	if r.unversioned {
		return "unversioned"
	}
	return r.set.String()
}

// Constraint pairs a package identifier with a requirement (spec.md §3).
type Constraint struct {
	Identifier  PackageIdentifier
	Requirement Requirement
}

// Package semrange implements the version algebra that the resolver core
// is built on: semantic versions and version sets (union-free, but closed
// under intersection and containment).
package semrange

import (
	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Version is a parsed semantic version. Ordering follows semver 2.0:
// numeric components compare numerically, pre-release identifiers compare
// component-wise with numeric-vs-alphanumeric rules, build metadata is
// ignored, and a version with no pre-release sorts after any pre-release
// of the same (major, minor, patch) triple. Masterminds/semver/v3 already
// implements that precedence rule, so Compare delegates to it directly.
type Version struct {
	sv  *semver.Version
	raw string
}

// Parse parses a canonical version string. Invalid strings fail.
func Parse(s string) (Version, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, errors.Wrapf(err, "parsing version %q", s)
	}
	return Version{sv: sv, raw: s}, nil
}

// MustParse is Parse, panicking on error. Intended for tests and literal
// tables, not for untrusted input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the canonical form.
func (v Version) String() string {
	if v.sv == nil {
		return v.raw
	}
	return v.sv.String()
}

// IsZero reports whether v is the zero Version (unparsed/unset).
func (v Version) IsZero() bool {
	return v.sv == nil
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other, per semver 2.0 precedence.
func (v Version) Compare(other Version) int {
	return v.sv.Compare(other.sv)
}

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether v and other denote the same version for ordering
// purposes (build metadata aside).
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Successor returns the next release after v: the next patch version with
// pre-release and build metadata stripped, or, for a pre-release v, the
// release of the same (major, minor, patch) triple. A range
// [lo, lo.Successor()) is never auto-simplified to exact(lo); besides lo it
// also admits any pre-release that sorts between lo and lo.Successor().
func (v Version) Successor() Version {
	next := v.sv.IncPatch()
	return Version{sv: &next}
}

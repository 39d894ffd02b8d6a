package semrange

// Kind tags the four cases of a VersionSet.
type Kind uint8

const (
	// KindAny matches every version.
	KindAny Kind = iota
	// KindEmpty matches no version.
	KindEmpty
	// KindExact matches exactly one version.
	KindExact
	// KindRange matches the half-open interval [Lo, Hi).
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindEmpty:
		return "empty"
	case KindExact:
		return "exact"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// Set is a tagged variant over the four cases spec.md §3 requires: any,
// empty, exact(v), and range(lo, hi) = [lo, hi). Every Set returned by a
// constructor in this package is canonicalized: a range is never collapsed
// to exact even when Hi equals Lo.Successor(), and Exact is produced only
// by an explicit call to ExactVersion. Zero value is KindAny.
type Set struct {
	kind   Kind
	exact  Version
	lo, hi Version
}

// Any returns the universal set.
func Any() Set { return Set{kind: KindAny} }

// Empty returns the empty set.
func Empty() Set { return Set{kind: KindEmpty} }

// ExactVersion returns the singleton set containing only v.
func ExactVersion(v Version) Set { return Set{kind: KindExact, exact: v} }

// Range returns the half-open interval [lo, hi). Panics if lo is not
// strictly less than hi; callers that can't guarantee this should check
// first, since the invariant lo < hi is load-bearing for Contains and
// Intersect.
func Range(lo, hi Version) Set {
	if !lo.Less(hi) {
		panic("semrange: Range requires lo < hi")
	}
	return Set{kind: KindRange, lo: lo, hi: hi}
}

// Kind reports which of the four cases s is.
func (s Set) Kind() Kind { return s.kind }

// Bounds returns the lo/hi bounds of a KindRange set. Behavior is
// undefined for other kinds.
func (s Set) Bounds() (lo, hi Version) { return s.lo, s.hi }

// ExactValue returns the single version of a KindExact set. Behavior is
// undefined for other kinds.
func (s Set) ExactValue() Version { return s.exact }

// Contains reports whether v falls within s.
func (s Set) Contains(v Version) bool {
	switch s.kind {
	case KindAny:
		return true
	case KindEmpty:
		return false
	case KindExact:
		return v.Equal(s.exact)
	case KindRange:
		return !v.Less(s.lo) && v.Less(s.hi)
	default:
		return false
	}
}

// Intersect computes the intersection of a and b. The operation is total,
// commutative, and associative.
func Intersect(a, b Set) Set {
	switch {
	case a.kind == KindAny:
		return b
	case b.kind == KindAny:
		return a
	case a.kind == KindEmpty || b.kind == KindEmpty:
		return Empty()
	case a.kind == KindExact:
		if b.Contains(a.exact) {
			return a
		}
		return Empty()
	case b.kind == KindExact:
		if a.Contains(b.exact) {
			return b
		}
		return Empty()
	default:
		// both KindRange
		lo := a.lo
		if b.lo.Less(lo) {
			// keep a.lo (max of the two)
		} else {
			lo = b.lo
		}
		hi := a.hi
		if a.hi.Less(b.hi) {
			// keep a.hi (min of the two)
		} else {
			hi = b.hi
		}
		if lo.Less(hi) {
			return Range(lo, hi)
		}
		return Empty()
	}
}

// Equal reports whether a and b denote the same subset of versions.
// Canonicalization guarantees structural comparison tracks denotational
// equality for the cases this package constructs.
func (a Set) Equal(b Set) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindAny, KindEmpty:
		return true
	case KindExact:
		return a.exact.Equal(b.exact)
	case KindRange:
		return a.lo.Equal(b.lo) && a.hi.Equal(b.hi)
	default:
		return false
	}
}

// String renders s for diagnostics and trace output.
func (s Set) String() string {
	switch s.kind {
	case KindAny:
		return "*"
	case KindEmpty:
		return "<empty>"
	case KindExact:
		return s.exact.String()
	case KindRange:
		return "[" + s.lo.String() + "," + s.hi.String() + ")"
	default:
		return "<invalid>"
	}
}

package resolve

import (
	"fmt"

	"github.com/gopkgdep/resolve/semrange"
)

// UnsatisfiableConstraintsError reports that no candidate version
// satisfies the merged requirement for Identifier, after the search
// exhausted every alternative (spec.md §7).
type UnsatisfiableConstraintsError struct {
	Identifier  PackageIdentifier
	Requirement semrange.Set
}

func (e *UnsatisfiableConstraintsError) Error() string {
	return fmt.Sprintf("no version of %s satisfies %s", e.Identifier, e.Requirement)
}

// UnknownContainerError reports that the provider could not locate the
// package at all; this is fatal because there is no alternative container
// for the same identifier (spec.md §7).
type UnknownContainerError struct {
	Identifier PackageIdentifier
	Cause      error
}

func (e *UnknownContainerError) Error() string {
	return fmt.Sprintf("unknown package %s", e.Identifier)
}

func (e *UnknownContainerError) Unwrap() error { return e.Cause }

// FetchFailedError reports a transient-looking I/O failure fetching a
// container or a version's dependency metadata.
type FetchFailedError struct {
	Identifier PackageIdentifier
	Version    semrange.Version // zero Version if the failure was on the container fetch itself
	Cause      error
}

func (e *FetchFailedError) Error() string {
	if e.Version.IsZero() {
		return fmt.Sprintf("fetching %s: %v", e.Identifier, e.Cause)
	}
	return fmt.Sprintf("fetching dependencies of %s@%s: %v", e.Identifier, e.Version, e.Cause)
}

func (e *FetchFailedError) Unwrap() error { return e.Cause }

// CancelledError reports a user-requested abort.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "resolution cancelled" }

// InvalidInputError reports a malformed input — e.g. a root constraint
// whose VersionSet is already empty — reported without attempting
// resolution (spec.md §7).
type InvalidInputError struct {
	Identifier PackageIdentifier
	Reason     string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid constraint on %s: %s", e.Identifier, e.Reason)
}

// contradiction is internal control-flow signal for bind()/Solve() and is
// never returned to a caller of Solve (spec.md §7's Contradiction kind is
// "handled locally (backtrack)"). It is the tagged result enum that the
// source's exception-based control flow maps to.
type contradiction struct {
	identifier PackageIdentifier
}

func (c *contradiction) Error() string {
	return fmt.Sprintf("contradiction introduced by %s", c.identifier)
}

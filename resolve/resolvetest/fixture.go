// Package resolvetest loads the JSON fixture format described in
// spec.md §6 and drives resolve.Solve against it, the way golang-dep's
// test package builds a SourceManager from declarative fixture data
// instead of hand-assembling containers in every test function.
package resolvetest

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/gopkgdep/resolve"
	"github.com/gopkgdep/resolve/semrange"
)

// Fixture is the JSON shape spec.md §6 defines verbatim:
//
//	{
//	  "name": "<graph-name>",
//	  "constraints": [ { "identifier": "A", "requirement": ["1.0.0","2.0.0"] }, ... ],
//	  "containers": [
//	    { "identifier": "A",
//	      "versions": { "1.0.0": [ { "identifier": "B", "requirement": "any" } ] } },
//	    ...
//	  ],
//	  "result": { "A": "1.0.0", "B": "1.2.0" }
//	}
//
// Result is always a successful binding map: spec.md §6 only specifies the
// wire shape for a completed assignment, so fixtures exercising an error
// path (UnsatisfiableConstraints, UnknownContainer, ...) belong in
// resolve's own Go test table instead of this format, and stay there.
type Fixture struct {
	Name        string            `json:"name"`
	Constraints []WireConstraint  `json:"constraints"`
	Containers  []WireContainer   `json:"containers"`
	Result      map[string]string `json:"result"`
}

// WireContainer is one entry of the fixture's "containers" array: an
// identifier plus its versions, each mapping to the constraints that
// version declares. A "unversioned" key (alongside, or instead of, real
// version keys) supplies the container's working-state dependencies for
// scenario 6 (spec.md §8).
type WireContainer struct {
	Identifier string                      `json:"identifier"`
	Versions   map[string][]WireConstraint `json:"versions"`
}

// WireConstraint is one (identifier, requirement) pair. Requirement is
// the polymorphic encoding spec.md §6 fixes literally: the string "any",
// the string "empty", a one-element array for an exact version, or a
// two-element `["lo","hi"]` array for the half-open range `[lo, hi)`.
// "unversioned" is this package's one addition to that set, needed to
// express the sentinel requirement spec.md §3 defines alongside VersionSet
// but that §6's format doesn't separately illustrate.
type WireConstraint struct {
	Identifier  string          `json:"identifier"`
	Requirement json.RawMessage `json:"requirement"`
}

// Parse decodes a single fixture from raw JSON bytes.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "resolvetest: decoding fixture")
	}
	return &f, nil
}

func toRequirement(identifier string, raw json.RawMessage) (resolve.Requirement, error) {
	var tag string
	if err := json.Unmarshal(raw, &tag); err == nil {
		switch tag {
		case "any":
			return resolve.VersionedRequirement(semrange.Any()), nil
		case "empty":
			return resolve.VersionedRequirement(semrange.Empty()), nil
		case "unversioned":
			return resolve.Unversioned(), nil
		default:
			return resolve.Requirement{}, errors.Errorf("requirement for %s: unrecognized tag %q", identifier, tag)
		}
	}

	var bounds []string
	if err := json.Unmarshal(raw, &bounds); err != nil {
		return resolve.Requirement{}, errors.Wrapf(err, "requirement for %s", identifier)
	}
	switch len(bounds) {
	case 1:
		v, err := semrange.Parse(bounds[0])
		if err != nil {
			return resolve.Requirement{}, errors.Wrapf(err, "exact version for %s", identifier)
		}
		return resolve.VersionedRequirement(semrange.ExactVersion(v)), nil
	case 2:
		lo, err := semrange.Parse(bounds[0])
		if err != nil {
			return resolve.Requirement{}, errors.Wrapf(err, "range lo for %s", identifier)
		}
		hi, err := semrange.Parse(bounds[1])
		if err != nil {
			return resolve.Requirement{}, errors.Wrapf(err, "range hi for %s", identifier)
		}
		return resolve.VersionedRequirement(semrange.Range(lo, hi)), nil
	default:
		return resolve.Requirement{}, errors.Errorf("requirement for %s: array must have 1 or 2 elements, got %d", identifier, len(bounds))
	}
}

func toConstraint(w WireConstraint) (resolve.Constraint, error) {
	req, err := toRequirement(w.Identifier, w.Requirement)
	if err != nil {
		return resolve.Constraint{}, err
	}
	return resolve.Constraint{Identifier: resolve.PackageIdentifier(w.Identifier), Requirement: req}, nil
}

func toConstraints(ws []WireConstraint) ([]resolve.Constraint, error) {
	out := make([]resolve.Constraint, 0, len(ws))
	for _, w := range ws {
		c, err := toConstraint(w)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// BuildProvider constructs an InMemoryProvider holding one MapContainer
// per entry in f.Containers, populated from its declared per-version (and,
// if present, "unversioned") dependency lists.
func BuildProvider(f *Fixture) (*resolve.InMemoryProvider, error) {
	var containers []resolve.PackageContainer
	for _, wc := range f.Containers {
		deps := make(map[string][]resolve.Constraint)
		var working []resolve.Constraint
		var hasWorking bool
		for v, wcs := range wc.Versions {
			cs, err := toConstraints(wcs)
			if err != nil {
				return nil, errors.Wrapf(err, "container %s", wc.Identifier)
			}
			if v == "unversioned" {
				working = cs
				hasWorking = true
				continue
			}
			deps[v] = cs
		}
		mc := resolve.NewMapContainer(resolve.PackageIdentifier(wc.Identifier), deps)
		if hasWorking {
			mc = mc.WithWorkingState(working)
		}
		containers = append(containers, mc)
	}
	return resolve.NewInMemoryProvider(containers...), nil
}

// Roots builds the Options.Roots slice from the fixture's top-level
// constraints.
func Roots(f *Fixture) ([]resolve.Constraint, error) {
	return toConstraints(f.Constraints)
}

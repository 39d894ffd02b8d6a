package resolvetest

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"

	"github.com/gopkgdep/resolve"
)

// These fixtures use spec.md §6's JSON shape verbatim: the error-path
// scenarios (Unsatisfiable, Unknown module) have no representation in
// that format, since §6 only specifies the wire shape for a completed
// "result" binding map, so they're covered directly in
// resolve/solver_test.go instead.

const trivialChainFixture = `{
  "name": "trivial chain",
  "constraints": [
    {"identifier": "B", "requirement": ["1.0.0", "2.0.0"]}
  ],
  "containers": [
    { "identifier": "B",
      "versions": { "1.0.0": [ {"identifier": "C", "requirement": ["1.0.0", "2.0.0"]} ] } },
    { "identifier": "C",
      "versions": { "1.0.0": [] } }
  ],
  "result": {"B": "1.0.0", "C": "1.0.0"}
}`

const conflictForcesDowngradeFixture = `{
  "name": "conflict forcing downgrade",
  "constraints": [
    {"identifier": "A", "requirement": ["1.0.0", "3.0.0"]}
  ],
  "containers": [
    { "identifier": "A",
      "versions": {
        "2.0.0": [ {"identifier": "C", "requirement": ["1.1.0", "1.1.1"]} ],
        "1.0.0": [ {"identifier": "B", "requirement": ["1.0.0", "2.0.0"]} ]
      } },
    { "identifier": "B",
      "versions": { "1.0.0": [ {"identifier": "C", "requirement": ["1.0.0", "2.0.0"]} ] } },
    { "identifier": "C",
      "versions": { "1.0.0": [] } }
  ],
  "result": {"A": "1.0.0", "B": "1.0.0", "C": "1.0.0"}
}`

const cycleFixture = `{
  "name": "cycle",
  "constraints": [
    {"identifier": "A", "requirement": ["1.0.0", "2.0.0"]}
  ],
  "containers": [
    { "identifier": "A",
      "versions": { "1.0.0": [ {"identifier": "B", "requirement": ["1.0.0", "2.0.0"]} ] } },
    { "identifier": "B",
      "versions": { "1.0.0": [ {"identifier": "A", "requirement": ["1.0.0", "2.0.0"]} ] } }
  ],
  "result": {"A": "1.0.0", "B": "1.0.0"}
}`

const unversionedPinFixture = `{
  "name": "unversioned pin",
  "constraints": [
    {"identifier": "A", "requirement": "unversioned"}
  ],
  "containers": [
    { "identifier": "A",
      "versions": { "unversioned": [ {"identifier": "B", "requirement": ["1.0.0", "2.0.0"]} ] } },
    { "identifier": "B",
      "versions": { "1.5.0": [], "1.0.0": [] } }
  ],
  "result": {"B": "1.5.0"}
}`

func runFixture(t *testing.T, raw string) {
	t.Helper()

	f, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	provider, err := BuildProvider(f)
	if err != nil {
		t.Fatalf("BuildProvider: %v", err)
	}
	roots, err := Roots(f)
	if err != nil {
		t.Fatalf("Roots: %v", err)
	}

	got, solveErr := resolve.Solve(context.Background(), resolve.Options{
		Roots:    roots,
		Provider: provider,
	})
	if solveErr != nil {
		t.Fatalf("%s: Solve: %v", f.Name, solveErr)
	}

	gotBindings := make(map[string]string)
	for _, id := range got.Bindings() {
		b, _ := got.Binding(id)
		if b.Kind == resolve.BindingVersion {
			gotBindings[string(id)] = b.Version.String()
		}
	}
	if diff := cmp.Diff(f.Result, gotBindings); diff != "" {
		t.Errorf("%s: bindings mismatch (-want +got):\n%s\n%s", f.Name, diff, spew.Sdump(gotBindings))
	}
}

func TestFixtures(t *testing.T) {
	fixtures := []string{
		trivialChainFixture,
		conflictForcesDowngradeFixture,
		cycleFixture,
		unversionedPinFixture,
	}
	for _, raw := range fixtures {
		runFixture(t, raw)
	}
}

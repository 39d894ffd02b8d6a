package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/gopkgdep/resolve/semrange"
)

func mustRange(lo, hi string) semrange.Set {
	return semrange.Range(semrange.MustParse(lo), semrange.MustParse(hi))
}

func req(lo, hi string) Requirement {
	return VersionedRequirement(mustRange(lo, hi))
}

func exactReq(v string) Requirement {
	return VersionedRequirement(semrange.ExactVersion(semrange.MustParse(v)))
}

// recordingDelegate captures the event sequence so tests can assert on it
// directly, the way golang-dep's trace tests diff against a golden log.
type recordingDelegate struct {
	events []string
}

func (r *recordingDelegate) Added(id PackageIdentifier) {
	r.events = append(r.events, "added:"+string(id))
}

func (r *recordingDelegate) TryingVersion(id PackageIdentifier, v semrange.Version) {
	r.events = append(r.events, "trying:"+string(id)+"@"+v.String())
}

func (r *recordingDelegate) ResolutionFailed(id PackageIdentifier, requirement semrange.Set) {
	r.events = append(r.events, "failed:"+string(id)+":"+requirement.String())
}

func bindingsMap(t *testing.T, a *VersionAssignment) map[PackageIdentifier]Binding {
	t.Helper()
	out := make(map[PackageIdentifier]Binding)
	for _, id := range a.Bindings() {
		b, ok := a.Binding(id)
		if !ok {
			t.Fatalf("Bindings() listed %s but Binding() found nothing", id)
		}
		out[id] = b
	}
	return out
}

// TestTrivialChain grounds spec.md §8 scenario 1: A requires B requires C,
// each with a single matching version, resolving to exactly those
// versions with no backtracking.
func TestTrivialChain(t *testing.T) {
	c := NewMapContainer("C", map[string][]Constraint{
		"1.0.0": nil,
	})
	b := NewMapContainer("B", map[string][]Constraint{
		"1.0.0": {{Identifier: "C", Requirement: req("1.0.0", "2.0.0")}},
	})
	a := NewMapContainer("A", map[string][]Constraint{
		"1.0.0": {{Identifier: "B", Requirement: req("1.0.0", "2.0.0")}},
	})
	provider := NewInMemoryProvider(a, b, c)

	got, err := Solve(context.Background(), Options{
		Roots:    []Constraint{{Identifier: "A", Requirement: req("1.0.0", "2.0.0")}},
		Provider: provider,
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	bindings := bindingsMap(t, got)
	want := map[PackageIdentifier]Binding{
		"A": versionBinding(semrange.MustParse("1.0.0")),
		"B": versionBinding(semrange.MustParse("1.0.0")),
		"C": versionBinding(semrange.MustParse("1.0.0")),
	}
	if diff := cmp.Diff(want, bindings, cmp.Comparer(func(x, y Binding) bool {
		return x.Kind == y.Kind && x.Version.Equal(y.Version)
	})); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s\n%s", diff, spew.Sdump(bindings))
	}
}

// TestConflictForcesDowngrade grounds spec.md §8 scenario 2: the greedy
// newest-first candidate for B is incompatible with a constraint C induces
// transitively, forcing the search to backtrack to an older B.
func TestConflictForcesDowngrade(t *testing.T) {
	c := NewMapContainer("C", map[string][]Constraint{
		"1.0.0": {{Identifier: "B", Requirement: req("1.0.0", "1.5.0")}},
	})
	b := NewMapContainer("B", map[string][]Constraint{
		"1.0.0": nil,
		"2.0.0": nil,
	})
	provider := NewInMemoryProvider(b, c)

	rec := &recordingDelegate{}
	got, err := Solve(context.Background(), Options{
		Roots: []Constraint{
			{Identifier: "B", Requirement: req("1.0.0", "3.0.0")},
			{Identifier: "C", Requirement: req("1.0.0", "2.0.0")},
		},
		Provider: provider,
		Delegate: rec,
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	bindings := bindingsMap(t, got)
	bBinding, ok := bindings["B"]
	if !ok || bBinding.Kind != BindingVersion || !bBinding.Version.Equal(semrange.MustParse("1.0.0")) {
		t.Fatalf("B = %+v, want version 1.0.0", bBinding)
	}

	sawB2 := false
	for _, e := range rec.events {
		if e == "trying:B@2.0.0" {
			sawB2 = true
		}
	}
	if !sawB2 {
		t.Errorf("expected the engine to attempt B@2.0.0 before backtracking, events: %v", rec.events)
	}
}

// TestUnsatisfiable grounds spec.md §8 scenario 3: two root constraints on
// the same identifier whose ranges don't overlap must fail without ever
// calling the provider.
func TestUnsatisfiable(t *testing.T) {
	provider := NewInMemoryProvider() // empty: any Container() call fails the test

	_, err := Solve(context.Background(), Options{
		Roots: []Constraint{
			{Identifier: "A", Requirement: req("1.0.0", "2.0.0")},
			{Identifier: "A", Requirement: req("3.0.0", "4.0.0")},
		},
		Provider: provider,
	})

	var unsat *UnsatisfiableConstraintsError
	if !errors.As(err, &unsat) {
		t.Fatalf("Solve err = %v, want *UnsatisfiableConstraintsError", err)
	}
	if unsat.Identifier != "A" {
		t.Errorf("Identifier = %s, want A", unsat.Identifier)
	}
}

// TestCycle grounds spec.md §8 scenario 4: A depends on B which depends
// back on A. The engine must terminate and the shared identifier resolves
// once via the merged-constraints mechanism rather than looping forever.
func TestCycle(t *testing.T) {
	a := NewMapContainer("A", map[string][]Constraint{
		"1.0.0": {{Identifier: "B", Requirement: req("1.0.0", "2.0.0")}},
	})
	b := NewMapContainer("B", map[string][]Constraint{
		"1.0.0": {{Identifier: "A", Requirement: req("1.0.0", "2.0.0")}},
	})
	provider := NewInMemoryProvider(a, b)

	done := make(chan struct{})
	var got *VersionAssignment
	var err error
	go func() {
		got, err = Solve(context.Background(), Options{
			Roots:    []Constraint{{Identifier: "A", Requirement: req("1.0.0", "2.0.0")}},
			Provider: provider,
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Solve did not terminate on a two-node cycle")
	}

	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	bindings := bindingsMap(t, got)
	if len(bindings) != 2 {
		t.Fatalf("bindings = %v, want exactly A and B", bindings)
	}
}

// TestUnknownModule grounds spec.md §8 scenario 5: a dependency on an
// identifier the provider has never heard of is fatal, not a candidate to
// skip.
func TestUnknownModule(t *testing.T) {
	a := NewMapContainer("A", map[string][]Constraint{
		"1.0.0": {{Identifier: "ghost", Requirement: req("1.0.0", "2.0.0")}},
	})
	provider := NewInMemoryProvider(a)

	_, err := Solve(context.Background(), Options{
		Roots:    []Constraint{{Identifier: "A", Requirement: req("1.0.0", "2.0.0")}},
		Provider: provider,
	})

	var unknown *UnknownContainerError
	if !errors.As(err, &unknown) {
		t.Fatalf("Solve err = %v, want *UnknownContainerError", err)
	}
	if unknown.Identifier != "ghost" {
		t.Errorf("Identifier = %s, want ghost", unknown.Identifier)
	}
}

// TestUnversionedPin grounds spec.md §8 scenario 6: a root names B
// unversioned, so B's working-state dependencies are taken as-is rather
// than a version being selected for it.
func TestUnversionedPin(t *testing.T) {
	c := NewMapContainer("C", map[string][]Constraint{
		"1.0.0": nil,
		"2.0.0": nil,
	})
	b := NewMapContainer("B", nil).WithWorkingState(
		[]Constraint{{Identifier: "C", Requirement: req("1.0.0", "2.0.0")}},
	)
	provider := NewInMemoryProvider(b, c)

	got, err := Solve(context.Background(), Options{
		Roots:    []Constraint{{Identifier: "B", Requirement: Unversioned()}},
		Provider: provider,
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	bindings := bindingsMap(t, got)
	bBinding, ok := bindings["B"]
	if !ok || bBinding.Kind != BindingUnversioned {
		t.Fatalf("B = %+v, want BindingUnversioned", bBinding)
	}
	cBinding, ok := bindings["C"]
	if !ok || !cBinding.Version.Equal(semrange.MustParse("1.0.0")) {
		t.Fatalf("C = %+v, want version 1.0.0", cBinding)
	}
}

// TestDeterminism grounds spec.md §5: identical inputs must produce
// bit-identical bindings and an identical delegate event sequence across
// repeated runs.
func TestDeterminism(t *testing.T) {
	d := NewMapContainer("D", map[string][]Constraint{"1.0.0": nil, "1.1.0": nil})
	c := NewMapContainer("C", map[string][]Constraint{
		"1.0.0": {{Identifier: "D", Requirement: req("1.0.0", "2.0.0")}},
	})
	b := NewMapContainer("B", map[string][]Constraint{
		"1.0.0": {{Identifier: "D", Requirement: req("1.0.0", "1.1.0")}},
	})
	roots := []Constraint{
		{Identifier: "B", Requirement: req("1.0.0", "2.0.0")},
		{Identifier: "C", Requirement: req("1.0.0", "2.0.0")},
	}

	run := func() (map[PackageIdentifier]Binding, []string) {
		rec := &recordingDelegate{}
		got, err := Solve(context.Background(), Options{
			Roots:    roots,
			Provider: NewInMemoryProvider(b, c, d),
			Delegate: rec,
		})
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		return bindingsMap(t, got), rec.events
	}

	b1, e1 := run()
	b2, e2 := run()

	cmpOpt := cmp.Comparer(func(x, y Binding) bool {
		return x.Kind == y.Kind && x.Version.Equal(y.Version)
	})
	if diff := cmp.Diff(b1, b2, cmpOpt); diff != "" {
		t.Errorf("bindings differ across runs (-run1 +run2):\n%s", diff)
	}
	if diff := cmp.Diff(e1, e2); diff != "" {
		t.Errorf("delegate events differ across runs (-run1 +run2):\n%s", diff)
	}
}

// TestInvalidRootConstraint grounds spec.md §7's InvalidInputError example
// directly: a root whose requirement is the empty VersionSet is rejected
// before any provider call.
func TestInvalidRootConstraint(t *testing.T) {
	_, err := Solve(context.Background(), Options{
		Roots:    []Constraint{{Identifier: "A", Requirement: VersionedRequirement(semrange.Empty())}},
		Provider: NewInMemoryProvider(),
	})
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("Solve err = %v, want *InvalidInputError", err)
	}
}

package semrange

import "testing"

func TestVersionOrdering(t *testing.T) {
	// Ascending order per semver 2.0 precedence, including the rule that a
	// version with no pre-release sorts after any pre-release of the same
	// (major, minor, patch) triple.
	ordered := []string{
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
		"1.0.1",
		"1.1.0",
		"2.0.0",
	}

	for i := 1; i < len(ordered); i++ {
		a, err := Parse(ordered[i-1])
		if err != nil {
			t.Fatalf("parsing %q: %v", ordered[i-1], err)
		}
		b, err := Parse(ordered[i])
		if err != nil {
			t.Fatalf("parsing %q: %v", ordered[i], err)
		}
		if !a.Less(b) {
			t.Errorf("expected %s < %s", a, b)
		}
		if b.Less(a) {
			t.Errorf("expected %s to not be < %s", b, a)
		}
	}
}

func TestVersionBuildMetadataIgnoredInOrdering(t *testing.T) {
	a := MustParse("1.0.0+build.1")
	b := MustParse("1.0.0+build.2")
	if a.Compare(b) != 0 {
		t.Errorf("build metadata must not affect ordering: %s vs %s compared %d", a, b, a.Compare(b))
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "not-a-version", "1.x.0", "v"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected Parse(%q) to fail", s)
		}
	}
}

package resolve

import (
	"fmt"
	"io"
	"strings"

	"github.com/gopkgdep/resolve/semrange"
)

// TraceDelegate wraps an io.Writer and renders delegate events as an
// indented, human-readable trace log, in the line-oriented style
// golang-dep's solver trace uses (a depth-prefixed stream of "added",
// "trying", and "failed" lines) rather than a structured-logging record
// format. It implements depthAware: Solve reports the search's current
// queueHead as depth at the start of each search step, the same live proxy
// golang-dep's own trace derives from len(s.vqs)/len(s.sel.projects)
// rather than a separately maintained counter. An event fired after a
// deeper step has returned is indented at that deeper step's depth.
type TraceDelegate struct {
	w     io.Writer
	depth int
}

// NewTraceDelegate returns a TraceDelegate writing to w. A nil w disables
// output entirely, making the zero value safe to embed.
func NewTraceDelegate(w io.Writer) *TraceDelegate {
	return &TraceDelegate{w: w}
}

func (t *TraceDelegate) prefix() string {
	return strings.Repeat("| ", t.depth)
}

func (t *TraceDelegate) logln(format string, args ...interface{}) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "%s%s\n", t.prefix(), fmt.Sprintf(format, args...))
}

// Added implements Delegate.
func (t *TraceDelegate) Added(id PackageIdentifier) {
	t.logln("+ fetched container for %s", id)
}

// TryingVersion implements Delegate.
func (t *TraceDelegate) TryingVersion(id PackageIdentifier, v semrange.Version) {
	t.logln("? trying %s@%s", id, v)
}

// ResolutionFailed implements Delegate.
func (t *TraceDelegate) ResolutionFailed(id PackageIdentifier, requirement semrange.Set) {
	t.logln("✗ no version of %s satisfies %s", id, requirement)
}

// setDepth implements depthAware.
func (t *TraceDelegate) setDepth(depth int) {
	if t != nil {
		t.depth = depth
	}
}

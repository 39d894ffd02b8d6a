package resolve

import (
	"context"

	"github.com/gopkgdep/resolve/semrange"
)

// Solve runs the backtracking search described in spec.md §4.4: it
// fetches containers lazily through opts.Provider, enumerates candidate
// versions newest-first, extends the assignment, propagates newly induced
// constraints, and backtracks on contradiction.
//
// It returns a completed VersionAssignment on success. On failure it
// returns one of the error kinds documented on errors.go:
// UnsatisfiableConstraintsError, UnknownContainerError, FetchFailedError,
// CancelledError, or InvalidInputError. ctx is checked at each decision point — before
// fetching a container and before selecting a version — so cancelling it
// unwinds the search cleanly (spec.md §5).
func Solve(ctx context.Context, opts Options) (*VersionAssignment, error) {
	delegate := opts.Delegate
	if delegate == nil {
		delegate = NoopDelegate{}
	}
	if opts.Trace != nil {
		delegate = multiDelegate{delegate, NewTraceDelegate(opts.Trace)}
	}

	s := &solver{
		ctx:                  ctx,
		provider:             opts.Provider,
		delegate:             delegate,
		assign:               NewVersionAssignment(),
		containers:           make(map[PackageIdentifier]PackageContainer),
		containerAdded:       make(map[PackageIdentifier]bool),
		versionsCache:        make(map[PackageIdentifier][]semrange.Version),
		unversionedRequested: make(map[PackageIdentifier]bool),
		queuedSet:            make(map[PackageIdentifier]bool),
	}

	if err := s.seedRoots(opts.Roots); err != nil {
		return nil, err
	}

	ok, err := s.step()
	if err != nil {
		return nil, err
	}
	if !ok {
		// The top-level step only returns (false, nil) when it has
		// exhausted every candidate for some root-reachable identifier
		// without a more specific error already having been produced —
		// this should not happen, since every failing path inside step
		// returns a concrete error. Treat it defensively as the same
		// failure that would have been reported last.
		return nil, &UnsatisfiableConstraintsError{}
	}
	return s.assign, nil
}

// solver holds all mutable state for one resolution attempt. It is used
// by exactly one goroutine; VersionAssignment's own single-branch
// restriction (spec.md §4.3) applies transitively here.
type solver struct {
	ctx      context.Context
	provider PackageContainerProvider
	delegate Delegate
	assign   *VersionAssignment

	containers     map[PackageIdentifier]PackageContainer
	containerAdded map[PackageIdentifier]bool
	versionsCache  map[PackageIdentifier][]semrange.Version

	// unversionedRequested marks identifiers any bound package (or a
	// root) has named with the unversioned sentinel. Resolution policy
	// for the spec.md §9 open question ("what if the same identifier is
	// named both with and without a version somewhere in the graph") is
	// unversioned-wins: the first unversioned request for an identifier
	// commits it to a working-state binding, and that binding never
	// backtracks (spec.md §4.4). See DESIGN.md for the rejected
	// alternative and why this one was chosen.
	unversionedRequested map[PackageIdentifier]bool

	// queue is the FIFO of pending identifiers; queueHead marks the next
	// to process. Identifiers are appended once, in discovery order, and
	// never reordered — spec.md §4.4 requires insertion-order processing
	// for reproducibility.
	queue     []PackageIdentifier
	queuedSet map[PackageIdentifier]bool
	queueHead int

	attempts int
}

// seedRoots validates and merges the root constraints into the initial
// assignment state, and enqueues their identifiers. It reproduces spec.md
// §8 scenario 3 precisely: two root constraints on the same identifier
// whose intersection is empty fail as UnsatisfiableConstraints before the
// provider is ever consulted.
func (s *solver) seedRoots(roots []Constraint) error {
	for _, c := range roots {
		if !c.Requirement.IsUnversioned() && c.Requirement.Set().Kind() == semrange.KindEmpty {
			return &InvalidInputError{Identifier: c.Identifier, Reason: "requirement is the empty VersionSet"}
		}
	}

	for _, c := range roots {
		s.enqueue(c.Identifier)
		if c.Requirement.IsUnversioned() {
			s.unversionedRequested[c.Identifier] = true
			continue
		}
		cur := s.assign.Constraint(c.Identifier)
		next := semrange.Intersect(cur, c.Requirement.Set())
		s.assign.merged.Insert(string(c.Identifier), next)
		if next.Kind() == semrange.KindEmpty {
			s.delegate.ResolutionFailed(c.Identifier, next)
			return &UnsatisfiableConstraintsError{Identifier: c.Identifier, Requirement: next}
		}
	}
	return nil
}

func (s *solver) enqueue(id PackageIdentifier) {
	if s.queuedSet[id] {
		return
	}
	if _, bound := s.assign.Binding(id); bound {
		return
	}
	s.queuedSet[id] = true
	s.queue = append(s.queue, id)
}

// isFatal reports whether err aborts the whole search rather than just the
// candidate that produced it. UnknownContainerError is fatal because
// there is no alternative container for the same identifier to try
// instead (spec.md §7); CancelledError is fatal by definition.
// UnsatisfiableConstraintsError and FetchFailedError are not fatal here:
// they mean this candidate (or this branch) didn't pan out, and the
// caller should move on to the next one.
func isFatal(err error) bool {
	switch err.(type) {
	case *UnknownContainerError, *CancelledError:
		return true
	default:
		return false
	}
}

func (s *solver) cancelled() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

func (s *solver) container(id PackageIdentifier) (PackageContainer, error) {
	if c, ok := s.containers[id]; ok {
		return c, nil
	}
	if s.cancelled() {
		return nil, &CancelledError{}
	}
	c, err := s.provider.Container(s.ctx, id)
	if err != nil {
		return nil, &UnknownContainerError{Identifier: id, Cause: err}
	}
	s.containers[id] = c
	if !s.containerAdded[id] {
		s.containerAdded[id] = true
		s.delegate.Added(id)
	}
	return c, nil
}

func (s *solver) versions(c PackageContainer) ([]semrange.Version, error) {
	id := c.Identifier()
	if vs, ok := s.versionsCache[id]; ok {
		return vs, nil
	}
	vs, err := c.Versions(s.ctx)
	if err != nil {
		return nil, &FetchFailedError{Identifier: id, Cause: err}
	}
	s.versionsCache[id] = vs
	return vs, nil
}

// step processes the queue starting at queueHead, depth-first. It returns
// (true, nil) once every pending identifier is bound. On failure it
// restores queueHead to its value on entry before returning, so a caller
// exploring sibling candidates sees consistent state.
func (s *solver) step() (bool, error) {
	if da, ok := s.delegate.(depthAware); ok {
		da.setDepth(s.queueHead)
	}
	if s.cancelled() {
		return false, &CancelledError{}
	}
	if s.queueHead >= len(s.queue) {
		return true, nil
	}

	id := s.queue[s.queueHead]
	if _, bound := s.assign.Binding(id); bound {
		// Already bound — typically a cycle: the edge that reached it
		// again was already incorporated into the merged map when it was
		// originally bound. Just move past it.
		s.queueHead++
		ok, err := s.step()
		if !ok {
			s.queueHead--
		}
		return ok, err
	}

	if s.unversionedRequested[id] {
		return s.stepUnversioned(id)
	}
	return s.stepVersioned(id)
}

// stepUnversioned binds id to its on-disk working state. Per spec.md
// §4.4, unversioned bindings never backtrack: any failure here is fatal
// to the whole resolution, not just this branch.
func (s *solver) stepUnversioned(id PackageIdentifier) (bool, error) {
	container, err := s.container(id)
	if err != nil {
		return false, err
	}

	deps, err := container.UnversionedDependencies(s.ctx)
	if err != nil {
		return false, &FetchFailedError{Identifier: id, Cause: err}
	}

	if err := s.assign.Bind(container, UnversionedBinding(), deps); err != nil {
		// A contradiction here means the package's own working-state
		// dependencies are incompatible with constraints already merged
		// in from elsewhere in the graph. Since unversioned bindings
		// never backtrack, that's fatal.
		if c, ok := err.(*contradiction); ok {
			req := s.assign.Constraint(c.identifier)
			s.delegate.ResolutionFailed(c.identifier, req)
			return false, &UnsatisfiableConstraintsError{Identifier: c.identifier, Requirement: req}
		}
		return false, err
	}

	for _, dep := range deps {
		if dep.Requirement.IsUnversioned() {
			s.unversionedRequested[dep.Identifier] = true
		}
		s.enqueue(dep.Identifier)
	}

	s.queueHead++
	ok, err := s.step()
	if !ok {
		// Unversioned bindings never backtrack; propagate the failure
		// without restoring queueHead or unbinding.
		return false, err
	}
	return true, nil
}

// stepVersioned tries each candidate version for id, newest first,
// recursing into the rest of the queue after each tentative bind and
// unwinding cleanly on failure (spec.md §4.4 steps 3-5).
func (s *solver) stepVersioned(id PackageIdentifier) (bool, error) {
	container, err := s.container(id)
	if err != nil {
		return false, err
	}

	all, err := s.versions(container)
	if err != nil {
		return false, err
	}

	req := s.assign.Constraint(id)
	var candidates []semrange.Version
	for _, v := range all {
		if req.Contains(v) {
			candidates = append(candidates, v)
		}
	}

	if len(candidates) == 0 {
		s.delegate.ResolutionFailed(id, req)
		return false, &UnsatisfiableConstraintsError{Identifier: id, Requirement: req}
	}

	entryHead := s.queueHead
	var lastErr error

	for _, v := range candidates {
		if s.cancelled() {
			return false, &CancelledError{}
		}

		s.delegate.TryingVersion(id, v)
		deps, derr := container.Dependencies(s.ctx, v)
		if derr != nil {
			// A version whose dependency metadata can't be fetched is
			// treated as contradictory: skip it and keep trying
			// candidates (spec.md §7).
			lastErr = &FetchFailedError{Identifier: id, Version: v, Cause: derr}
			continue
		}

		if bindErr := s.assign.Bind(container, versionBinding(v), deps); bindErr != nil {
			if _, ok := bindErr.(*contradiction); ok {
				lastErr = bindErr
				continue
			}
			return false, bindErr
		}

		entryQueueLen := len(s.queue)
		var newlyUnversioned []PackageIdentifier
		for _, dep := range deps {
			if dep.Requirement.IsUnversioned() && !s.unversionedRequested[dep.Identifier] {
				s.unversionedRequested[dep.Identifier] = true
				newlyUnversioned = append(newlyUnversioned, dep.Identifier)
			}
			s.enqueue(dep.Identifier)
		}

		s.queueHead = entryHead + 1
		ok, stepErr := s.step()
		if ok {
			s.attempts++
			return true, nil
		}
		if isFatal(stepErr) {
			return false, stepErr
		}

		// Backtrack: undo everything this candidate did.
		s.assign.Unbind(container)
		for _, rid := range s.queue[entryQueueLen:] {
			delete(s.queuedSet, rid)
		}
		s.queue = s.queue[:entryQueueLen]
		for _, nu := range newlyUnversioned {
			delete(s.unversionedRequested, nu)
		}
		s.queueHead = entryHead
		s.attempts++
		lastErr = stepErr
	}

	if lastErr == nil {
		lastErr = &UnsatisfiableConstraintsError{Identifier: id, Requirement: req}
	}
	if _, ok := lastErr.(*CancelledError); ok {
		return false, lastErr
	}
	s.delegate.ResolutionFailed(id, req)
	return false, &UnsatisfiableConstraintsError{Identifier: id, Requirement: req}
}

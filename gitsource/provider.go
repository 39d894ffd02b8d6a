// Package gitsource provides a PackageContainerProvider backed by real git
// remotes: tags become candidate versions, and a dependency manifest read
// at each tag's tree becomes that version's outgoing constraints.
package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/vcs"
	"github.com/pkg/errors"

	"github.com/gopkgdep/resolve"
	"github.com/gopkgdep/resolve/semrange"
)

// ManifestReader reads and parses the dependency manifest committed at a
// given tag/revision of a checked-out repository rooted at dir. The
// manifest format itself is out of this core's scope (spec.md §1); a real
// deployment supplies a reader for whatever format its ecosystem uses.
type ManifestReader func(dir, rev string) ([]resolve.Constraint, error)

// RemoteResolver maps an identifier to a clonable git remote URL.
// Canonicalizing an identifier into a remote is provider-specific
// (spec.md §3's "canonicalization is the provider's concern").
type RemoteResolver func(id resolve.PackageIdentifier) (remote string, err error)

// Provider is a resolve.PackageContainerProvider over git repositories
// checked out beneath BaseDir, one subdirectory per identifier.
type Provider struct {
	BaseDir  string
	Resolve  RemoteResolver
	Manifest ManifestReader

	containers map[resolve.PackageIdentifier]*Container
}

// NewProvider builds a Provider rooted at baseDir.
func NewProvider(baseDir string, resolveRemote RemoteResolver, manifest ManifestReader) *Provider {
	return &Provider{
		BaseDir:    baseDir,
		Resolve:    resolveRemote,
		Manifest:   manifest,
		containers: make(map[resolve.PackageIdentifier]*Container),
	}
}

// Container implements resolve.PackageContainerProvider. It is memoized:
// a second call for the same identifier returns the same *Container,
// matching spec.md §4.2's requirement that container fetch be lazy and
// cached.
func (p *Provider) Container(ctx context.Context, id resolve.PackageIdentifier) (resolve.PackageContainer, error) {
	if c, ok := p.containers[id]; ok {
		return c, nil
	}

	remote, err := p.Resolve(id)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving remote for %s", id)
	}

	local := filepath.Join(p.BaseDir, sanitizeForPath(string(id)))
	repo, err := vcs.NewGitRepo(remote, local)
	if err != nil {
		return nil, errors.Wrapf(err, "initializing git repo for %s", id)
	}

	if !repo.CheckLocal() {
		if err := repo.Get(); err != nil {
			return nil, errors.Wrapf(err, "cloning %s", id)
		}
	} else if err := repo.Update(); err != nil {
		return nil, errors.Wrapf(err, "updating %s", id)
	}

	c := &Container{
		id:       id,
		repo:     repo,
		local:    local,
		manifest: p.Manifest,
		depCache: make(map[string][]resolve.Constraint),
	}
	p.containers[id] = c
	return c, nil
}

func sanitizeForPath(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch {
		case r == '/' || r == ':' || r == '@':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// Container is a resolve.PackageContainer backed by one git repository.
// Versions come from the repo's tags; only tags that parse as semver
// (spec.md §3) become candidates, matching the teacher's
// gitRepo.listVersions filtering out non-semver refs rather than failing
// the whole listing.
type Container struct {
	id       resolve.PackageIdentifier
	repo     *vcs.GitRepo
	local    string
	manifest ManifestReader

	versions []semrange.Version
	tagOf    map[string]string // version string -> original git tag
	depCache map[string][]resolve.Constraint
}

// Identifier implements resolve.PackageContainer.
func (c *Container) Identifier() resolve.PackageIdentifier { return c.id }

// Versions implements resolve.PackageContainer.
func (c *Container) Versions(ctx context.Context) ([]semrange.Version, error) {
	if c.versions != nil {
		return c.versions, nil
	}

	tags, err := c.repo.Tags()
	if err != nil {
		return nil, errors.Wrapf(err, "listing tags for %s", c.id)
	}

	c.tagOf = make(map[string]string, len(tags))
	for _, tag := range tags {
		v, err := semrange.Parse(tag)
		if err != nil {
			// Not every tag in a real repository is a release; skip
			// anything that doesn't parse instead of failing the whole
			// listing.
			continue
		}
		c.versions = append(c.versions, v)
		c.tagOf[v.String()] = tag
	}

	sort.Slice(c.versions, func(i, j int) bool {
		return c.versions[j].Less(c.versions[i])
	})
	return c.versions, nil
}

// Dependencies implements resolve.PackageContainer by checking out the
// tag corresponding to v and reading its manifest.
func (c *Container) Dependencies(ctx context.Context, v semrange.Version) ([]resolve.Constraint, error) {
	if cs, ok := c.depCache[v.String()]; ok {
		return cs, nil
	}

	tag, ok := c.tagOf[v.String()]
	if !ok {
		return nil, errors.Errorf("gitsource: %s has no tag for version %s", c.id, v)
	}

	if err := c.repo.UpdateVersion(tag); err != nil {
		return nil, errors.Wrapf(err, "checking out %s@%s", c.id, tag)
	}

	cs, err := c.manifest(c.local, tag)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest for %s@%s", c.id, tag)
	}

	c.depCache[v.String()] = cs
	return cs, nil
}

// UnversionedDependencies implements resolve.PackageContainer by reading
// the manifest from the repository's currently checked-out state, without
// switching to any tag — the "use what's on disk" path spec.md §4.4
// requires for unversioned bindings.
func (c *Container) UnversionedDependencies(ctx context.Context) ([]resolve.Constraint, error) {
	if _, err := os.Stat(c.local); err != nil {
		return nil, resolve.ErrNoWorkingState
	}
	rev, err := c.repo.Current()
	if err != nil {
		return nil, resolve.ErrNoWorkingState
	}
	return c.manifest(c.local, rev)
}

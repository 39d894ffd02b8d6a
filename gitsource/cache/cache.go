// Package cache memoizes gitsource container lookups across process runs
// in a bbolt database, so a long-running resolver (or repeated CLI
// invocations) doesn't re-clone and re-checkout the same tags.
package cache

import (
	"context"
	"encoding/json"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/gopkgdep/resolve"
	"github.com/gopkgdep/resolve/semrange"
)

var bucketDependencies = []byte("dependencies")

// DB wraps a bbolt database used as the dependency-list cache. Grounded
// on the teacher's bolt-backed source cache: one bucket, keyed by a
// composite of identifier and version, storing a JSON-encoded constraint
// list as the value.
type DB struct {
	bolt *bolt.DB
}

// Open opens (creating if necessary) the bbolt file at path.
func Open(path string) (*DB, error) {
	b, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache db %s", path)
	}
	err = b.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDependencies)
		return err
	})
	if err != nil {
		b.Close()
		return nil, errors.Wrap(err, "initializing cache bucket")
	}
	return &DB{bolt: b}, nil
}

// Close closes the underlying bbolt database.
func (d *DB) Close() error { return d.bolt.Close() }

func cacheKey(id resolve.PackageIdentifier, v semrange.Version) []byte {
	return []byte(string(id) + "@" + v.String())
}

type wireConstraint struct {
	Identifier  string `json:"identifier"`
	Unversioned bool   `json:"unversioned,omitempty"`
	Exact       string `json:"exact,omitempty"`
	Lo          string `json:"lo,omitempty"`
	Hi          string `json:"hi,omitempty"`
	Any         bool   `json:"any,omitempty"`
}

func encode(cs []resolve.Constraint) ([]byte, error) {
	wire := make([]wireConstraint, 0, len(cs))
	for _, c := range cs {
		w := wireConstraint{Identifier: string(c.Identifier)}
		switch {
		case c.Requirement.IsUnversioned():
			w.Unversioned = true
		default:
			s := c.Requirement.Set()
			switch s.Kind() {
			case semrange.KindAny:
				w.Any = true
			case semrange.KindExact:
				w.Exact = s.ExactValue().String()
			case semrange.KindRange:
				lo, hi := s.Bounds()
				w.Lo, w.Hi = lo.String(), hi.String()
			case semrange.KindEmpty:
				// An empty requirement is never worth persisting: Put
				// skips any list holding one, and a fresh fetch will
				// reproduce it if it recurs.
			}
		}
		wire = append(wire, w)
	}
	return json.Marshal(wire)
}

func decode(data []byte) ([]resolve.Constraint, error) {
	var wire []wireConstraint
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	out := make([]resolve.Constraint, 0, len(wire))
	for _, w := range wire {
		var req resolve.Requirement
		switch {
		case w.Unversioned:
			req = resolve.Unversioned()
		case w.Any:
			req = resolve.VersionedRequirement(semrange.Any())
		case w.Exact != "":
			req = resolve.VersionedRequirement(semrange.ExactVersion(semrange.MustParse(w.Exact)))
		default:
			req = resolve.VersionedRequirement(semrange.Range(semrange.MustParse(w.Lo), semrange.MustParse(w.Hi)))
		}
		out = append(out, resolve.Constraint{Identifier: resolve.PackageIdentifier(w.Identifier), Requirement: req})
	}
	return out, nil
}

// Get returns the cached dependency list for (id, v), if present.
func (d *DB) Get(id resolve.PackageIdentifier, v semrange.Version) ([]resolve.Constraint, bool, error) {
	var data []byte
	err := d.bolt.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketDependencies).Get(cacheKey(id, v))
		if raw != nil {
			data = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "reading cache")
	}
	if data == nil {
		return nil, false, nil
	}
	cs, err := decode(data)
	if err != nil {
		return nil, false, errors.Wrap(err, "decoding cached dependency list")
	}
	return cs, true, nil
}

// Put stores the dependency list for (id, v). Writes go through a single
// bbolt writer transaction, so concurrent solver branches sharing one DB
// never race on the same key (spec.md §5's cache-idempotence
// requirement). A list holding an empty requirement is not stored.
func (d *DB) Put(id resolve.PackageIdentifier, v semrange.Version, cs []resolve.Constraint) error {
	for _, c := range cs {
		if !c.Requirement.IsUnversioned() && c.Requirement.Set().Kind() == semrange.KindEmpty {
			return nil
		}
	}
	data, err := encode(cs)
	if err != nil {
		return errors.Wrap(err, "encoding dependency list")
	}
	return d.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDependencies).Put(cacheKey(id, v), data)
	})
}

// Container wraps a resolve.PackageContainer, serving Dependencies out of
// the cache when present and populating it on miss.
type Container struct {
	resolve.PackageContainer
	db *DB
}

// Wrap returns c with its Dependencies calls memoized in db.
func Wrap(c resolve.PackageContainer, db *DB) *Container {
	return &Container{PackageContainer: c, db: db}
}

// Dependencies implements resolve.PackageContainer. A cache read failure
// (a corrupt bbolt page, a transaction conflict) doesn't fail the call
// outright: it falls back to the live container, since a fresh fetch is
// just as good an answer. It's only fatal in combination with the live
// fetch also failing, in which case both causes are reported together
// rather than letting the cache error mask the more useful live one.
func (c *Container) Dependencies(ctx context.Context, v semrange.Version) ([]resolve.Constraint, error) {
	cs, ok, cacheErr := c.db.Get(c.Identifier(), v)
	if cacheErr == nil && ok {
		return cs, nil
	}

	cs, liveErr := c.PackageContainer.Dependencies(ctx, v)
	if liveErr != nil {
		var merr *multierror.Error
		if cacheErr != nil {
			merr = multierror.Append(merr, errors.Wrap(cacheErr, "cache lookup"))
		}
		merr = multierror.Append(merr, errors.Wrap(liveErr, "live fetch"))
		return nil, &resolve.FetchFailedError{Identifier: c.Identifier(), Version: v, Cause: merr.ErrorOrNil()}
	}

	if putErr := c.db.Put(c.Identifier(), v, cs); putErr != nil {
		return nil, errors.Wrap(putErr, "populating cache")
	}
	return cs, nil
}

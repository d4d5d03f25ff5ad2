// Package registry holds the immutable snapshot of every artifact that the
// second pass and the page assembler use for cross-artifact lookups.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/models"
)

// Tags that never count towards "related" artifacts.
var unrelatedTags = map[string]struct{}{
	"project":  {},
	"nav":      {},
	"debug":    {},
	"research": {},
	"personal": {},
}

// Registry is a read-only, ordered view of the artifact set. It is built
// once every artifact has finished the first pass.
type Registry struct {
	items  []*models.Artifact
	byName map[string]*models.Artifact
}

// New snapshots artifacts in order. The first artifact with a given
// (case-insensitive) name wins; later ones are returned as errors.
func New(artifacts []*models.Artifact) (*Registry, []error) {
	r := &Registry{byName: make(map[string]*models.Artifact, len(artifacts))}
	var errs []error
	for _, a := range artifacts {
		key := a.Slug()
		if prev, dup := r.byName[key]; dup {
			errs = append(errs, apperr.ForArtifact(a.Source, apperr.StageRegistry,
				fmt.Errorf("%w: %q already defined by %s", apperr.ErrDuplicateName, a.Name, prev.Source)))
			continue
		}
		c := a.Clone()
		r.items = append(r.items, c)
		r.byName[key] = c
	}
	return r, errs
}

// Without returns a registry holding every artifact except the named ones.
// Order is preserved; r is left unchanged.
func (r *Registry) Without(names ...string) *Registry {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[strings.ToLower(n)] = struct{}{}
	}
	out := &Registry{byName: make(map[string]*models.Artifact, len(r.items))}
	for _, a := range r.items {
		if _, skip := drop[a.Slug()]; skip {
			continue
		}
		out.items = append(out.items, a)
		out.byName[a.Slug()] = a
	}
	return out
}

// Len returns the number of artifacts.
func (r *Registry) Len() int { return len(r.items) }

// All returns the artifacts in registry order. Callers must not mutate them.
func (r *Registry) All() []*models.Artifact {
	return r.items
}

// Lookup finds an artifact by name, ignoring case.
func (r *Registry) Lookup(name string) (*models.Artifact, bool) {
	a, ok := r.byName[strings.ToLower(name)]
	return a, ok
}

// WithTag returns every artifact carrying tag, in registry order.
func (r *Registry) WithTag(tag string) []*models.Artifact {
	tag = strings.ToLower(strings.TrimSpace(tag))
	var out []*models.Artifact
	for _, a := range r.items {
		if a.HasTag(tag) {
			out = append(out, a)
		}
	}
	return out
}

// RecentlyUpdated returns up to n artifacts, newest first, skipping any
// that carry one of the excluded tags. Equal timestamps keep registry order.
func (r *Registry) RecentlyUpdated(n int, exclude ...string) []*models.Artifact {
	if n <= 0 {
		return nil
	}
	var out []*models.Artifact
	for _, a := range r.items {
		if hasAny(a, exclude) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Related returns every artifact sharing at least one meaningful tag with a,
// a itself included, in registry order.
func (r *Registry) Related(a *models.Artifact) []*models.Artifact {
	var out []*models.Artifact
	for _, other := range r.items {
		for _, t := range a.Tags {
			if _, skip := unrelatedTags[t]; skip {
				continue
			}
			if other.HasTag(t) {
				out = append(out, other)
				break
			}
		}
	}
	return out
}

func hasAny(a *models.Artifact, tags []string) bool {
	for _, t := range tags {
		if a.HasTag(t) {
			return true
		}
	}
	return false
}

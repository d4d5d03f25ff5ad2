// Package models defines the domain types shared across the site builder.
package models

import "time"

// Artifact is one portfolio entry read from a source .txt file.
//
// Title, ImageName and Content start out as raw markup and are replaced
// in place by the first and second transformation passes.
type Artifact struct {
	Name         string            `json:"name"`
	Title        string            `json:"title"`
	ImageName    string            `json:"image_name,omitempty"`
	Image        string            `json:"image,omitempty"`
	Tags         []string          `json:"tags"`
	Links        []Link            `json:"links,omitempty"`
	Content      string            `json:"-"`
	Extra        map[string]string `json:"extra,omitempty"`
	Source       string            `json:"source"`
	LastModified time.Time         `json:"last_modified"`
}

// Link is a sidebar link declared in an artifact header.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// HasTag reports whether the artifact carries tag.
func (a *Artifact) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Slug is the lowercase name used for output files and lookups.
func (a *Artifact) Slug() string {
	return lower(a.Name)
}

// Clone returns a deep copy so snapshots never alias a mutable artifact.
func (a *Artifact) Clone() *Artifact {
	c := *a
	c.Tags = append([]string(nil), a.Tags...)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.Links = append([]Link(nil), a.Links...)
	if a.Extra != nil {
		c.Extra = make(map[string]string, len(a.Extra))
		for k, v := range a.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

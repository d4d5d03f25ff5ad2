// Package siteservice exposes read access to the last build and on-demand
// rendering for the preview server and the MCP tools.
package siteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/checksum"
	"github.com/starford/vos/internal/inline"
	"github.com/starford/vos/internal/logstore"
	"github.com/starford/vos/internal/markup"
	"github.com/starford/vos/internal/models"
	"github.com/starford/vos/internal/page"
	"github.com/starford/vos/internal/site"
)

// Builder is the part of site.Builder the service needs.
type Builder interface {
	Build(ctx context.Context) (*site.Report, error)
	View(fn func(*site.Snapshot) error) error
}

// ArtifactListItem is a lightweight item in a list response.
type ArtifactListItem struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Tags         []string `json:"tags"`
	Page         string   `json:"page"`
	LastModified string   `json:"last_modified"`
}

// ArtifactDetail is the full representation of a built artifact.
type ArtifactDetail struct {
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Image        string        `json:"image,omitempty"`
	ImageName    string        `json:"image_name,omitempty"`
	Tags         []string      `json:"tags"`
	Links        []models.Link `json:"links"`
	Content      string        `json:"content"`
	Checksum     string        `json:"checksum"`
	Page         string        `json:"page"`
	Related      []string      `json:"related"`
	Source       string        `json:"source"`
	LastModified string        `json:"last_modified"`
}

// DivisionSummary is the hour total for one division.
type DivisionSummary struct {
	Division string  `json:"division"`
	Code     string  `json:"code"`
	Hours    float64 `json:"hours"`
}

// LogSummary aggregates the productivity log, optionally for one project.
type LogSummary struct {
	Project     string            `json:"project,omitempty"`
	FirstDate   string            `json:"first_date"`
	LastDate    string            `json:"last_date"`
	Hours       float64           `json:"hours"`
	Logs        int               `json:"logs"`
	Days        int               `json:"days"`
	HoursPerDay float64           `json:"hours_per_day"`
	Divisions   []DivisionSummary `json:"divisions"`
}

// Service coordinates the builder and the current snapshot.
type Service struct {
	builder     Builder
	transformer *markup.Transformer
	headerRows  int
}

// NewService creates a new site service.
func NewService(b Builder, dirs markup.MediaDirs, headerRows int) *Service {
	return &Service{builder: b, transformer: markup.NewTransformer(dirs), headerRows: headerRows}
}

// Ready reports whether a build has completed.
func (s *Service) Ready() bool {
	return s.builder.View(func(*site.Snapshot) error { return nil }) == nil
}

// Rebuild runs a full build.
func (s *Service) Rebuild(ctx context.Context) (*site.Report, error) {
	return s.builder.Build(ctx)
}

// ListArtifacts returns built artifacts, optionally filtered by tag.
func (s *Service) ListArtifacts(_ context.Context, tag string) ([]ArtifactListItem, error) {
	var items []ArtifactListItem
	err := s.builder.View(func(snap *site.Snapshot) error {
		tag = strings.ToLower(tag)
		items = make([]ArtifactListItem, 0, len(snap.Artifacts))
		for _, a := range snap.Artifacts {
			if tag != "" && !a.HasTag(tag) {
				continue
			}
			items = append(items, ArtifactListItem{
				Name:         a.Name,
				Title:        page.StripTags(a.Title),
				Tags:         nonNilSlice(a.Tags),
				Page:         site.OutputName(a),
				LastModified: a.LastModified.Format("2006.01.02"),
			})
		}
		return nil
	})
	return items, err
}

// GetArtifact returns one built artifact by name, ignoring case.
func (s *Service) GetArtifact(_ context.Context, name string) (*ArtifactDetail, error) {
	var detail *ArtifactDetail
	err := s.builder.View(func(snap *site.Snapshot) error {
		a := findResolved(snap, name)
		if a == nil {
			return fmt.Errorf("artifact %q: %w", name, apperr.ErrNotFound)
		}
		var related []string
		for _, r := range snap.Registry.Related(a) {
			related = append(related, r.Name)
		}
		detail = &ArtifactDetail{
			Name:         a.Name,
			Title:        a.Title,
			Image:        a.Image,
			ImageName:    a.ImageName,
			Tags:         nonNilSlice(a.Tags),
			Links:        nonNilSlice(a.Links),
			Content:      a.Content,
			Checksum:     checksum.Sum([]byte(a.Content)),
			Page:         site.OutputName(a),
			Related:      nonNilSlice(related),
			Source:       a.Source,
			LastModified: a.LastModified.Format("2006.01.02"),
		}
		return nil
	})
	return detail, err
}

// LogSummary aggregates the log for project, or for everything when
// project is empty. A project with no rows yields zero values.
func (s *Service) LogSummary(ctx context.Context, project string) (*LogSummary, error) {
	var sum *LogSummary
	err := s.builder.View(func(snap *site.Snapshot) error {
		var err error
		sum, err = summarize(ctx, snap.Store, project)
		return err
	})
	return sum, err
}

func summarize(ctx context.Context, store logstore.Store, project string) (*LogSummary, error) {
	f := logstore.Filter{Project: project}
	out := &LogSummary{Project: project, Divisions: []DivisionSummary{}}

	first, last, err := store.DateRange(ctx, f)
	if err != nil && !errors.Is(err, apperr.ErrAggregationMiss) {
		return nil, err
	}
	out.FirstDate, out.LastDate = first, last
	if out.Hours, err = store.Hours(ctx, f); err != nil {
		return nil, err
	}
	if out.Logs, err = store.Count(ctx, f); err != nil {
		return nil, err
	}
	if out.Days, err = store.Days(ctx, f); err != nil {
		return nil, err
	}
	if out.HoursPerDay, err = inline.HoursPerDay(ctx, store, f); err != nil {
		return nil, err
	}
	divs, err := store.Divisions(ctx, project)
	if err != nil {
		return nil, err
	}
	for _, d := range divs {
		if !d.Present {
			continue
		}
		out.Divisions = append(out.Divisions, DivisionSummary{
			Division: d.Division,
			Code:     string(page.DivisionSector(d.Division)),
			Hours:    d.Hours,
		})
	}
	return out, nil
}

// RecentLogs returns the first n data rows of the log, after the header.
func (s *Service) RecentLogs(ctx context.Context, n int) ([]models.LogEntry, error) {
	if n <= 0 {
		return []models.LogEntry{}, nil
	}
	var rows []models.LogEntry
	err := s.builder.View(func(snap *site.Snapshot) error {
		all, err := snap.Store.Rows(ctx, n+s.headerRows)
		if err != nil {
			return err
		}
		if len(all) > s.headerRows {
			rows = all[s.headerRows:]
		}
		return nil
	})
	return nonNilSlice(rows), err
}

// Evaluate runs an inline expression against the current snapshot.
func (s *Service) Evaluate(ctx context.Context, code string) (string, error) {
	var out string
	err := s.builder.View(func(snap *site.Snapshot) error {
		var err error
		out, err = snap.Evaluator.Evaluate(ctx, code)
		return err
	})
	return out, err
}

// RenderMarkup runs both passes over text as if it were an artifact body
// in the current site.
func (s *Service) RenderMarkup(ctx context.Context, text string) (string, error) {
	first, err := s.transformer.Content(text)
	if err != nil {
		return "", err
	}
	var out string
	err = s.builder.View(func(snap *site.Snapshot) error {
		var err error
		out, err = snap.Resolver.Resolve(ctx, first)
		return err
	})
	return out, err
}

func findResolved(snap *site.Snapshot, name string) *models.Artifact {
	reg, ok := snap.Registry.Lookup(name)
	if !ok {
		return nil
	}
	for _, a := range snap.Artifacts {
		if a.Slug() == reg.Slug() {
			return a
		}
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Package site orchestrates a full build: log loading, artifact ingestion,
// the first pass, the registry barrier, the second pass, page assembly,
// and output.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/artifact"
	"github.com/starford/vos/internal/inline"
	"github.com/starford/vos/internal/logfields"
	"github.com/starford/vos/internal/logstore"
	"github.com/starford/vos/internal/markup"
	"github.com/starford/vos/internal/metrics"
	"github.com/starford/vos/internal/models"
	"github.com/starford/vos/internal/page"
	"github.com/starford/vos/internal/registry"
	"github.com/starford/vos/internal/resolver"
	"github.com/starford/vos/internal/storage"
)

const artifactExt = ".txt"

// Builder runs builds from a source tree into an output tree. Only one
// build runs at a time; the most recent snapshot stays open for readers.
type Builder struct {
	cfg         Config
	src         storage.Provider
	out         storage.Provider
	transformer *markup.Transformer
	recorder    metrics.Recorder
	logger      *slog.Logger

	buildMu sync.Mutex

	mu      sync.RWMutex
	current *Snapshot
}

// NewBuilder creates a Builder. A nil recorder disables metrics.
func NewBuilder(cfg Config, src, out storage.Provider, rec metrics.Recorder, logger *slog.Logger) *Builder {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		cfg:         cfg,
		src:         src,
		out:         out,
		transformer: markup.NewTransformer(cfg.Media),
		recorder:    rec,
		logger:      logger,
	}
}

// Snapshot is the result of a prepared build: the registry, the open log
// store, and every artifact that made it through both passes.
type Snapshot struct {
	Registry  *registry.Registry
	Store     *logstore.DB
	Evaluator *inline.Evaluator
	Resolver  *resolver.Resolver
	// Artifacts are fully resolved, in registry order.
	Artifacts []*models.Artifact
	Failures  []error
}

// Close releases the snapshot's log store.
func (s *Snapshot) Close() error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.Close()
}

// View runs fn against the current snapshot. The snapshot stays open until
// fn returns, even if a concurrent build replaces it. It returns
// apperr.ErrNotReady before the first successful build.
func (b *Builder) View(fn func(*Snapshot) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return apperr.ErrNotReady
	}
	return fn(b.current)
}

// Close releases the current snapshot.
func (b *Builder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.current.Close()
	b.current = nil
	return err
}

// Prepare loads the log, ingests every artifact, and runs both passes. The
// first pass fans out per artifact; the registry is only built once all of
// them have finished, and the second pass reads that frozen registry.
func (b *Builder) Prepare(ctx context.Context) (*Snapshot, error) {
	store, err := b.openLog(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Store: store}

	started := time.Now()
	firsts, failures, err := b.firstPass(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	snap.Failures = append(snap.Failures, failures...)
	b.recorder.ObserveStageDuration(apperr.StageFirst, time.Since(started))

	reg, dups := registry.New(firsts)
	snap.Failures = append(snap.Failures, dups...)

	// An artifact that fails the second pass is never written, so the pass
	// reruns without it until no page links to a missing one.
	started = time.Now()
	for {
		b.useRegistry(snap, reg)
		resolved, failures, err := b.secondPass(ctx, snap)
		if err != nil {
			store.Close()
			return nil, err
		}
		snap.Failures = append(snap.Failures, failures...)
		dropped := failedNames(failures)
		if len(dropped) == 0 {
			snap.Artifacts = resolved
			break
		}
		reg = reg.Without(dropped...)
	}
	b.recorder.ObserveStageDuration(apperr.StageSecond, time.Since(started))

	return snap, nil
}

func (b *Builder) useRegistry(snap *Snapshot, reg *registry.Registry) {
	snap.Registry = reg
	snap.Evaluator = inline.New(reg, snap.Store)
	snap.Resolver = resolver.New(reg, snap.Store, snap.Evaluator, b.logger)
}

func failedNames(failures []error) []string {
	names := make([]string, 0, len(failures))
	for _, err := range failures {
		var ae *apperr.ArtifactError
		if errors.As(err, &ae) {
			names = append(names, ae.Artifact)
		}
	}
	return names
}

func (b *Builder) openLog(ctx context.Context) (*logstore.DB, error) {
	data, err := b.src.Read(b.cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("site: read log: %w", err)
	}
	store, err := logstore.Open(logstore.MemoryDSN, b.cfg.HeaderRows)
	if err != nil {
		return nil, err
	}
	n, err := store.Load(ctx, bytes.NewReader(data))
	if err != nil {
		store.Close()
		return nil, err
	}
	b.logger.Debug("log loaded", logfields.Path(b.cfg.LogPath), logfields.Count(n))
	return store, nil
}

// firstPass parses and transforms every source file. Results keep source
// order regardless of which worker finishes first.
func (b *Builder) firstPass(ctx context.Context) ([]*models.Artifact, []error, error) {
	files, err := b.src.List(b.cfg.ArtifactDir, artifactExt)
	if err != nil {
		return nil, nil, fmt.Errorf("site: list artifacts: %w", err)
	}

	arts := make([]*models.Artifact, len(files))
	errs := make([]error, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			a, err := b.ingest(f)
			if err != nil {
				errs[i] = err
				return nil
			}
			arts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var out []*models.Artifact
	var failures []error
	for i := range files {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			continue
		}
		out = append(out, arts[i])
	}
	return out, failures, nil
}

func (b *Builder) ingest(f storage.FileInfo) (*models.Artifact, error) {
	data, err := b.src.Read(f.Path)
	if err != nil {
		return nil, apperr.ForArtifact(f.Path, apperr.StageIngest, err)
	}
	a, err := artifact.Parse(f.Path, data, f.ModTime, b.cfg.Media)
	if err != nil {
		return nil, apperr.ForArtifact(f.Path, apperr.StageIngest, err)
	}
	if err := b.transformer.Apply(a); err != nil {
		return nil, apperr.ForArtifact(a.Name, apperr.StageFirst, err)
	}
	return a, nil
}

// secondPass resolves a private copy of every registry artifact so the
// registry itself keeps first-pass text for cross-artifact rendering.
func (b *Builder) secondPass(ctx context.Context, snap *Snapshot) ([]*models.Artifact, []error, error) {
	all := snap.Registry.All()
	out := make([]*models.Artifact, len(all))
	errs := make([]error, len(all))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for i, a := range all {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			c := a.Clone()
			var err error
			if c.Content, err = snap.Resolver.Resolve(gCtx, c.Content); err != nil {
				errs[i] = apperr.ForArtifact(a.Name, apperr.StageSecond, err)
				return nil
			}
			if c.Title, err = snap.Resolver.ResolveInline(gCtx, c.Title); err != nil {
				errs[i] = apperr.ForArtifact(a.Name, apperr.StageSecond, err)
				return nil
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var resolved []*models.Artifact
	var failures []error
	for i := range all {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			continue
		}
		resolved = append(resolved, out[i])
	}
	return resolved, failures, nil
}

// Build prepares a snapshot, renders every artifact into the template,
// writes the pages, and copies static assets. Per-artifact failures are
// reported, not returned; the error is reserved for failures that stop the
// whole build.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	b.buildMu.Lock()
	defer b.buildMu.Unlock()

	started := time.Now()
	report, err := b.build(ctx)
	elapsed := time.Since(started)
	b.recorder.ObserveBuildDuration(elapsed)

	switch {
	case errors.Is(err, context.Canceled):
		b.recorder.IncBuildOutcome(metrics.OutcomeCanceled)
	case err != nil:
		b.recorder.IncBuildOutcome(metrics.OutcomeFailed)
	case len(report.Failed) > 0:
		b.recorder.IncBuildOutcome(metrics.OutcomePartial)
	default:
		b.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	}
	if err != nil {
		return nil, err
	}
	report.Duration = elapsed
	b.recorder.SetArtifacts(report.Pages())
	return report, nil
}

func (b *Builder) build(ctx context.Context) (*Report, error) {
	tmpl, err := b.src.Read(b.cfg.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("site: read template: %w", err)
	}

	snap, err := b.Prepare(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	for _, f := range snap.Failures {
		report.fail(f)
	}

	started := time.Now()
	as := page.New(string(tmpl), snap.Store, snap.Registry, b.cfg.Variant)
	pages := make([][]byte, len(snap.Artifacts))
	errs := make([]error, len(snap.Artifacts))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for i, a := range snap.Artifacts {
		g.Go(func() error {
			html, err := as.Assemble(gCtx, a)
			if err != nil {
				errs[i] = apperr.ForArtifact(a.Name, apperr.StageAssemble, err)
				return nil
			}
			pages[i] = []byte(html)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		snap.Close()
		return nil, err
	}
	b.recorder.ObserveStageDuration(apperr.StageAssemble, time.Since(started))

	started = time.Now()
	for i, a := range snap.Artifacts {
		if errs[i] != nil {
			report.fail(errs[i])
			continue
		}
		name := OutputName(a)
		written, err := b.out.Write(name, pages[i])
		if err != nil {
			snap.Close()
			return nil, fmt.Errorf("site: write %s: %w", name, err)
		}
		if written {
			report.Written = append(report.Written, name)
		} else {
			report.Unchanged = append(report.Unchanged, name)
		}
	}
	if err := b.copyAssets(); err != nil {
		snap.Close()
		return nil, err
	}
	b.recorder.ObserveStageDuration(apperr.StageWrite, time.Since(started))

	for _, f := range report.Failed {
		b.recorder.IncArtifactFailure(f.Stage)
		b.logger.Warn("artifact excluded from build",
			logfields.Artifact(f.Artifact), logfields.Stage(f.Stage), logfields.Error(f.Err))
	}

	b.mu.Lock()
	prev := b.current
	b.current = snap
	b.mu.Unlock()
	if err := prev.Close(); err != nil {
		b.logger.Warn("close previous snapshot", logfields.Error(err))
	}
	return report, nil
}

func (b *Builder) copyAssets() error {
	for _, c := range b.cfg.Assets {
		src := filepath.Join(b.src.Root(), filepath.FromSlash(c.From))
		if err := b.out.Import(src, c.To); err != nil {
			if storage.IsNotExist(err) {
				b.logger.Warn("asset missing, skipped", logfields.Path(c.From))
				continue
			}
			return fmt.Errorf("site: copy asset %s: %w", c.From, err)
		}
	}
	return nil
}

// OutputName is the page file name for a: its lowercase name plus .html.
func OutputName(a *models.Artifact) string {
	return path.Clean(a.Slug() + ".html")
}

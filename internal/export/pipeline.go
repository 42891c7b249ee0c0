// Package export runs an export job: it resolves every card in a page
// range, crops both faces out of the rendered sheets and packages the
// result.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kpauljoseph/sheetdeck/internal/extract"
	"github.com/kpauljoseph/sheetdeck/internal/geometry"
	"github.com/kpauljoseph/sheetdeck/internal/imageformat"
	"github.com/kpauljoseph/sheetdeck/internal/manifest"
	"github.com/kpauljoseph/sheetdeck/internal/pdf"
	"github.com/kpauljoseph/sheetdeck/internal/resolver"
	"github.com/kpauljoseph/sheetdeck/pkg/logger"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
	"github.com/kpauljoseph/sheetdeck/pkg/units"
)

var (
	ErrJobRunning      = errors.New("an export is already running")
	ErrNoDocument      = errors.New("no front document loaded")
	ErrDocumentAbsent  = errors.New("source document not loaded")
	ErrInvalidRange    = errors.New("invalid page range")
	ErrPackagingFailed = errors.New("packaging failed")
	ErrInvalidRequest  = errors.New("invalid export request")
)

// ProgressFunc receives (completed, total) once per card, in card order.
type ProgressFunc func(completed, total int)

// SinkFunc writes an assembled package somewhere. It runs before the job
// completes; an error fails the job.
type SinkFunc func(pkg *manifest.Package) error

// Request is everything one export needs. Back may be nil.
type Request struct {
	Front              []byte
	Back               []byte
	Mode               models.LayoutMode
	Grid               models.GridSpec
	Pages              models.PageRange
	StartingCardNumber int
	TemplateName       string
	CardThickness      float64
	Format             imageformat.Format
	JPEGQuality        int
	Rotation           int
	Workers            int
	Progress           ProgressFunc
	Sink               SinkFunc
}

type Result struct {
	Package *manifest.Package
	Report  Report
	Job     Job
}

type Pipeline struct {
	rasterizer    pdf.Rasterizer
	logger        *logger.Logger
	cacheCapacity int

	mu  sync.Mutex
	job *Job
}

type Option func(*Pipeline)

func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = log
	}
}

// WithCacheCapacity bounds how many rendered pages a job keeps in memory.
func WithCacheCapacity(pages int) Option {
	return func(p *Pipeline) {
		p.cacheCapacity = pages
	}
}

func New(rasterizer pdf.Rasterizer, options ...Option) *Pipeline {
	p := &Pipeline{
		rasterizer:    rasterizer,
		logger:        logger.Discard(),
		cacheCapacity: pdf.DefaultCacheCapacity,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Job returns a copy of the current job, or an idle job before the first run.
func (p *Pipeline) Job() Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job == nil {
		return Job{State: StateIdle}
	}
	return *p.job
}

// Run executes one export. Only one run may be active per pipeline.
// Per-face failures are recorded in the report; configuration errors and
// packaging failures fail the job and are returned.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.start(req); err != nil {
		return nil, err
	}

	res, err := p.run(ctx, req)
	if err != nil {
		p.finish(StateFailed, err)
		p.logger.Info("Export failed: %v", err)
		return nil, err
	}
	p.finish(StateCompleted, nil)
	res.Job = p.Job()
	return res, nil
}

func (p *Pipeline) start(req Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.job != nil && p.job.State == StateRunning {
		return ErrJobRunning
	}
	if len(req.Front) == 0 {
		return ErrNoDocument
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	job := &Job{State: StateIdle}
	if err := Transition(job, StateIdle, StateRunning); err != nil {
		return err
	}
	p.job = job
	return nil
}

func (p *Pipeline) finish(to State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if terr := Transition(p.job, StateRunning, to); terr != nil {
		p.logger.Warn("Job state: %v", terr)
	}
	p.job.Err = err
}

func (p *Pipeline) update(fn func(*Job)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.job)
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Result, error) {
	docs, closeDocs, err := p.openDocuments(req)
	if err != nil {
		return nil, err
	}
	defer closeDocs()

	front := docs[models.DocumentFront]
	pages, err := resolveRange(req.Pages, front.NumPage())
	if err != nil {
		return nil, err
	}

	sheet, err := front.PageSize(pages.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", pages.Start, err)
	}
	if err := geometry.Validate(sheet, req.Grid); err != nil {
		return nil, err
	}

	encoder, substituted := imageformat.Negotiate(req.Format, imageformat.Options{JPEGQuality: req.JPEGQuality})
	if substituted {
		p.logger.Warn("No %s encoder available, writing %s instead", req.Format, encoder.Format())
	}
	extractor, err := extract.New(encoder, extract.WithRotation(req.Rotation), extract.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}

	total := resolver.TotalCards(req.Mode, req.Grid, pages.Len())
	p.update(func(j *Job) {
		j.Range = pages
		j.TotalCards = total
	})
	p.logger.Info("Exporting %d cards from pages %d-%d (%s mode, %.0f dpi)", total, pages.Start, pages.Finish, req.Mode, req.Grid.DPI)

	cache := pdf.NewPageCache(p.cacheCapacity)
	defer cache.Purge()

	w := &cardWorker{
		req:       req,
		docs:      docs,
		cache:     cache,
		extractor: extractor,
		startPage: pages.Start,
		logger:    p.logger,
	}

	cards, err := p.runCards(ctx, w, total, req.Progress)
	if err != nil {
		return nil, err
	}

	report := Report{
		Cards:       total,
		Format:      encoder.Format(),
		Substituted: substituted,
	}
	var artifacts []manifest.Artifact
	for _, c := range cards {
		for _, face := range c.faces {
			report.add(face.FaceResult)
			if face.Err != nil {
				p.logger.Warn("Card %d %s skipped: %v", face.CardNumber, face.Ref.Face, face.Err)
				continue
			}
			artifacts = append(artifacts, manifest.Artifact{CardNumber: face.CardNumber, Face: face.Ref.Face, Data: face.data})
		}
	}
	report.Cache = cache.Stats()

	width, height := geometry.CardSizeMM(sheet, req.Grid)
	width, height = extract.RotatedSize(width, height, extractor.Rotation())
	size := manifest.Vec3{units.MMToMeter(width), units.MMToMeter(height), req.CardThickness}

	pkg, err := manifest.Build(req.TemplateName, total, req.StartingCardNumber, size, encoder.Extension(), artifacts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackagingFailed, err)
	}
	if req.Sink != nil {
		if err := req.Sink(pkg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPackagingFailed, err)
		}
	}

	p.logger.Info("Exported %d of %d faces (%d missing)", report.Written, report.Written+report.Missing, report.Missing)
	p.logger.Debug("Page cache: %d hits, %d misses, %d evicted", report.Cache.Hits, report.Cache.Misses, report.Cache.Evicted)
	return &Result{Package: pkg, Report: report}, nil
}

// validateRequest rejects settings that no document could make valid.
func validateRequest(req Request) error {
	switch req.Mode {
	case models.LayoutSingle, models.LayoutSeparate:
	default:
		return fmt.Errorf("%w: unknown layout mode %q", ErrInvalidRequest, req.Mode)
	}
	if req.StartingCardNumber < 1 {
		return fmt.Errorf("%w: starting card number must be at least 1, got %d", ErrInvalidRequest, req.StartingCardNumber)
	}
	return nil
}

// openDocuments decodes the front document, and the back document in
// separate mode. A back document that cannot be decoded is treated as
// absent.
func (p *Pipeline) openDocuments(req Request) (map[models.DocumentID]pdf.Document, func(), error) {
	docs := make(map[models.DocumentID]pdf.Document, 2)
	closeAll := func() {
		for id, doc := range docs {
			if err := doc.Close(); err != nil {
				p.logger.Debug("Failed to close %s: %v", id, err)
			}
		}
	}

	front, err := p.rasterizer.Open(req.Front)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", models.DocumentFront, err)
	}
	docs[models.DocumentFront] = front

	if req.Mode == models.LayoutSeparate {
		if len(req.Back) == 0 {
			p.logger.Warn("No back document loaded; card backs will be missing")
		} else if back, err := p.rasterizer.Open(req.Back); err != nil {
			p.logger.Warn("Failed to decode %s, card backs will be missing: %v", models.DocumentBack, err)
		} else {
			docs[models.DocumentBack] = back
		}
	}
	return docs, closeAll, nil
}

// resolveRange fills in an open finish page and checks the range against
// the document.
func resolveRange(r models.PageRange, numPages int) (models.PageRange, error) {
	if r.Start == 0 {
		r.Start = 1
	}
	if r.Finish == 0 {
		r.Finish = numPages
	}
	switch {
	case r.Start < 1 || r.Start > numPages:
		return r, fmt.Errorf("%w: start page %d outside 1..%d", ErrInvalidRange, r.Start, numPages)
	case r.Finish < r.Start || r.Finish > numPages:
		return r, fmt.Errorf("%w: finish page %d outside %d..%d", ErrInvalidRange, r.Finish, r.Start, numPages)
	}
	return r, nil
}

package export

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/kpauljoseph/sheetdeck/internal/extract"
	"github.com/kpauljoseph/sheetdeck/internal/geometry"
	"github.com/kpauljoseph/sheetdeck/internal/pdf"
	"github.com/kpauljoseph/sheetdeck/internal/resolver"
	"github.com/kpauljoseph/sheetdeck/pkg/logger"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

type faceOutcome struct {
	FaceResult
	data []byte
}

type cardResult struct {
	index int
	faces []faceOutcome
}

// cardWorker extracts both faces of one card. It is shared by all workers
// of a job; the page cache and documents handle their own locking.
type cardWorker struct {
	req       Request
	docs      map[models.DocumentID]pdf.Document
	cache     *pdf.PageCache
	extractor *extract.Extractor
	startPage int
	logger    *logger.Logger
}

func (w *cardWorker) card(index int) cardResult {
	cardNumber := w.req.StartingCardNumber + index
	faces := resolver.Resolve(cardNumber, w.req.StartingCardNumber, w.req.Mode, w.req.Grid, w.startPage)
	w.logger.Debug("Card %d: front %s p%d (%d,%d), back %s p%d (%d,%d)", cardNumber,
		faces.Front.DocumentID, faces.Front.PageNumber, faces.Front.Row, faces.Front.Col,
		faces.Back.DocumentID, faces.Back.PageNumber, faces.Back.Row, faces.Back.Col)

	res := cardResult{index: index}
	for _, ref := range faces.Faces() {
		out := faceOutcome{FaceResult: FaceResult{
			CardNumber: cardNumber,
			Ref:        ref,
			Path:       resolver.FaceFileName(w.req.TemplateName, cardNumber, ref.Face, w.extractor.Encoder().Extension()),
		}}
		out.data, out.Err = w.face(ref)
		res.faces = append(res.faces, out)
	}
	return res
}

func (w *cardWorker) face(ref models.FaceRef) ([]byte, error) {
	doc, ok := w.docs[ref.DocumentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentAbsent, ref.DocumentID)
	}

	size, err := doc.PageSize(ref.PageNumber)
	if err != nil {
		return nil, err
	}
	cell, ok := geometry.CellAt(size, w.req.Grid, ref.Row, ref.Col)
	if !ok {
		return nil, fmt.Errorf("no cell at row %d column %d", ref.Row, ref.Col)
	}

	dpi := w.req.Grid.DPI
	key := pdf.PageKey{DocumentID: ref.DocumentID, PageNumber: ref.PageNumber, DPI: dpi}
	page, err := w.cache.Get(key, func() (image.Image, error) {
		return doc.Render(ref.PageNumber, dpi)
	})
	if err != nil {
		return nil, err
	}
	return w.extractor.Extract(page, cell, dpi)
}

// runCards processes total cards on a bounded pool. Workers finish cards in
// any order; results and progress are released in card order. Cancelling
// ctx stops the job between cards.
func (p *Pipeline) runCards(ctx context.Context, w *cardWorker, total int, progress ProgressFunc) ([]cardResult, error) {
	concurrency := w.req.Workers
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > total {
		concurrency = total
	}

	workCh := make(chan int, concurrency)
	doneCh := make(chan cardResult, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range workCh {
				if ctx.Err() != nil {
					continue
				}
				doneCh <- w.card(index)
			}
		}()
	}

	go func() {
		defer close(workCh)
		for index := 0; index < total; index++ {
			select {
			case workCh <- index:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(doneCh)
	}()

	results := make([]cardResult, total)
	finished := make([]bool, total)
	next := 0
	for res := range doneCh {
		results[res.index] = res
		finished[res.index] = true
		for next < total && finished[next] {
			next++
			p.update(func(j *Job) { j.Completed = next })
			if progress != nil {
				progress(next, total)
			}
		}
	}

	if next < total {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("export cancelled after %d of %d cards: %w", next, total, err)
		}
		return nil, fmt.Errorf("export stopped after %d of %d cards", next, total)
	}
	return results, nil
}

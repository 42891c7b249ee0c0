package export

import (
	"github.com/kpauljoseph/sheetdeck/internal/imageformat"
	"github.com/kpauljoseph/sheetdeck/internal/pdf"
	"github.com/kpauljoseph/sheetdeck/pkg/logger"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

// FaceResult is the outcome for one face. Err is set when no image was
// produced; the face is still referenced by the manifest.
type FaceResult struct {
	CardNumber int
	Ref        models.FaceRef
	Path       string
	Err        error
}

// Report summarizes a finished run.
type Report struct {
	Cards       int
	Written     int
	Missing     int
	Failures    []FaceResult
	Format      imageformat.Format
	Substituted bool
	Cache       pdf.CacheStats
}

func (r *Report) add(res FaceResult) {
	if res.Err != nil {
		r.Missing++
		r.Failures = append(r.Failures, res)
		return
	}
	r.Written++
}

func (r *Report) Print(log *logger.Logger) {
	log.Info("Export summary:")
	log.Info("- Cards: %d", r.Cards)
	log.Info("- Faces written: %d", r.Written)
	log.Info("- Faces missing: %d", r.Missing)
	if r.Substituted {
		log.Info("- Image format: %s (substituted)", r.Format)
	} else {
		log.Info("- Image format: %s", r.Format)
	}
	for _, f := range r.Failures {
		log.Debug("  card %d %s (%s page %d): %v", f.CardNumber, f.Ref.Face, f.Ref.DocumentID, f.Ref.PageNumber, f.Err)
	}
}

package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kpauljoseph/sheetdeck/pkg/logger"
)

// PDFFile is a print sheet document found under a scanned directory.
type PDFFile struct {
	AbsolutePath string
	RelativePath string
}

type DirectoryScanner struct {
	logger *logger.Logger
}

func New(log *logger.Logger) *DirectoryScanner {
	if log == nil {
		log = logger.Discard()
	}
	return &DirectoryScanner{logger: log}
}

// FindPDFs walks dir and returns every PDF below it, sorted by relative path.
func (s *DirectoryScanner) FindPDFs(ctx context.Context, dir string) ([]PDFFile, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	var pdfs []PDFFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if d.IsDir() {
			s.logger.Trace("Scanning directory: %s", path)
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		s.logger.Debug("Found PDF: %s", rel)
		pdfs = append(pdfs, PDFFile{AbsolutePath: path, RelativePath: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s or its subdirectories", dir)
	}

	sort.Slice(pdfs, func(i, j int) bool { return pdfs[i].RelativePath < pdfs[j].RelativePath })
	return pdfs, nil
}

package manifest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

// archiveTime is stamped on every archive entry so identical exports
// produce identical archives.
var archiveTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Artifact is one encoded card face.
type Artifact struct {
	CardNumber int
	Face       models.Face
	Data       []byte
}

// Package is the complete export: metadata documents plus images, keyed by
// slash separated path.
type Package struct {
	Manifest Manifest
	Files    map[string][]byte
}

// Build assembles the package. Faces that are missing from artifacts are
// still referenced by probability.json; the renderer shows them as absent.
func Build(templateName string, totalCards, startingCardNumber int, cardSizeMeters Vec3, ext string, artifacts []Artifact) (*Package, error) {
	m, err := New(templateName, totalCards, startingCardNumber, cardSizeMeters, ext)
	if err != nil {
		return nil, err
	}

	pkgJSON, err := m.PackageJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", PackageFile, err)
	}
	probJSON, err := m.ProbabilityJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", ProbabilityFile, err)
	}

	files := make(map[string][]byte, len(artifacts)+2)
	files[PackageFile] = pkgJSON
	files[ProbabilityFile] = probJSON

	for _, a := range artifacts {
		path := m.FacePath(a.CardNumber, a.Face)
		if _, dup := files[path]; dup {
			return nil, fmt.Errorf("duplicate artifact %s", path)
		}
		files[path] = a.Data
	}

	return &Package{Manifest: m, Files: files}, nil
}

// Paths lists file paths with the metadata documents first and images in
// lexical order.
func (p *Package) Paths() []string {
	paths := make([]string, 0, len(p.Files))
	for path := range p.Files {
		if path == PackageFile || path == ProbabilityFile {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return append([]string{PackageFile, ProbabilityFile}, paths...)
}

// ImageCount is the number of face images actually present.
func (p *Package) ImageCount() int {
	return len(p.Files) - 2
}

// WriteZip writes the package as a zip archive.
func (p *Package) WriteZip(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, path := range p.Paths() {
		method := zip.Store
		if strings.HasSuffix(path, ".json") {
			method = zip.Deflate
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path,
			Method:   method,
			Modified: archiveTime,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", path, err)
		}
		if _, err := fw.Write(p.Files[path]); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

// WriteZipFile writes the archive to path. A partially written file is
// removed on failure.
func (p *Package) WriteZipFile(path string) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return p.WriteZip(f)
}

// WriteDir writes the package unpacked under dir.
func (p *Package) WriteDir(dir string) error {
	for _, path := range p.Paths() {
		target := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(target, p.Files[path], 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

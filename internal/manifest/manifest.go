// Package manifest builds the card package handed to the tabletop renderer:
// package.json, probability.json and the card face images.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kpauljoseph/sheetdeck/internal/resolver"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

const (
	// FormatVersion is written to probability.json and every card descriptor.
	FormatVersion = "2024-01-01"

	// TemplateToken is replaced by the template name in package.json.
	TemplateToken = "{template name}"

	PackageFile     = "package.json"
	ProbabilityFile = "probability.json"
)

var ErrTemplateName = errors.New("invalid template name")

//go:embed assets/package.json.tmpl
var packageTemplate string

// Vec3 is a position, rotation or size triple. Sizes are in meters.
type Vec3 [3]float64

// Manifest describes the deck. It is immutable once built.
type Manifest struct {
	TemplateName   string
	CardSizeMeters Vec3
	CardNumbers    []int
	Extension      string
}

// New builds the manifest for totalCards cards starting at
// startingCardNumber. Sizes are rounded to four decimals.
func New(templateName string, totalCards, startingCardNumber int, cardSizeMeters Vec3, ext string) (Manifest, error) {
	if err := ValidateTemplateName(templateName); err != nil {
		return Manifest{}, err
	}
	if totalCards < 0 {
		return Manifest{}, fmt.Errorf("negative card count %d", totalCards)
	}
	if ext == "" {
		return Manifest{}, errors.New("missing image extension")
	}
	var size Vec3
	for i, v := range cardSizeMeters {
		size[i] = round4(v)
	}
	return Manifest{
		TemplateName:   templateName,
		CardSizeMeters: size,
		CardNumbers:    resolver.CardNumbers(startingCardNumber, totalCards),
		Extension:      ext,
	}, nil
}

// ValidateTemplateName rejects names that would escape the image directory
// or produce an unusable file name.
func ValidateTemplateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrTemplateName)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrTemplateName, name)
	}
	return nil
}

// FaceFile is the image file name of one face, without directory.
func (m Manifest) FaceFile(cardNumber int, face models.Face) string {
	return resolver.FaceFileName(m.TemplateName, cardNumber, face, m.Extension)
}

// FacePath is where the face image lives inside the package.
func (m Manifest) FacePath(cardNumber int, face models.Face) string {
	return m.TemplateName + "/" + m.FaceFile(cardNumber, face)
}

type probabilityHeader struct {
	Type    string `json:"type"`
	Version string `json:"version"`
}

type cardContent struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	Size  Vec3   `json:"size"`
}

type cardDescriptor struct {
	Probability probabilityHeader `json:"@probability"`
	Content     cardContent       `json:"content"`
}

type templateEntry struct {
	Name     string `json:"name"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
}

type cardNode struct {
	Name     string      `json:"name"`
	Position *Vec3       `json:"position,omitempty"`
	Rotation *Vec3       `json:"rotation,omitempty"`
	Src      string      `json:"src"`
	Template string      `json:"template"`
	Children []*cardNode `json:"children,omitempty"`
}

type probabilityDoc struct {
	Probability string                   `json:"probability"`
	Templates   map[string]templateEntry `json:"templates"`
	Children    []*cardNode              `json:"children"`
}

// CardDescriptor is the per-card JSON embedded in a node's src.
func (m Manifest) CardDescriptor(cardNumber int) ([]byte, error) {
	return marshal(cardDescriptor{
		Probability: probabilityHeader{Type: "card", Version: FormatVersion},
		Content: cardContent{
			Front: "/" + m.FaceFile(cardNumber, models.FaceFront),
			Back:  "/" + m.FaceFile(cardNumber, models.FaceBack),
			Size:  m.CardSizeMeters,
		},
	}, false)
}

// ProbabilityJSON renders the deck descriptor: one chain of card nodes where
// each card is the only child of the previous one.
func (m Manifest) ProbabilityJSON() ([]byte, error) {
	nodes := make([]*cardNode, len(m.CardNumbers))
	for i, n := range m.CardNumbers {
		desc, err := m.CardDescriptor(n)
		if err != nil {
			return nil, fmt.Errorf("failed to encode card %d: %w", n, err)
		}
		nodes[i] = &cardNode{
			Name:     fmt.Sprintf("%s #%d", m.TemplateName, n),
			Src:      "data:application/json;charset=utf-8," + string(desc),
			Template: m.TemplateName,
		}
	}
	for i := len(nodes) - 2; i >= 0; i-- {
		nodes[i].Children = []*cardNode{nodes[i+1]}
	}

	doc := probabilityDoc{
		Probability: FormatVersion,
		Templates: map[string]templateEntry{
			m.TemplateName: {
				Name:     m.TemplateName + " card",
				Position: Vec3{0, 0, m.CardSizeMeters[2]},
				Rotation: Vec3{0, 0, 0},
			},
		},
		Children: []*cardNode{},
	}
	if len(nodes) > 0 {
		nodes[0].Position = &Vec3{0, 0, 0}
		nodes[0].Rotation = &Vec3{0, 0, 0}
		doc.Children = []*cardNode{nodes[0]}
	}
	return marshal(doc, true)
}

// PackageJSON fills the package template with the template name.
func (m Manifest) PackageJSON() ([]byte, error) {
	quoted, err := marshal(m.TemplateName, false)
	if err != nil {
		return nil, err
	}
	escaped := strings.TrimSuffix(strings.TrimPrefix(string(quoted), `"`), `"`)
	out := []byte(strings.ReplaceAll(packageTemplate, TemplateToken, escaped))
	if !json.Valid(out) {
		return nil, fmt.Errorf("package template produced invalid JSON for %q", m.TemplateName)
	}
	return out, nil
}

// marshal encodes without HTML escaping so paths and data URIs stay
// readable.
func marshal(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if !indent {
		out = bytes.TrimSuffix(out, []byte("\n"))
	}
	return out, nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

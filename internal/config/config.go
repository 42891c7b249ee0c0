// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/sheetdeck/internal/imageformat"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
	"github.com/kpauljoseph/sheetdeck/pkg/units"
	"github.com/kpauljoseph/sheetdeck/pkg/utils"
)

const (
	DefaultColumns            = 4
	DefaultRows               = 2
	DefaultDPI                = 300
	DefaultTemplateName       = "card"
	DefaultStartingCardNumber = 1
	DefaultCardThickness      = 0.0003
	DefaultWorkers            = 1
	DefaultOutput             = "deck.zip"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Margins struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
}

type Grid struct {
	Columns       int     `yaml:"columns"`
	Rows          int     `yaml:"rows"`
	MarginUnit    string  `yaml:"margin_unit"`
	Margins       Margins `yaml:"margins"`
	ColumnSpacing float64 `yaml:"column_spacing"`
	RowSpacing    float64 `yaml:"row_spacing"`
	DPI           float64 `yaml:"dpi"`
}

type Pages struct {
	Start int `yaml:"start"`
	// Finish of 0 means the last page of the front document.
	Finish int `yaml:"finish"`
}

type Config struct {
	Mode               string  `yaml:"mode"`
	Front              string  `yaml:"front"`
	Back               string  `yaml:"back"`
	Grid               Grid    `yaml:"grid"`
	Pages              Pages   `yaml:"pages"`
	StartingCardNumber int     `yaml:"starting_card_number"`
	TemplateName       string  `yaml:"template_name"`
	CardThickness      float64 `yaml:"card_thickness_meters"`
	Rotation           int     `yaml:"rotation"`
	ImageFormat        string  `yaml:"image_format"`
	JPEGQuality        int     `yaml:"jpeg_quality"`
	Workers            int     `yaml:"workers"`
	Output             string  `yaml:"output"`
	Unpacked           string  `yaml:"unpacked"`
}

// Default returns a configuration for a 4x2 sheet of interleaved cards.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = string(models.LayoutSingle)
	}
	if c.Grid.Columns == 0 {
		c.Grid.Columns = DefaultColumns
	}
	if c.Grid.Rows == 0 {
		c.Grid.Rows = DefaultRows
	}
	if c.Grid.MarginUnit == "" {
		c.Grid.MarginUnit = string(units.Millimeters)
	}
	if c.Grid.DPI == 0 {
		c.Grid.DPI = DefaultDPI
	}
	if c.Pages.Start == 0 {
		c.Pages.Start = 1
	}
	if c.StartingCardNumber == 0 {
		c.StartingCardNumber = DefaultStartingCardNumber
	}
	if c.CardThickness == 0 {
		c.CardThickness = DefaultCardThickness
	}
	if c.ImageFormat == "" {
		c.ImageFormat = string(imageformat.Default)
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = imageformat.DefaultJPEGQuality
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Output == "" && c.Unpacked == "" {
		c.Output = DefaultOutput
	}
}

// Validate checks the fields that do not depend on the documents. Grid
// geometry against a real page is checked by the export pipeline.
func (c *Config) Validate() error {
	var problems []string
	if _, err := models.ParseLayoutMode(c.Mode); err != nil {
		problems = append(problems, err.Error())
	}
	if strings.TrimSpace(c.Front) == "" {
		problems = append(problems, "front document is required")
	}
	if _, err := units.ParseUnit(c.Grid.MarginUnit); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Pages.Start < 1 {
		problems = append(problems, fmt.Sprintf("pages.start must be at least 1, got %d", c.Pages.Start))
	}
	if c.Pages.Finish != 0 && c.Pages.Finish < c.Pages.Start {
		problems = append(problems, fmt.Sprintf("pages.finish %d is before pages.start %d", c.Pages.Finish, c.Pages.Start))
	}
	if c.StartingCardNumber < 1 {
		problems = append(problems, fmt.Sprintf("starting_card_number must be at least 1, got %d", c.StartingCardNumber))
	}
	if c.CardThickness < 0 {
		problems = append(problems, "card_thickness_meters must not be negative")
	}
	if _, err := imageformat.ParseFormat(c.ImageFormat); err != nil {
		problems = append(problems, err.Error())
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		problems = append(problems, fmt.Sprintf("jpeg_quality must be within 1..100, got %d", c.JPEGQuality))
	}
	if c.Rotation%90 != 0 {
		problems = append(problems, fmt.Sprintf("rotation must be a multiple of 90, got %d", c.Rotation))
	}
	if c.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be at least 1, got %d", c.Workers))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) LayoutMode() models.LayoutMode {
	mode, err := models.ParseLayoutMode(c.Mode)
	if err != nil {
		return models.LayoutSingle
	}
	return mode
}

// GridSpec converts the grid section to millimeters.
func (c *Config) GridSpec() (models.GridSpec, error) {
	unit, err := units.ParseUnit(c.Grid.MarginUnit)
	if err != nil {
		return models.GridSpec{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return models.GridSpec{
		Columns:       c.Grid.Columns,
		Rows:          c.Grid.Rows,
		MarginLeft:    unit.ToMM(c.Grid.Margins.Left),
		MarginRight:   unit.ToMM(c.Grid.Margins.Right),
		MarginTop:     unit.ToMM(c.Grid.Margins.Top),
		MarginBottom:  unit.ToMM(c.Grid.Margins.Bottom),
		ColumnSpacing: unit.ToMM(c.Grid.ColumnSpacing),
		RowSpacing:    unit.ToMM(c.Grid.RowSpacing),
		DPI:           c.Grid.DPI,
	}, nil
}

// Template is the configured template name, or one derived from the front
// document's file name.
func (c *Config) Template() string {
	if c.TemplateName != "" {
		return c.TemplateName
	}
	if name := utils.TemplateNameFromPath(c.Front); name != "" {
		return name
	}
	return DefaultTemplateName
}

// PageRange is the configured range; Finish 0 is resolved later against
// the document.
func (c *Config) PageRange() models.PageRange {
	return models.PageRange{Start: c.Pages.Start, Finish: c.Pages.Finish}
}

func (c *Config) Format() (imageformat.Format, error) {
	return imageformat.ParseFormat(c.ImageFormat)
}

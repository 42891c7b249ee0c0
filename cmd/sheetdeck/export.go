package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/sheetdeck/internal/config"
	"github.com/kpauljoseph/sheetdeck/internal/export"
	"github.com/kpauljoseph/sheetdeck/internal/manifest"
	"github.com/kpauljoseph/sheetdeck/internal/pdf"
)

type exportFlags struct {
	front       string
	back        string
	mode        string
	format      string
	dpi         float64
	columns     int
	rows        int
	start       int
	finish      int
	firstCard   int
	template    string
	rotation    int
	workers     int
	output      string
	unpacked    string
	jpegQuality int
}

func newExportCmd() *cobra.Command {
	return (&exportFlags{}).command()
}

func (f *exportFlags) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every card face and the package descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.front, "front", "", "front document, or the interleaved document in single mode")
	flags.StringVar(&f.back, "back", "", "back document (separate mode)")
	flags.StringVar(&f.mode, "mode", "", "layout mode: single or separate")
	flags.StringVar(&f.format, "format", "", "image format: jpeg, png, tiff, bmp, webp, avif")
	flags.IntVar(&f.jpegQuality, "jpeg-quality", 0, "JPEG quality 1-100")
	flags.Float64Var(&f.dpi, "dpi", 0, "export resolution")
	flags.IntVar(&f.columns, "columns", 0, "cards per row")
	flags.IntVar(&f.rows, "rows", 0, "cards per column")
	flags.IntVar(&f.start, "start", 0, "first page of the range")
	flags.IntVar(&f.finish, "finish", 0, "last page of the range (default: last page)")
	flags.IntVar(&f.firstCard, "first-card", 0, "number of the first card")
	flags.StringVar(&f.template, "template", "", "template name (default: derived from the front file name)")
	flags.IntVar(&f.rotation, "rotation", 0, "rotate faces clockwise by 0, 90, 180 or 270 degrees")
	flags.IntVar(&f.workers, "workers", 0, "cards processed in parallel")
	flags.StringVarP(&f.output, "output", "o", "", "zip archive to write")
	flags.StringVar(&f.unpacked, "unpacked", "", "directory to write the package to, unzipped")

	return cmd
}

// apply copies the flags the user set over the config file values.
func (f *exportFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("front") {
		cfg.Front = f.front
	}
	if changed("back") {
		cfg.Back = f.back
	}
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("format") {
		cfg.ImageFormat = f.format
	}
	if changed("jpeg-quality") {
		cfg.JPEGQuality = f.jpegQuality
	}
	if changed("dpi") {
		cfg.Grid.DPI = f.dpi
	}
	if changed("columns") {
		cfg.Grid.Columns = f.columns
	}
	if changed("rows") {
		cfg.Grid.Rows = f.rows
	}
	if changed("start") {
		cfg.Pages.Start = f.start
	}
	if changed("finish") {
		cfg.Pages.Finish = f.finish
	}
	if changed("first-card") {
		cfg.StartingCardNumber = f.firstCard
	}
	if changed("template") {
		cfg.TemplateName = f.template
	}
	if changed("rotation") {
		cfg.Rotation = f.rotation
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("unpacked") {
		cfg.Unpacked = f.unpacked
		if !changed("output") && cfg.Output == config.DefaultOutput {
			cfg.Output = ""
		}
	}
}

func runExport(cmd *cobra.Command, f *exportFlags) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	grid, err := cfg.GridSpec()
	if err != nil {
		return err
	}
	format, err := cfg.Format()
	if err != nil {
		return err
	}

	front, err := os.ReadFile(cfg.Front)
	if err != nil {
		return fmt.Errorf("failed to read front document: %w", err)
	}
	var back []byte
	if cfg.Back != "" {
		if back, err = os.ReadFile(cfg.Back); err != nil {
			log.Warn("Failed to read back document, card backs will be missing: %v", err)
			back = nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline := export.New(pdf.NewFitzRasterizer(log), export.WithLogger(log))

	started := time.Now()
	res, err := pipeline.Run(ctx, export.Request{
		Front:              front,
		Back:               back,
		Mode:               cfg.LayoutMode(),
		Grid:               grid,
		Pages:              cfg.PageRange(),
		StartingCardNumber: cfg.StartingCardNumber,
		TemplateName:       cfg.Template(),
		CardThickness:      cfg.CardThickness,
		Format:             format,
		JPEGQuality:        cfg.JPEGQuality,
		Rotation:           cfg.Rotation,
		Workers:            cfg.Workers,
		Progress: func(completed, total int) {
			log.Debug("Processed card %d/%d", completed, total)
		},
		Sink: func(pkg *manifest.Package) error {
			if cfg.Output != "" {
				if err := pkg.WriteZipFile(cfg.Output); err != nil {
					return err
				}
				log.Info("Package written to: %s", cfg.Output)
			}
			if cfg.Unpacked != "" {
				if err := pkg.WriteDir(cfg.Unpacked); err != nil {
					return err
				}
				log.Info("Package unpacked to: %s", cfg.Unpacked)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	res.Report.Print(log)
	log.Info("Finished in %s", time.Since(started).Round(time.Millisecond))
	return nil
}

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/sheetdeck/internal/geometry"
	"github.com/kpauljoseph/sheetdeck/internal/pdf"
	"github.com/kpauljoseph/sheetdeck/internal/resolver"
	"github.com/kpauljoseph/sheetdeck/internal/scanner"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
	"github.com/kpauljoseph/sheetdeck/pkg/units"
	"github.com/kpauljoseph/sheetdeck/pkg/utils"
)

func newInspectCmd() *cobra.Command {
	var cells bool
	cmd := &cobra.Command{
		Use:   "inspect <file.pdf|dir>",
		Short: "Show page sizes and the card grid of a document, or of every PDF in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], cells)
		},
	}
	cmd.Flags().BoolVar(&cells, "cells", false, "list every cell of the first page")
	return cmd
}

func runInspect(cmd *cobra.Command, path string, showCells bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	grid, err := cfg.GridSpec()
	if err != nil {
		return err
	}

	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return inspectFile(cmd.OutOrStdout(), path, grid, showCells)
	}

	pdfs, err := scanner.New(newLogger()).FindPDFs(cmd.Context(), path)
	if err != nil {
		return err
	}
	for i, f := range pdfs {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if err := inspectFile(cmd.OutOrStdout(), f.AbsolutePath, grid, showCells); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Error inspecting %s: %v\n", f.RelativePath, err)
		}
	}
	return nil
}

func inspectFile(out io.Writer, path string, grid models.GridSpec, showCells bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	info, err := pdf.Inspect(bytes.NewReader(data))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Analyzing PDF: %s\n", path)
	fmt.Fprintf(out, "SHA-256: %s\n", utils.HashBytes(data))
	fmt.Fprintf(out, "Pages: %d\n", info.PageCount)
	for i, dim := range info.Pages {
		fmt.Fprintf(out, "Page %d: %.3f x %.3f points (%.1f x %.1f mm)\n", i+1,
			dim.Width, dim.Height,
			units.PxToMM(dim.Width, units.ReferenceDPI), units.PxToMM(dim.Height, units.ReferenceDPI))
		if media := info.Media[i]; media != dim {
			fmt.Fprintf(out, "  cropped from a %.3f x %.3f point media box\n", media.Width, media.Height)
		}
	}
	if info.PageCount == 0 {
		return nil
	}

	first, err := info.Page(1)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nGrid: %d x %d at %.0f dpi\n", grid.Columns, grid.Rows, grid.DPI)
	if err := geometry.Validate(first, grid); err != nil {
		fmt.Fprintf(out, "Grid does not fit page 1: %v\n", err)
		return nil
	}

	w, h := geometry.CardSizeMM(first, grid)
	fmt.Fprintf(out, "Card size: %.2f x %.2f mm\n", w, h)
	fmt.Fprintf(out, "Cards in single mode: %d\n", resolver.TotalCards(models.LayoutSingle, grid, info.PageCount))
	fmt.Fprintf(out, "Cards in separate mode: %d\n", resolver.TotalCards(models.LayoutSeparate, grid, info.PageCount))

	if showCells {
		for _, row := range geometry.ComputeCells(first, grid) {
			for _, c := range row {
				fmt.Fprintf(out, "  (%d,%d) x=%.2f y=%.2f w=%.2f h=%.2f\n", c.Row, c.Col, c.X, c.Y, c.Width, c.Height)
			}
		}
	}
	return nil
}

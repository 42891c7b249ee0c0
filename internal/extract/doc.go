// Package extract cuts single card faces out of rasterized sheets.
//
// Cells are computed in display space (72 pixels per inch). The extractor
// scales them by exportDPI/72 to find the same region on a page rendered at
// the export resolution, crops it, optionally turns it by a quarter turn
// and encodes it with the encoder chosen for the run.
package extract

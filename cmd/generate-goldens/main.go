// Command generate-goldens renders fixed samples with the fixture glyph
// tables and writes golden layout snapshots for the package tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ryanlewis/pixpage"
	"github.com/ryanlewis/pixpage/internal/golden"
)

var (
	outDir  = flag.String("out", "testdata/goldens", "Output directory")
	defsDir = flag.String("definitions", "testdata/definitions", "Directory holding the fixture tables")
	modes   = flag.String("modes", "default compact extreme", "Space-separated list of modes")
	dpi     = flag.Int("dpi", 30, "Page resolution")
	strict  = flag.Bool("strict", false, "Exit on any warning")
)

// The page is 60x60 px at 30 dpi with a 2 px margin, small enough to read
// in a diff.
const (
	pageMM   = 50.8
	marginMM = 2
	scale    = 1
)

// Default samples including edge cases. The last one needs a second page
// unless whitespace is collapsed.
var defaultSamples = []string{
	"AB Hi",
	"HiH. BAB\nA",
	"ABxB",
	"AB  HiB\n\nBA H.A HAB BAB",
	"AB HiB AB Hi BA HAB",
	"   ",
	strings.Repeat("HAB\n", 12) + "iB",
}

func main() {
	flag.Parse()

	profile := pixpage.Profile5x5
	table, err := pixpage.LoadTableFS(os.DirFS(*defsDir), profile.FileName(), profile)
	if err != nil {
		log.Fatalf("Failed to load table: %v", err)
	}

	for _, mode := range strings.Fields(*modes) {
		dir := filepath.Join(*outDir, profile.Name, mode)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}

		for _, sample := range defaultSamples {
			if err := generateGoldenFile(dir, table, mode, sample); err != nil {
				if *strict {
					log.Fatalf("Failed to generate golden file: %v", err)
				}
				log.Printf("Warning: %v", err)
			}
		}
	}

	log.Println("Golden file generation complete")
}

func generateGoldenFile(dir string, table *pixpage.Table, mode, sample string) error {
	outFile := filepath.Join(dir, golden.Slugify(sample)+".md")
	log.Printf("Generating %s", outFile)

	meta := golden.Metadata{
		Table:        table.Name,
		Profile:      table.Profile.Name,
		Mode:         mode,
		Sample:       sample,
		PageWidthMM:  pageMM,
		PageHeightMM: pageMM,
		DPI:          *dpi,
		MarginMM:     marginMM,
		Scale:        scale,
		Generated:    time.Now().UTC().Format("2006-01-02"),
		Generator:    "generate-goldens",
	}

	opts := []pixpage.Option{
		pixpage.WithPageSize(pixpage.PageSize{WidthMM: pageMM, HeightMM: pageMM}),
		pixpage.WithDPI(meta.DPI),
		pixpage.WithMargin(marginMM),
		pixpage.WithScale(scale),
	}
	switch mode {
	case "default":
	case "compact":
		opts = append(opts, pixpage.WithCompact(true))
	case "extreme":
		opts = append(opts, pixpage.WithExtreme(true))
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	doc, err := pixpage.Render(context.Background(), sample, table, opts...)
	if err != nil {
		return fmt.Errorf("failed to render %q: %w", sample, err)
	}

	images := make([]image.Image, len(doc.Pages))
	for i, p := range doc.Pages {
		images[i] = p.Image
	}
	art := golden.Preview(images)
	meta.Pages = doc.PageCount
	meta.ChecksumSHA256 = golden.Checksum(art)

	data, err := golden.Encode(meta, art)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", outFile, err)
	}
	return nil
}

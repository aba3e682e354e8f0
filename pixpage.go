// Package pixpage renders text onto fixed-size page images using pixel-grid
// bitmap fonts.
//
// A glyph table maps characters to small boolean grids (5x5, 5x4 or 4x3).
// Text is normalized to the characters a table can draw, word-wrapped and
// paginated in device pixels, and painted one filled square per grid cell.
// Pages can be kept in memory or streamed to PNG, TIFF or PDF files.
package pixpage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ryanlewis/pixpage/internal/normalize"
	"github.com/ryanlewis/pixpage/internal/parser"
)

// ParseTable reads a glyph definitions file for profile p.
// The returned Table is immutable and safe for concurrent use across goroutines.
//
// Problems that only affect single glyphs, such as a key longer than one
// character, are reported in Table.Warnings rather than as errors.
//
// Example:
//
//	file, err := os.Open("Times_Sitelew_Roman_5x5_pixels.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer file.Close()
//
//	table, err := pixpage.ParseTable(file, pixpage.Profile5x5)
//	if err != nil {
//	    log.Fatal(err)
//	}
func ParseTable(r io.Reader, p Profile) (*Table, error) {
	pt, err := parser.Parse(r)
	if err != nil {
		return nil, err
	}
	return convertParserTable(pt, p), nil
}

// ParseTableBytes parses a glyph definitions file held in memory.
func ParseTableBytes(data []byte, p Profile) (*Table, error) {
	return ParseTable(bytes.NewReader(data), p)
}

// LoadTable reads a glyph definitions file from the local filesystem.
func LoadTable(filePath string, p Profile) (*Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions file: %w", err)
	}
	defer file.Close()

	t, err := ParseTable(file, p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse definitions %s: %w", filePath, err)
	}
	t.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return t, nil
}

// cleanFSPath validates and cleans a path for use with fs.FS.
// It ensures the path is valid according to fs.ValidPath rules and
// prevents directory traversal attacks.
func cleanFSPath(p string) (string, error) {
	if p == "" {
		return "", errors.New("path cannot be empty")
	}
	// fs.FS disallows leading slash and uses '/' only
	if strings.HasPrefix(p, "/") {
		return "", errors.New("absolute paths not allowed")
	}
	if strings.ContainsRune(p, '\\') {
		return "", errors.New("backslashes not allowed in fs paths")
	}
	if !fs.ValidPath(p) {
		// rejects ".", ".." segments, empty elements, etc.
		return "", fmt.Errorf("invalid fs path: %s", p)
	}
	clean := path.Clean(p) // purely slash semantics
	if clean == "." || strings.HasPrefix(clean, "../") {
		return "", errors.New("path traversal not allowed")
	}
	return clean, nil
}

// LoadTableFS loads a glyph definitions file from a filesystem.
// The returned Table is immutable and safe for concurrent use across goroutines.
//
// Path traversal (e.g., "../") is not allowed.
//
// Example with os.DirFS:
//
//	defs := os.DirFS("assets/definitions")
//	table, err := pixpage.LoadTableFS(defs, pixpage.Profile5x4.FileName(), pixpage.Profile5x4)
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadTableFS(fsys fs.FS, tablePath string, p Profile) (*Table, error) {
	if fsys == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}

	clean, err := cleanFSPath(tablePath)
	if err != nil {
		return nil, err
	}

	file, err := fsys.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions file: %w", err)
	}
	defer file.Close()

	t, err := ParseTable(file, p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse definitions %s: %w", clean, err)
	}

	// Use path package for fs.FS paths (not filepath)
	t.Name = strings.TrimSuffix(path.Base(clean), path.Ext(clean))
	return t, nil
}

// DefinitionsPath joins dir and the conventional file name for p.
// An empty dir or "." means the filesystem root.
func DefinitionsPath(dir string, p Profile) string {
	if dir == "" || dir == "." {
		return p.FileName()
	}
	return path.Join(dir, p.FileName())
}

// LoadLegendFS reads a legend file and collapses its whitespace.
func LoadLegendFS(fsys fs.FS, legendPath string) (string, error) {
	if fsys == nil {
		return "", fmt.Errorf("filesystem cannot be nil")
	}
	clean, err := cleanFSPath(legendPath)
	if err != nil {
		return "", err
	}
	data, err := fs.ReadFile(fsys, clean)
	if err != nil {
		return "", fmt.Errorf("failed to read legend: %w", err)
	}
	return normalize.CleanLegend(string(data)), nil
}

// ParseRules reads a substitution rules file for WithRules. Each line holds
// one quoted pair such as "ſ" -> "s"; '#' starts a comment. name is used in
// error positions.
func ParseRules(name string, r io.Reader) ([]Rule, error) {
	return normalize.ParseRules(name, r)
}

// convertParserTable converts the parser output to the public Table type.
// The glyph map is shared with the parser table, which is discarded.
func convertParserTable(pt *parser.Table, p Profile) *Table {
	return &Table{
		Profile:  p,
		Warnings: pt.Warnings,
		glyphs:   pt.Build(),
	}
}

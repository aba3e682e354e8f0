// Package golden reads and writes layout snapshot files.
//
// A golden file is markdown: YAML front matter describing the render,
// followed by a fenced text block with an ASCII preview of every page.
package golden

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata is the front matter of a golden file.
type Metadata struct {
	Table          string  `yaml:"table"`
	Profile        string  `yaml:"profile"`
	Mode           string  `yaml:"mode"`
	Sample         string  `yaml:"sample"`
	PageWidthMM    float64 `yaml:"page_width_mm"`
	PageHeightMM   float64 `yaml:"page_height_mm"`
	DPI            int     `yaml:"dpi"`
	MarginMM       float64 `yaml:"margin_mm"`
	Scale          int     `yaml:"scale"`
	LineGap        int     `yaml:"line_gap"`
	Pages          int     `yaml:"pages"`
	Generated      string  `yaml:"generated"`
	Generator      string  `yaml:"generator"`
	ChecksumSHA256 string  `yaml:"checksum_sha256"`
}

// Preview draws dark pixels as '#' and light ones as '.', one line per row,
// each page headed by "page N".
func Preview(pages []image.Image) string {
	var b strings.Builder
	for i, img := range pages {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "page %d", i+1)
		r := img.Bounds()
		for y := r.Min.Y; y < r.Max.Y; y++ {
			b.WriteByte('\n')
			for x := r.Min.X; x < r.Max.X; x++ {
				if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y < 128 {
					b.WriteByte('#')
				} else {
					b.WriteByte('.')
				}
			}
		}
	}
	return b.String()
}

// Checksum returns the hex SHA-256 of art.
func Checksum(art string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(art)))
}

// Encode writes a golden file for meta and art.
func Encode(meta Metadata, art string) ([]byte, error) {
	yamlData, err := yaml.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(yamlData)
	buf.WriteString("---\n\n")
	buf.WriteString("```text\n")
	buf.WriteString(art)
	buf.WriteString("\n```\n")
	return buf.Bytes(), nil
}

// Parse reads a golden file and returns its metadata and preview.
func Parse(r io.Reader) (*Metadata, string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		front         []string
		inFrontMatter bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "---" {
			if inFrontMatter {
				break
			}
			inFrontMatter = true
			continue
		}
		if inFrontMatter {
			front = append(front, line)
		}
	}

	meta := &Metadata{}
	if err := yaml.Unmarshal([]byte(strings.Join(front, "\n")), meta); err != nil {
		return nil, "", fmt.Errorf("bad front matter: %w", err)
	}

	var (
		art     []string
		inBlock bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "```text") {
			inBlock = true
			continue
		}
		if strings.HasPrefix(line, "```") && inBlock {
			break
		}
		if inBlock {
			art = append(art, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("error reading golden file: %w", err)
	}
	return meta, strings.Join(art, "\n"), nil
}

// Slugify turns a sample into a file name stem.
func Slugify(s string) string {
	if strings.TrimSpace(s) == "" {
		return fmt.Sprintf("blank_%d", len(s))
	}

	var result []rune
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			result = append(result, r)
		} else if len(result) == 0 || result[len(result)-1] != '_' {
			result = append(result, '_')
		}
	}

	slug := strings.Trim(string(result), "_")
	if slug == "" {
		return Checksum(s)[:8]
	}
	return slug
}

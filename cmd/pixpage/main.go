// Command pixpage renders text onto page images using pixel-grid bitmap fonts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ryanlewis/pixpage"
	"github.com/ryanlewis/pixpage/internal/debug"
	"github.com/ryanlewis/pixpage/internal/export"
	"github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitDegraded = 2
)

// legendFileName is looked up in the definitions directory by --include-legend.
const legendFileName = "character_legend.txt"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli holds the parsed command line.
type cli struct {
	gridSize      string
	scale         int
	marginMM      float64
	dpi           int
	lineGap       int
	compact       bool
	extreme       bool
	legend        string
	includeLegend bool
	noLegend      bool
	definitions   string
	fontCSV       string
	input         string
	out           string
	format        string
	surface       string
	pageSize      string
	rules         string
	unknown       string
	transliterate bool
	foldAccents   bool
	reportMissing bool
	strict        bool
	lenient       bool
	watch         bool
	poll          time.Duration
	config        string
	debugMode     bool
	debugFile     string
	debugPretty   bool
	showVersion   bool
	showHelp      bool
}

func newFlagSet(c *cli, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("pixpage", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.StringVarP(&c.gridSize, "grid-size", "g", "5x5", "Glyph grid: 5x5, 5x4 or 4x3")
	fs.IntVarP(&c.scale, "scale", "s", pixpage.DefaultScale, "Pixels per glyph cell (1-64)")
	fs.Float64VarP(&c.marginMM, "margin-mm", "m", pixpage.DefaultMarginMM, "Page margin in millimetres")
	fs.IntVarP(&c.dpi, "dpi", "d", pixpage.DefaultDPI, "Page resolution (1-2400)")
	fs.IntVar(&c.lineGap, "line-gap", 0, "Blank grid rows between lines (ignored with --extreme)")
	fs.BoolVarP(&c.compact, "compact", "c", false, "Collapse whitespace and newlines into single spaces")
	fs.BoolVarP(&c.extreme, "extreme", "x", false, "Lowercase, subscript digits and imply --compact")
	fs.StringVar(&c.legend, "legend", "", "Prefix the document with the legend in FILE")
	fs.BoolVar(&c.includeLegend, "include-legend", false, "Prefix the legend from "+legendFileName+" in the definitions directory")
	fs.BoolVar(&c.noLegend, "no-legend", false, "Never include a legend")
	fs.StringVarP(&c.definitions, "definitions", "D", "definitions", "Directory holding the glyph definitions files")
	fs.StringVar(&c.fontCSV, "font-csv", "", "Glyph definitions file to use instead of the definitions directory")
	fs.StringVarP(&c.input, "input", "i", "", "Read text from FILE ('-' for stdin)")
	fs.StringVarP(&c.out, "out", "o", "page.png", "Output path; the extension selects the format")
	fs.StringVarP(&c.format, "format", "f", "", "Output format: png, tiff or pdf (overrides the extension)")
	fs.StringVar(&c.surface, "surface", string(pixpage.SurfaceBitmap), "Painting backend: bitmap or vector")
	fs.StringVar(&c.pageSize, "page-size", pixpage.A4.Name, "Page size: a4, a5 or letter")
	fs.StringVar(&c.rules, "rules", "", "Extra substitution rules FILE")
	fs.StringVar(&c.unknown, "unknown", "placeholder", "Characters without a glyph: placeholder or hex")
	fs.BoolVar(&c.transliterate, "transliterate", false, "Spell Russian text in Latin letters when the table has no Cyrillic")
	fs.BoolVar(&c.foldAccents, "fold-accents", false, "Strip accents the substitution table leaves behind")
	fs.BoolVar(&c.reportMissing, "report-missing", false, "List characters the glyph table cannot draw")
	fs.BoolVar(&c.strict, "strict", false, "Exit with status 2 when a table or legend could not be loaded")
	fs.BoolVar(&c.lenient, "lenient-geometry", false, "Render even when the margins leave no room for a glyph")
	fs.BoolVarP(&c.watch, "watch", "w", false, "Re-render whenever the --input file changes")
	fs.DurationVar(&c.poll, "poll", 500*time.Millisecond, "How often --watch checks the input file")
	fs.StringVar(&c.config, "config", "", "YAML file of flag defaults; command-line flags win")
	fs.BoolVar(&c.debugMode, "debug", false, "Enable debug mode (outputs to stderr)")
	fs.StringVar(&c.debugFile, "debug-file", "", "Write debug output to file instead of stderr")
	fs.BoolVar(&c.debugPretty, "debug-pretty", false, "Use pretty format for debug output (default: JSON)")
	fs.BoolVarP(&c.showVersion, "version", "v", false, "Show version information")
	fs.BoolVarP(&c.showHelp, "help", "h", false, "Show help message")
	return fs
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var c cli
	fs := newFlagSet(&c, stderr)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	if c.showHelp {
		printHelp(stdout, fs)
		return exitOK
	}

	if c.showVersion {
		fmt.Fprintf(stdout, "pixpage version %s (commit: %s, built: %s)\n", version, commit, date)
		return exitOK
	}

	if c.config != "" {
		if err := applyConfigFile(fs, c.config); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	}

	session, closeDebug, err := setupDebug(&c, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating debug file: %v\n", err)
		return exitError
	}
	defer closeDebug()

	text, given, err := readText(&c, fs.Args(), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return exitError
	}
	if !given && !c.wantsLegend() && !c.watch {
		fmt.Fprintln(stderr, "Error: no text provided")
		printHelp(stderr, fs)
		return exitError
	}

	table, err := loadTable(&c, session)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading glyph table: %v\n", err)
		return exitError
	}

	opts, err := c.renderOptions(session)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	base, format, err := c.output()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if c.watch {
		return watch(ctx, &c, table, opts, base, format, stdout, stderr)
	}
	return renderOnce(ctx, &c, text, table, opts, base, format, session, stdout, stderr)
}

// renderOnce renders text and streams the pages to disk.
func renderOnce(ctx context.Context, c *cli, text string, table *pixpage.Table, opts []pixpage.Option,
	base string, format pixpage.Format, session *debug.Session, stdout, stderr io.Writer) int {
	files, err := c.fileSet(base, format, session)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	bar := newProgressBar(stderr)
	if bar != nil {
		opts = append(opts, pixpage.WithProgress(bar.update, pixpage.DefaultYieldInterval))
	}

	doc, err := pixpage.RenderTo(ctx, text, table, func(p pixpage.Page) error {
		return files.WritePage(p.Index, p.Image)
	}, opts...)
	bar.finish()
	if err != nil {
		_, _ = files.Close()
		fmt.Fprintf(stderr, "Error rendering text: %v\n", err)
		return exitError
	}

	printWarnings(stderr, doc)
	if doc.PageCount == 0 {
		fmt.Fprintln(stderr, "Warning: nothing to render")
		return c.status(doc)
	}

	paths, err := files.Close()
	if err != nil {
		fmt.Fprintf(stderr, "Error writing pages: %v\n", err)
		return exitError
	}
	printSaved(stdout, paths, doc)

	if c.reportMissing {
		printMissing(stderr, pixpage.Coverage(text, table, opts...))
	}
	return c.status(doc)
}

// fileSet prepares page output at the resolution the pages are rendered at.
func (c *cli) fileSet(base string, format pixpage.Format, session *debug.Session) (*export.FileSet, error) {
	return export.NewFileSet(base, format, pixpage.EffectiveDPI(c.dpi),
		export.WithInfo(export.Info{Title: filepath.Base(base), Creator: "pixpage " + version}),
		export.WithDebug(session))
}

func (c *cli) wantsLegend() bool {
	return !c.noLegend && (c.legend != "" || c.includeLegend)
}

// status maps a finished document to an exit code.
func (c *cli) status(doc *pixpage.Document) int {
	if c.strict && doc.Degraded() {
		return exitDegraded
	}
	return exitOK
}

// readText returns the text to render and whether any was given.
func readText(c *cli, args []string, stdin io.Reader) (string, bool, error) {
	if len(args) > 0 && c.input != "" {
		return "", false, errors.New("give text as arguments or with --input, not both")
	}
	switch {
	case len(args) == 1 && args[0] == "-", c.input == "-":
		data, err := io.ReadAll(stdin)
		return string(data), true, err
	case len(args) > 0:
		return strings.Join(args, " "), true, nil
	case c.input != "":
		if c.watch {
			// watch reads the file itself
			return "", true, nil
		}
		data, err := os.ReadFile(c.input)
		return string(data), true, err
	}
	return "", false, nil
}

// loadTable loads the table for --grid-size. A missing definitions file
// degrades to an empty table; an explicit --font-csv must load.
func loadTable(c *cli, session *debug.Session) (*pixpage.Table, error) {
	p, err := pixpage.LookupProfile(c.gridSize)
	if err != nil {
		return nil, err
	}
	if c.fontCSV != "" {
		return pixpage.LoadTable(c.fontCSV, p)
	}
	cache := pixpage.NewTableCache(os.DirFS(c.definitions), ".", 0, pixpage.WithCacheDebug(session))
	return cache.LoadOrEmpty(p), nil
}

// renderOptions translates flags into render options.
func (c *cli) renderOptions(session *debug.Session) ([]pixpage.Option, error) {
	size, err := pixpage.ParsePageSize(c.pageSize)
	if err != nil {
		return nil, err
	}
	surface, err := pixpage.ParseSurface(c.surface)
	if err != nil {
		return nil, err
	}
	unknown, err := pixpage.ParseUnknownMode(c.unknown)
	if err != nil {
		return nil, err
	}

	opts := []pixpage.Option{
		pixpage.WithPageSize(size),
		pixpage.WithScale(c.scale),
		pixpage.WithDPI(c.dpi),
		pixpage.WithMargin(c.marginMM),
		pixpage.WithLineGap(c.lineGap),
		pixpage.WithCompact(c.compact),
		pixpage.WithExtreme(c.extreme),
		pixpage.WithSurface(surface),
		pixpage.WithUnknownMode(unknown),
		pixpage.WithTransliteration(c.transliterate),
		pixpage.WithAccentFolding(c.foldAccents),
		pixpage.WithLenientGeometry(c.lenient),
	}

	switch {
	case c.noLegend:
	case c.legend != "":
		opts = append(opts, pixpage.WithLegendFS(os.DirFS(filepath.Dir(c.legend)), filepath.Base(c.legend)))
	case c.includeLegend:
		opts = append(opts, pixpage.WithLegendFS(os.DirFS(c.definitions), legendFileName))
	}

	if c.rules != "" {
		rules, err := loadRules(c.rules)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pixpage.WithRules(rules))
	}

	if session != nil {
		opts = append(opts, pixpage.WithDebug(session))
	}
	return opts, nil
}

func loadRules(path string) ([]pixpage.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pixpage.ParseRules(filepath.Base(path), f)
}

// output splits --out into a base path and a format. --format wins over the
// extension; an output without a known extension is PNG.
func (c *cli) output() (string, pixpage.Format, error) {
	base, format, ok := export.SplitOutput(c.out)
	if c.format != "" {
		f, err := pixpage.ParseFormat(c.format)
		if err != nil {
			return "", "", err
		}
		return base, f, nil
	}
	if !ok {
		return base, pixpage.FormatPNG, nil
	}
	return base, format, nil
}

// setupDebug creates a debug session when --debug, --debug-file or
// PIXPAGE_DEBUG=1 asks for one. The returned func closes it.
func setupDebug(c *cli, stderr io.Writer) (*debug.Session, func(), error) {
	env := debug.FromEnv()
	if !c.debugMode && c.debugFile == "" && !env.On {
		return nil, func() {}, nil
	}

	var (
		output io.Writer = stderr
		file   *os.File
	)
	if c.debugFile != "" {
		f, err := os.Create(c.debugFile)
		if err != nil {
			return nil, func() {}, err
		}
		file = f
		output = f
	}

	var sink debug.Sink
	if c.debugPretty || env.Pretty {
		sink = debug.NewPrettySink(output)
	} else {
		sink = debug.NewJSONSink(output)
	}

	session := debug.NewSession(sink, "pixpage")
	return session, func() {
		_ = session.Close()
		if file != nil {
			_ = file.Close()
		}
	}, nil
}

func printWarnings(w io.Writer, doc *pixpage.Document) {
	for _, err := range doc.Warnings {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}
}

func printSaved(w io.Writer, paths []string, doc *pixpage.Document) {
	for _, p := range paths {
		fmt.Fprintf(w, "Saved to %s (Size: %dx%d, DPI: %d)\n", p, doc.Geometry.WidthPx, doc.Geometry.HeightPx, doc.DPI)
	}
}

func printMissing(w io.Writer, missing []pixpage.Missing) {
	if len(missing) == 0 {
		fmt.Fprintln(w, "All characters covered")
		return
	}
	fmt.Fprintf(w, "Missing glyphs (%d):\n", len(missing))
	for _, m := range missing {
		fmt.Fprintf(w, "  %s\n", m)
	}
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "pixpage - render text onto pages with pixel bitmap fonts")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pixpage [flags] <text>")
	fmt.Fprintln(w, "  pixpage [flags] --input FILE")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output naming:")
	fmt.Fprintln(w, "  one page:   page.png")
	fmt.Fprintln(w, "  many pages: page_page1.png, page_page2.png, ...")
	fmt.Fprintln(w, "  pdf:        all pages in page.pdf")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit status: 0 ok, 1 error, 2 degraded output with --strict")
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ryanlewis/pixpage"
	"github.com/spf13/pflag"
)

const testDefs = "../../testdata/definitions"

// syncBuffer is a bytes.Buffer safe for use from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// runCLI runs the command with the fixture definitions directory.
func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append([]string{"--definitions", testDefs}, args...)
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "--version")
	if code != exitOK {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.HasPrefix(stdout, "pixpage version dev") {
		t.Errorf("stdout = %q", stdout)
	}

	code, stdout, _ = runCLI(t, "", "--help")
	if code != exitOK || !strings.Contains(stdout, "--grid-size") {
		t.Errorf("--help: code %d, stdout %q", code, stdout)
	}
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")

	code, stdout, stderr := runCLI(t, "", "--dpi", "30", "--out", out, "AB", "Hi")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	want := "Saved to " + out + " (Size: 248x350, DPI: 30)"
	if !strings.Contains(stdout, want) {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestRunFormats(t *testing.T) {
	dir := t.TempDir()

	code, stdout, stderr := runCLI(t, "", "--dpi", "30", "--out", filepath.Join(dir, "book.pdf"), "AB")
	if code != exitOK {
		t.Fatalf("pdf: exit code = %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stdout, "book.pdf") {
		t.Errorf("pdf: stdout = %q", stdout)
	}

	code, _, stderr = runCLI(t, "", "--dpi", "30", "--format", "tif", "--out", filepath.Join(dir, "scan.png"), "AB")
	if code != exitOK {
		t.Fatalf("tiff: exit code = %d, stderr %q", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "scan.tiff")); err != nil {
		t.Errorf("--format should override the extension: %v", err)
	}
}

func TestRunMultiPage(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "doc")
	text := strings.Repeat("AB\n", 40)

	code, stdout, stderr := runCLI(t, text, "--dpi", "30", "--out", base+".png", "-")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	for _, name := range []string{"doc_page1.png", "doc_page2.png"} {
		if !strings.Contains(stdout, filepath.Join(dir, name)) {
			t.Errorf("stdout %q does not mention %s", stdout, name)
		}
	}
}

func TestRunDegraded(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")

	code, _, stderr := runCLI(t, "", "--grid-size", "4x3", "--dpi", "30", "--out", out, "AB")
	if code != exitOK {
		t.Fatalf("exit code = %d, want 0 without --strict", code)
	}
	if !strings.Contains(stderr, "Warning:") {
		t.Errorf("stderr = %q, want a warning", stderr)
	}

	code, _, _ = runCLI(t, "", "--strict", "--grid-size", "4x3", "--dpi", "30", "--out", out, "AB")
	if code != exitDegraded {
		t.Errorf("--strict exit code = %d, want %d", code, exitDegraded)
	}

	code, _, stderr = runCLI(t, "", "--strict", "--legend", filepath.Join(dir, "missing.txt"), "--dpi", "30", "--out", out, "AB")
	if code != exitDegraded || !strings.Contains(stderr, "legend") {
		t.Errorf("missing legend: code %d, stderr %q", code, stderr)
	}
}

func TestRunEmptyInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(input, []byte("  \n\t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := runCLI(t, "", "--input", input, "--out", filepath.Join(dir, "out.png"))
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if stdout != "" || !strings.Contains(stderr, "nothing to render") {
		t.Errorf("stdout %q, stderr %q", stdout, stderr)
	}
}

func TestRunReportMissing(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := runCLI(t, "", "--report-missing", "--dpi", "30", "--out", filepath.Join(dir, "o.png"), "ABxx")
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "U+0078") || !strings.Contains(stderr, "x2") {
		t.Errorf("stderr = %q, want the missing x", stderr)
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "pixpage.yaml")
	data := "dpi: 30\nformat: tiff\nscale: 1\nline_gap: 1\n"
	if err := os.WriteFile(config, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := runCLI(t, "", "--config", config, "--dpi", "40", "--out", filepath.Join(dir, "out.png"), "AB")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stdout, "out.tiff") || !strings.Contains(stdout, "DPI: 40") {
		t.Errorf("stdout = %q, want tiff output at 40 dpi", stdout)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	badConfig := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badConfig, []byte("colour: red\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "o.png")

	tests := []struct {
		name string
		args []string
	}{
		{"no text", []string{}},
		{"unknown flag", []string{"--nope", "AB"}},
		{"bad grid size", []string{"--grid-size", "9x9", "AB"}},
		{"bad format", []string{"--format", "bmp", "--out", out, "AB"}},
		{"bad page size", []string{"--page-size", "legal", "--out", out, "AB"}},
		{"bad unknown mode", []string{"--unknown", "drop", "--out", out, "AB"}},
		{"missing font csv", []string{"--font-csv", filepath.Join(dir, "nope.csv"), "AB"}},
		{"missing rules", []string{"--rules", filepath.Join(dir, "nope.rules"), "AB"}},
		{"input and args", []string{"--input", "x.txt", "AB"}},
		{"unknown config key", []string{"--config", badConfig, "AB"}},
		{"geometry", []string{"--margin-mm", "200", "--out", out, "AB"}},
		{"watch without input", []string{"--watch", "--out", out}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, "", tt.args...)
			if code != exitError {
				t.Errorf("exit code = %d, want %d (stderr %q)", code, exitError, stderr)
			}
			if !strings.Contains(stderr, "Error") {
				t.Errorf("stderr = %q, want an error message", stderr)
			}
		})
	}
}

func TestApplyConfigFile(t *testing.T) {
	var c cli
	fs := newFlagSet(&c, &bytes.Buffer{})
	if err := fs.Parse([]string{"--scale", "5"}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "c.yaml")
	data := "scale: 3\ngrid_size: 4x3\nextreme: true\nmargin-mm: 2.5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := applyConfigFile(fs, path); err != nil {
		t.Fatalf("applyConfigFile: %v", err)
	}
	if c.scale != 5 {
		t.Errorf("scale = %d, command line value 5 should win", c.scale)
	}
	if c.gridSize != "4x3" || !c.extreme || c.marginMM != 2.5 {
		t.Errorf("got grid %q, extreme %t, margin %v", c.gridSize, c.extreme, c.marginMM)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("dpi: lots\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := applyConfigFile(newFlagSet(&cli{}, &bytes.Buffer{}), bad); err == nil {
		t.Error("expected error for a non-numeric dpi")
	}
	if err := applyConfigFile(pflag.NewFlagSet("x", pflag.ContinueOnError), filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	b := &progressBar{w: &buf, width: 60}

	got := b.line(pixpage.Progress{Percent: 50, Pages: 2})
	want := "[" + strings.Repeat("#", 20) + strings.Repeat(".", 20) + "]  50% page 2"
	if got != want {
		t.Errorf("line = %q, want %q", got, want)
	}

	narrow := &progressBar{w: &buf, width: 15}
	if got := narrow.line(pixpage.Progress{Percent: 7, Pages: 1}); got != "7% page 1" {
		t.Errorf("narrow line = %q", got)
	}

	if err := b.update(context.Background(), pixpage.Progress{Percent: 100, Pages: 1}); err != nil {
		t.Fatal(err)
	}
	b.finish()
	if !strings.HasSuffix(buf.String(), "\r") {
		t.Errorf("finish should return the cursor, got %q", buf.String())
	}

	var none *progressBar
	if err := none.update(context.Background(), pixpage.Progress{}); err != nil {
		t.Error(err)
	}
	none.finish()

	if newProgressBar(&buf) != nil {
		t.Error("a buffer is not a terminal")
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(input, []byte("AB"), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := pixpage.LoadTable(filepath.Join(testDefs, pixpage.Profile5x5.FileName()), pixpage.Profile5x5)
	if err != nil {
		t.Fatal(err)
	}

	c := &cli{input: input, poll: 10 * time.Millisecond}
	opts := []pixpage.Option{pixpage.WithDPI(30), pixpage.WithDebounce(time.Millisecond)}
	base := filepath.Join(dir, "live")
	var stdout, stderr syncBuffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan int, 1)
	go func() {
		done <- watch(ctx, c, table, opts, base, pixpage.FormatPNG, &stdout, &stderr)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(stdout.String(), "Saved to") {
		if time.Now().After(deadline) {
			t.Fatalf("no render published; stderr %q", stderr.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case code := <-done:
		if code != exitOK {
			t.Errorf("exit code = %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	if _, err := os.Stat(base + ".png"); err != nil {
		t.Errorf("output missing: %v", err)
	}
	if !strings.Contains(stderr.String(), "Rendering revision 1") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestFileSetDPI(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	tests := []struct {
		flag int
		want int
	}{
		{0, pixpage.DefaultDPI},
		{150, 150},
		{5000, 2400},
	}
	for _, tt := range tests {
		c := &cli{dpi: tt.flag}
		files, err := c.fileSet(base, pixpage.FormatPDF, nil)
		if err != nil {
			t.Fatalf("fileSet: %v", err)
		}
		if files.DPI() != tt.want {
			t.Errorf("--dpi %d: pages placed at %d dpi, want %d", tt.flag, files.DPI(), tt.want)
		}
	}
}

func TestRemoveStale(t *testing.T) {
	dir := t.TempDir()
	touch := func(name string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	p1, p2, p3 := touch("out_page1.png"), touch("out_page2.png"), touch("out_page3.png")
	single := touch("out.png")

	// three pages shrink to two, then to one
	if err := removeStale([]string{p1, p2, p3}, []string{p1, p2}); err != nil {
		t.Fatal(err)
	}
	if err := removeStale([]string{p1, p2, filepath.Join(dir, "gone.png")}, []string{single}); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	if len(left) != 1 || left[0] != "out.png" {
		t.Errorf("files left = %v, want [out.png]", left)
	}
}

func TestWatchShrinkingDocument(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(input, []byte(strings.Repeat("AB\n", 40)), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := pixpage.LoadTable(filepath.Join(testDefs, pixpage.Profile5x5.FileName()), pixpage.Profile5x5)
	if err != nil {
		t.Fatal(err)
	}

	c := &cli{input: input, poll: 10 * time.Millisecond}
	opts := []pixpage.Option{pixpage.WithDPI(30), pixpage.WithDebounce(time.Millisecond)}
	base := filepath.Join(dir, "live")
	var stdout, stderr syncBuffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan int, 1)
	go func() {
		done <- watch(ctx, c, table, opts, base, pixpage.FormatPNG, &stdout, &stderr)
	}()

	waitFor := func(what string, ok func() bool) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !ok() {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %s; stderr %q", what, stderr.String())
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
	exists := func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	}

	waitFor("two pages", func() bool { return exists(base+"_page2.png") })
	if err := os.WriteFile(input, []byte("AB"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor("single page", func() bool { return exists(base + ".png") })
	cancel()
	<-done

	for _, name := range []string{"live_page1.png", "live_page2.png"} {
		if exists(filepath.Join(dir, name)) {
			t.Errorf("%s left over from the longer revision", name)
		}
	}
}

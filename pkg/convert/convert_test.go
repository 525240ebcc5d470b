package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/errors"
)

const vlSpec = `{"$schema": "https://vega.github.io/schema/vega-lite/v5.json", "mark": "bar"}`

// stubToolchain creates executable placeholder binaries so resolve succeeds,
// and reroutes commandContext to the test helper process. It returns the
// capture slice recording each invoked tool and its arguments, in order.
func stubToolchain(t *testing.T, mode string) (*Converter, *[][]string) {
	t.Helper()

	binDir := t.TempDir()
	for _, tool := range []string{"vl2vg", "vg2svg", "rsvg-convert"} {
		path := filepath.Join(binDir, tool)
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", tool, err)
		}
	}

	var mu sync.Mutex
	var calls [][]string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		mu.Lock()
		calls = append(calls, append([]string{filepath.Base(name)}, args...))
		mu.Unlock()
		cmd := exec.CommandContext(ctx, os.Args[0], append([]string{"-test.run=TestHelperProcess", "--", filepath.Base(name)}, args...)...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "VEGASAVE_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	var diag bytes.Buffer
	conv := New(WithBinDir(binDir), WithTempDir(t.TempDir()), WithDiagnostics(&diag))
	t.Cleanup(func() {
		// Every temp file created by a conversion must be gone afterwards.
		entries, err := os.ReadDir(conv.tempDir)
		if err != nil {
			t.Fatalf("read temp dir: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("temp files left behind: %v", entries)
		}
	})
	return conv, &calls
}

// TestHelperProcess stands in for the external renderer binaries. It is not
// a real test; it only runs when re-executed by stubToolchain.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	tool := args[0]

	switch os.Getenv("VEGASAVE_HELPER_MODE") {
	case "fail":
		fmt.Fprint(os.Stderr, "renderer exploded")
		os.Exit(1)
	case "fail-raster":
		if tool == "rsvg-convert" {
			fmt.Fprint(os.Stderr, "rasterizer exploded")
			os.Exit(1)
		}
	case "warn-success":
		fmt.Fprint(os.Stderr, "WARN: deprecated encoding channel")
	}

	switch tool {
	case "vl2vg":
		fmt.Fprint(os.Stdout, `{"$schema": "https://vega.github.io/schema/vega/v5.json", "marks": []}`)
	case "vg2svg":
		fmt.Fprint(os.Stdout, `<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	case "rsvg-convert":
		var format, outPath string
		for i, a := range args {
			switch a {
			case "-f":
				format = args[i+1]
			case "-o":
				outPath = args[i+1]
			}
		}
		var payload []byte
		if format == "png" {
			payload = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
		} else {
			payload = []byte("%PDF-1.7")
		}
		if err := os.WriteFile(outPath, payload, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "write output: %v", err)
			os.Exit(1)
		}
	}
	os.Exit(0)
}

func TestConvertIdentity(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		t.Fatal("identity conversion must not spawn a process")
		return nil
	}
	t.Cleanup(func() { commandContext = original })

	conv := New()
	out, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatVegaLite)
	if err != nil {
		t.Fatalf("Convert error = %v", err)
	}
	if string(out) != vlSpec {
		t.Errorf("identity conversion modified the spec")
	}
}

func TestConvertDialectRaising(t *testing.T) {
	conv := New()
	vgSpec := `{"$schema": "https://vega.github.io/schema/vega/v5.json", "marks": []}`
	_, err := conv.Convert(context.Background(), []byte(vgSpec), chart.DialectVega, chart.FormatVegaLite)
	if !errors.Is(err, errors.ErrCodeUnsupportedFormat) {
		t.Fatalf("expected UNSUPPORTED_FORMAT, got %v", err)
	}
}

func TestConvertInvalidInputs(t *testing.T) {
	conv := New()

	if _, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT, got %v", err)
	}
	if _, err := conv.Convert(context.Background(), []byte(vlSpec), "d3", chart.FormatSVG); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("expected INVALID_MODE, got %v", err)
	}
}

func TestConvertLower(t *testing.T) {
	conv, calls := stubToolchain(t, "success")

	out, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatVega)
	if err != nil {
		t.Fatalf("Convert error = %v", err)
	}
	if !strings.Contains(string(out), "/vega/v5.json") {
		t.Errorf("lowered spec = %s, want vega schema", out)
	}
	if len(*calls) != 1 || (*calls)[0][0] != "vl2vg" {
		t.Errorf("calls = %v, want single vl2vg invocation", *calls)
	}
}

func TestConvertSVGChain(t *testing.T) {
	conv, calls := stubToolchain(t, "success")

	out, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatSVG)
	if err != nil {
		t.Fatalf("Convert error = %v", err)
	}
	if !strings.HasPrefix(string(out), "<svg") {
		t.Errorf("svg output = %q, want <svg prefix", out)
	}

	// vega-lite lowers first, then renders; strictly this order.
	if len(*calls) != 2 {
		t.Fatalf("calls = %v, want vl2vg then vg2svg", *calls)
	}
	if (*calls)[0][0] != "vl2vg" || (*calls)[1][0] != "vg2svg" {
		t.Errorf("stage order = [%s %s], want [vl2vg vg2svg]", (*calls)[0][0], (*calls)[1][0])
	}
}

func TestConvertSVGFromVega(t *testing.T) {
	conv, calls := stubToolchain(t, "success")
	vgSpec := `{"$schema": "https://vega.github.io/schema/vega/v5.json", "marks": []}`

	if _, err := conv.Convert(context.Background(), []byte(vgSpec), chart.DialectVega, chart.FormatSVG); err != nil {
		t.Fatalf("Convert error = %v", err)
	}
	// A vega source skips the lowering stage.
	if len(*calls) != 1 || (*calls)[0][0] != "vg2svg" {
		t.Errorf("calls = %v, want single vg2svg invocation", *calls)
	}
}

func TestConvertPNG(t *testing.T) {
	conv, calls := stubToolchain(t, "success")

	out, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatPNG)
	if err != nil {
		t.Fatalf("Convert error = %v", err)
	}
	if !bytes.HasPrefix(out, []byte{0x89, 'P', 'N', 'G'}) {
		t.Errorf("png output missing magic bytes: %v", out[:min(len(out), 8)])
	}

	if len(*calls) != 3 {
		t.Fatalf("calls = %v, want vl2vg, vg2svg, rsvg-convert", *calls)
	}
	last := (*calls)[2]
	if last[0] != "rsvg-convert" {
		t.Errorf("final stage = %s, want rsvg-convert", last[0])
	}
	joined := strings.Join(last, " ")
	if !strings.Contains(joined, "-f png") || !strings.Contains(joined, "-z") {
		t.Errorf("rsvg args = %v, want -f png and -z scale", last)
	}
}

func TestConvertPDF(t *testing.T) {
	conv, _ := stubToolchain(t, "success")

	out, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatPDF)
	if err != nil {
		t.Fatalf("Convert error = %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("pdf output missing %%PDF header: %q", out[:min(len(out), 8)])
	}
}

func TestConvertFailureSurfacesStderr(t *testing.T) {
	conv, _ := stubToolchain(t, "fail")
	var diag bytes.Buffer
	conv.diag = &diag

	_, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatSVG)
	if !errors.Is(err, errors.ErrCodeConversionFailed) {
		t.Fatalf("expected CONVERSION_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "renderer exploded") {
		t.Errorf("error %q does not carry stderr text", err)
	}
	if !strings.Contains(err.Error(), "vl2vg") {
		t.Errorf("error %q does not name the command", err)
	}
	if !strings.Contains(diag.String(), "renderer exploded") {
		t.Errorf("diagnostics %q missing relayed stderr", diag.String())
	}
}

func TestConvertRasterFailureRemovesTempFile(t *testing.T) {
	conv, calls := stubToolchain(t, "fail-raster")
	var diag bytes.Buffer
	conv.diag = &diag

	_, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatPNG)
	if !errors.Is(err, errors.ErrCodeConversionFailed) {
		t.Fatalf("expected CONVERSION_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "rasterizer exploded") {
		t.Errorf("error %q does not carry stderr text", err)
	}

	// The earlier stages ran, so the raster stage had a real temp file open
	// when it failed; that file must not outlive the conversion.
	if len(*calls) != 3 || (*calls)[2][0] != "rsvg-convert" {
		t.Fatalf("calls = %v, want chain ending in rsvg-convert", *calls)
	}
	entries, readErr := os.ReadDir(conv.tempDir)
	if readErr != nil {
		t.Fatalf("read temp dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("temp files left behind after raster failure: %v", entries)
	}
}

func TestConvertWarningsRelayedOnSuccess(t *testing.T) {
	conv, _ := stubToolchain(t, "warn-success")
	var diag bytes.Buffer
	conv.diag = &diag

	if _, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatVega); err != nil {
		t.Fatalf("Convert error = %v", err)
	}
	if !strings.Contains(diag.String(), "deprecated encoding channel") {
		t.Errorf("diagnostics %q missing warning from successful stage", diag.String())
	}
}

func TestConvertHTML(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		t.Fatal("html templating must not spawn a process")
		return nil
	}
	t.Cleanup(func() { commandContext = original })

	conv := New()
	out, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatHTML)
	if err != nil {
		t.Fatalf("Convert error = %v", err)
	}

	html := string(out)
	if !strings.HasPrefix(html, "<!DOCTYPE html>") {
		t.Errorf("html output missing doctype")
	}
	if !strings.Contains(html, `"mark":"bar"`) {
		t.Errorf("html output does not embed the spec JSON")
	}
	if !strings.Contains(html, "vega-embed@") {
		t.Errorf("html output does not reference vega-embed")
	}
	if !strings.Contains(html, `"mode": "vega-lite"`) {
		t.Errorf("html output does not carry the dialect mode")
	}
}

func TestConvertConcurrent(t *testing.T) {
	conv, _ := stubToolchain(t, "success")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := conv.Convert(context.Background(), []byte(vlSpec), chart.DialectVegaLite, chart.FormatPNG)
			if err != nil {
				t.Errorf("Convert error = %v", err)
				return
			}
			if !bytes.HasPrefix(out, []byte{0x89, 'P', 'N', 'G'}) {
				t.Errorf("concurrent conversion produced bad png")
			}
		}()
	}
	wg.Wait()
}

func TestEnabledFalseWithoutToolchain(t *testing.T) {
	// An empty bin dir and a PATH without the renderers means disabled.
	t.Setenv("PATH", t.TempDir())
	conv := New(WithBinDir(t.TempDir()))
	if conv.Enabled() {
		t.Error("Enabled() = true without any renderer binaries")
	}
}

func TestEnabledTrueWithStubs(t *testing.T) {
	binDir := t.TempDir()
	for _, tool := range []string{"vl2vg", "vg2svg", "rsvg-convert"} {
		if err := os.WriteFile(filepath.Join(binDir, tool), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}
	conv := New(WithBinDir(binDir))
	if !conv.Enabled() {
		t.Error("Enabled() = false with full stub toolchain")
	}
}

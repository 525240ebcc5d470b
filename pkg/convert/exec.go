package convert

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vegakit/vegasave/pkg/errors"
	"github.com/vegakit/vegasave/pkg/fsutil"
)

var commandContext = exec.CommandContext

// run executes one external stage: input bytes on stdin, stdout captured as
// the stage's artifact. Stdout and stderr are drained concurrently with the
// process (exec.Cmd copies each through its own pipe), so neither channel can
// back up and stall the renderer. Stderr is relayed to the diagnostic writer
// on success and failure alike.
func (c *Converter) run(ctx context.Context, tool string, args []string, input []byte) ([]byte, error) {
	binary, err := c.resolve(tool)
	if err != nil {
		return nil, err
	}

	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if stderr.Len() > 0 && c.diag != nil {
		_, _ = c.diag.Write(stderr.Bytes())
	}

	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if stderrors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, errors.Wrap(errors.ErrCodeConversionFailed, runErr,
			"%s exited with status %d: %s",
			strings.Join(append([]string{tool}, args...), " "),
			exitCode, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// rasterize converts SVG markup to png or pdf with rsvg-convert. The output
// goes through a scoped temp file rather than stdout; the file is removed on
// every exit path, and a removal failure never masks the conversion error.
func (c *Converter) rasterize(ctx context.Context, svg []byte, format string) ([]byte, error) {
	out, err := fsutil.NewTempFile(c.tempDir, "."+format)
	if err != nil {
		return nil, err
	}
	defer out.Remove()

	args := []string{"-f", format, "-o", out.Path()}
	if format == "png" {
		args = append(args, "-z", fmt.Sprintf("%.2f", c.scale))
	}

	c.logger.Debug("rasterizing svg", "tool", toolRSVG, "format", format)
	if _, err := c.run(ctx, toolRSVG, args, svg); err != nil {
		return nil, err
	}

	data, err := out.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversionFailed, err,
			"read %s output", format)
	}
	return data, nil
}

// resolve locates a renderer binary: the configured bin dir wins, then the
// PATH, then the .bin directory of a local npm installation (where the
// vega-lite and vega-cli packages place their executables).
func (c *Converter) resolve(tool string) (string, error) {
	if c.binDir != "" {
		path := filepath.Join(c.binDir, tool)
		if _, err := exec.LookPath(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath(tool); err == nil {
		return path, nil
	}

	if root := c.npmRoot(); root != "" {
		path := filepath.Join(root, ".bin", tool)
		if _, err := exec.LookPath(path); err == nil {
			return path, nil
		}
	}

	return "", errors.New(errors.ErrCodeRendererMissing,
		"%s not found; install the vega-lite and vega-cli npm packages and librsvg", tool)
}

// npmRoot returns the local node_modules directory, or "" when npm is not
// installed or has no local root.
func (c *Converter) npmRoot() string {
	npm, err := exec.LookPath("npm")
	if err != nil {
		return ""
	}
	out, err := exec.Command(npm, "root").Output() //nolint:gosec
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

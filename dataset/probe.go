package dataset

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"strings"
)

// Locator resolves a named corpus resource to a local file, downloading it if
// needed.
type Locator interface {
	Locate(ctx context.Context, resource string) (string, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, resource string) (string, error)

// Locate calls f.
func (f LocatorFunc) Locate(ctx context.Context, resource string) (string, error) {
	return f(ctx, resource)
}

// Prober tests whether a converted artifact already exists.
type Prober interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// FileProber stats the local filesystem.
type FileProber struct{}

// Exists reports whether path is a regular file.
func (FileProber) Exists(_ context.Context, path string) (bool, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

// CommandRunner runs a shell command on the host that holds the corpus.
type CommandRunner interface {
	Run(ctx context.Context, cmd string) (exitCode int, output string, err error)
}

// CommandProber probes with `test -f <path>` through a CommandRunner. A
// non-zero exit code means the file is absent.
type CommandProber struct {
	Runner CommandRunner
}

// Exists runs the probe command.
func (p CommandProber) Exists(ctx context.Context, path string) (bool, error) {
	code, _, err := p.Runner.Run(ctx, "test -f "+shellQuote(path))
	if err != nil {
		return false, err
	}
	return code == 0, nil
}

// LocalRunner runs commands through sh -c on this machine.
type LocalRunner struct{}

// Run executes cmd and returns its exit code and combined output. A non-zero
// exit is not an error.
func (LocalRunner) Run(ctx context.Context, cmd string) (int, string, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", cmd).CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), string(out), nil
	}
	if err != nil {
		return -1, string(out), err
	}
	return 0, string(out), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

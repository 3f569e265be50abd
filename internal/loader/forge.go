package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/mixlauncher/internal/ctxlog"
	"github.com/handiism/mixlauncher/internal/http"
	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/model"
)

// DefaultForgeTimeout bounds the installer subprocess.
const DefaultForgeTimeout = 5 * time.Minute

// SubprocessError reports an installer process that failed or exited
// with a non-zero code.
type SubprocessError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SubprocessError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if e.Err != nil {
		msg = fmt.Sprintf("%s failed: %v", e.Command, e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

func (e *SubprocessError) Unwrap() error { return e.Err }

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// CommandRunner runs an external program in dir and reports its stderr and
// exit code. A non-zero exit is not an error.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stderr string, exitCode int, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, int, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return stderr.String(), -1, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stderr.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return stderr.String(), -1, err
	}
	return stderr.String(), 0, nil
}

// ForgeOptions configures the Forge installer.
type ForgeOptions struct {
	PromotionsURL string
	MavenURL      string
	JavaPath      string
	Timeout       time.Duration
}

// Forge installs Forge by running its official installer jar.
type Forge struct {
	opts   ForgeOptions
	client *http.Client
	layout *layout.Layout
	runner CommandRunner
}

// NewForge creates the Forge installer. A nil runner uses ExecRunner.
func NewForge(opts ForgeOptions, client *http.Client, l *layout.Layout, runner CommandRunner) *Forge {
	opts.MavenURL = strings.TrimRight(opts.MavenURL, "/")
	if opts.JavaPath == "" {
		opts.JavaPath = "java"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultForgeTimeout
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Forge{opts: opts, client: client, layout: l, runner: runner}
}

// Kind implements Installer.
func (f *Forge) Kind() model.LoaderKind {
	return model.LoaderForge
}

// Install implements Installer.
func (f *Forge) Install(ctx context.Context, gameVersion string) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("loader", model.LoaderForge, "game_version", gameVersion)
	result := Result{Loader: model.LoaderForge}

	forgeVersion, err := f.promotedVersion(ctx, gameVersion)
	if err != nil {
		return result, err
	}

	full := gameVersion + "-" + forgeVersion
	installerURL := fmt.Sprintf("%s/net/minecraftforge/forge/%s/forge-%s-installer.jar", f.opts.MavenURL, full, full)
	jar := filepath.Join(f.layout.Root, "forge-installer.jar")

	if err := os.MkdirAll(f.layout.Root, 0755); err != nil {
		return result, err
	}
	lastPercent := -1
	_, err = f.client.DownloadFile(ctx, installerURL, jar, func(written, total int64) {
		if total <= 0 {
			return
		}
		if p := int(written * 100 / total); p/25 != lastPercent/25 {
			lastPercent = p
			logger.Debug("downloading forge installer", "percent", p)
		}
	})
	if err != nil {
		return result, fmt.Errorf("download forge installer: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	logger.Info("running forge installer", "forge_version", forgeVersion)
	stderr, code, err := f.runner.Run(runCtx, f.layout.Root, f.opts.JavaPath, "-jar", jar, "--installClient", f.layout.Root)
	if err != nil || code != 0 {
		return result, &SubprocessError{Command: "forge installer", ExitCode: code, Stderr: stderr, Err: err}
	}

	os.Remove(jar)
	result.VersionID = gameVersion + "-forge-" + forgeVersion
	result.OK = true
	return result, nil
}

func (f *Forge) promotedVersion(ctx context.Context, gameVersion string) (string, error) {
	var promotions struct {
		Promos map[string]string `json:"promos"`
	}
	if err := f.client.GetJSON(ctx, f.opts.PromotionsURL, &promotions); err != nil {
		return "", fmt.Errorf("fetch forge promotions: %w", err)
	}
	if v := promotions.Promos[gameVersion+"-recommended"]; v != "" {
		return v, nil
	}
	if v := promotions.Promos[gameVersion+"-latest"]; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: forge %s", ErrNoLoaderVersion, gameVersion)
}

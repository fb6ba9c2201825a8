package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// NativeConfig describes where the helper lives and how to compile it.
// Relative paths resolve against Workdir, which is also the compiler's
// working directory.
type NativeConfig struct {
	Source    string   // file or directory the helper is built from
	Deps      []string // other files or directories compiled into the helper
	Binary    string   // build artifact that gets executed
	Compiler  string   // compiler program
	BuildArgs []string // compiler arguments; {src} and {out} are substituted
	Workdir   string
}

func DefaultNativeConfig() NativeConfig {
	return NativeConfig{
		Source:    "./cmd/speakset-native",
		Deps:      []string{"./internal/idgen", "./internal/oracle", "go.mod"},
		Binary:    "bin/speakset-native",
		Compiler:  "go",
		BuildArgs: []string{"build", "-trimpath", "-ldflags=-s", "-o", "{out}", "{src}"},
		Workdir:   ".",
	}
}

// Native is the Oracle backed by the helper executable. Every Generate call
// checks the artifact against its source, rebuilds it when it is missing or
// stale, and then runs it once.
//
// The freshness check is not serialized: concurrent callers that all see a
// stale artifact each rebuild it. Builds write to a temporary file that is
// renamed over the artifact, so a running helper is never half-written.
type Native struct {
	cfg NativeConfig

	// OnBuild, when set, is called after every compile attempt.
	OnBuild func(err error)
}

func NewNative(cfg NativeConfig) *Native {
	def := DefaultNativeConfig()
	if cfg.Source == "" {
		cfg.Source = def.Source
		if cfg.Deps == nil {
			cfg.Deps = def.Deps
		}
	}
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.Compiler == "" {
		cfg.Compiler = def.Compiler
	}
	if len(cfg.BuildArgs) == 0 {
		cfg.BuildArgs = def.BuildArgs
	}
	if cfg.Workdir == "" {
		cfg.Workdir = def.Workdir
	}
	return &Native{cfg: cfg}
}

// BinaryPath is the absolute path of the artifact.
func (n *Native) BinaryPath() string {
	return n.resolve(n.cfg.Binary)
}

func (n *Native) resolve(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(n.cfg.Workdir, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Stale reports whether the artifact is missing or strictly older than the
// newest file under the source path and its dependencies.
func (n *Native) Stale() (bool, error) {
	var srcMod time.Time
	for _, p := range append([]string{n.cfg.Source}, n.cfg.Deps...) {
		mod, err := newestModTime(n.resolve(p))
		if err != nil {
			return false, fmt.Errorf("stat helper source: %w", err)
		}
		if mod.After(srcMod) {
			srcMod = mod
		}
	}
	info, err := os.Stat(n.BinaryPath())
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat helper binary: %w", err)
	}
	return info.ModTime().Before(srcMod), nil
}

// EnsureReady rebuilds the artifact when it is missing or stale and blocks
// until the build finishes.
func (n *Native) EnsureReady(ctx context.Context) error {
	stale, err := n.Stale()
	if err != nil {
		return err
	}
	if !stale {
		return nil
	}
	err = n.build(ctx)
	if n.OnBuild != nil {
		n.OnBuild(err)
	}
	return err
}

func (n *Native) build(ctx context.Context) error {
	bin := n.BinaryPath()
	if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
		return fmt.Errorf("create helper output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(bin), "."+filepath.Base(bin)+".build-*")
	if err != nil {
		return fmt.Errorf("create helper temp file: %w", err)
	}
	// only the unique name is needed; the compiler creates the file
	out := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(out)
	defer os.Remove(out)

	args := make([]string, len(n.cfg.BuildArgs))
	for i, a := range n.cfg.BuildArgs {
		a = strings.ReplaceAll(a, "{src}", n.cfg.Source)
		args[i] = strings.ReplaceAll(a, "{out}", out)
	}

	start := time.Now()
	slog.InfoContext(ctx, "building native helper", "source", n.cfg.Source, "binary", bin)

	cmd := exec.CommandContext(ctx, n.cfg.Compiler, args...)
	cmd.Dir = n.cfg.Workdir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &BuildError{
			Command: append([]string{n.cfg.Compiler}, args...),
			Output:  string(output),
			Err:     err,
		}
	}

	if err := os.Chmod(out, 0o755); err != nil {
		return fmt.Errorf("chmod helper: %w", err)
	}
	if err := os.Rename(out, bin); err != nil {
		return fmt.Errorf("install helper: %w", err)
	}

	slog.InfoContext(ctx, "native helper ready", "binary", bin, "duration", time.Since(start))
	return nil
}

// Generate runs the helper with kind and args as positional arguments and
// returns its standard output without trailing whitespace.
func (n *Native) Generate(ctx context.Context, kind Kind, args ...string) (string, error) {
	if err := n.EnsureReady(ctx); err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, n.BinaryPath(), append([]string{string(kind)}, args...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &InvokeError{Kind: kind, Stderr: stderr.String(), Err: err}
	}

	id := strings.TrimRightFunc(stdout.String(), unicode.IsSpace)
	if id == "" {
		return "", fmt.Errorf("%s: %w", kind, ErrEmptyOutput)
	}
	return id, nil
}

func newestModTime(root string) (time.Time, error) {
	info, err := os.Stat(root)
	if err != nil {
		return time.Time{}, err
	}
	if !info.IsDir() {
		return info.ModTime(), nil
	}

	var newest time.Time
	err = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if fi.ModTime().After(newest) {
			newest = fi.ModTime()
		}
		return nil
	})
	return newest, err
}

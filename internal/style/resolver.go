// Package style turns the configured stylesheet into CSS, compiling SCSS with
// libsass when needed, and manages the temporary CSS file some layouts link to.
package style

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/golibsass/libsass"
	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/logging"
)

// Stylesheet is the resolved CSS of one run.
type Stylesheet struct {
	CSS        string
	SourcePath string
	// TempPath is set once the CSS has been written to disk.
	TempPath string
}

// Resolver compiles or reads stylesheets.
type Resolver struct {
	// OutputStyle is one of nested, expanded, compact or compressed.
	OutputStyle  string
	IncludePaths []string
	Log          *zap.Logger
}

// IsSass reports whether path holds a preprocessor dialect.
func IsSass(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".scss", ".sass":
		return true
	}
	return false
}

// Resolve returns the CSS for path.
func (r *Resolver) Resolve(path string) (*Stylesheet, error) {
	css, err := r.Compile(path)
	if err != nil {
		return nil, err
	}
	return &Stylesheet{CSS: css, SourcePath: path}, nil
}

// Compile reads path and, for SCSS/Sass sources, runs it through libsass with
// the file's own directory first on the include path. path may also be a
// file:// URL.
func (r *Resolver) Compile(path string) (string, error) {
	path, err := LocalPath(path)
	if err != nil {
		return "", err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read stylesheet %s: %w", path, err)
	}
	if !IsSass(path) {
		return string(src), nil
	}

	outputStyle := r.OutputStyle
	if outputStyle == "" {
		outputStyle = "compressed"
	}
	tr, err := libsass.New(libsass.Options{
		OutputStyle:  libsass.ParseOutputStyle(outputStyle),
		IncludePaths: append([]string{filepath.Dir(path)}, r.IncludePaths...),
		SassSyntax:   strings.EqualFold(filepath.Ext(path), ".sass"),
	})
	if err != nil {
		return "", fmt.Errorf("init sass compiler: %w", err)
	}
	res, err := tr.Execute(string(src))
	if err != nil {
		return "", fmt.Errorf("compile stylesheet %s: %w", path, err)
	}
	logging.OrNop(r.Log).Debug("stylesheet compiled",
		zap.String("path", path),
		zap.String("output_style", outputStyle),
		zap.Int("bytes", len(res.CSS)))
	return res.CSS, nil
}

// WriteTemp materialises the CSS at path, creating parent directories, and
// remembers the path for Cleanup.
func (s *Stylesheet) WriteTemp(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create style dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(s.CSS), 0o644); err != nil {
		return fmt.Errorf("write temp css %s: %w", path, err)
	}
	s.TempPath = path
	return nil
}

// Cleanup removes the temporary CSS file, if any. It is safe to call more
// than once.
func (s *Stylesheet) Cleanup() error {
	if s == nil || s.TempPath == "" {
		return nil
	}
	err := os.Remove(s.TempPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove temp css %s: %w", s.TempPath, err)
	}
	s.TempPath = ""
	return nil
}

// FileURL returns an absolute file:// URL for path, the form a page loaded
// from disk needs to reference a local stylesheet.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String(), nil
}

// LocalPath turns a file:// URL into a filesystem path. Anything else is
// returned unchanged.
func LocalPath(ref string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(ref), "file://") {
		return ref, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse stylesheet url %s: %w", ref, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("stylesheet url %s is not local", ref)
	}
	return filepath.FromSlash(u.Path), nil
}

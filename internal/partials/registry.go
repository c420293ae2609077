// Package partials discovers template fragments on disk and keeps them in a
// per-run registry keyed by fragment name.
package partials

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/logging"
)

// Options controls how one directory is scanned.
type Options struct {
	Recursive bool
	// Extension keeps only files ending in it (".hbs"). Empty keeps all files.
	Extension string
	// Prefix is prepended to each fragment name.
	Prefix string
}

type fragment struct {
	source string
	path   string
}

// Registry maps fragment names to their source. A name registered twice keeps
// the later content.
type Registry struct {
	log       *zap.Logger
	fragments map[string]fragment
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{log: logging.OrNop(log), fragments: map[string]fragment{}}
}

// Register adds or replaces a fragment. path is only used for diagnostics.
func (r *Registry) Register(name, source, path string) {
	if prev, ok := r.fragments[name]; ok {
		r.log.Warn("partial overwritten",
			zap.String("name", name),
			zap.String("previous", prev.path),
			zap.String("path", path))
	}
	r.fragments[name] = fragment{source: source, path: path}
}

// RegisterDir registers every matching file under dir. Entries are visited in
// lexical order so collisions resolve the same way on every platform.
func (r *Registry) RegisterDir(dir string, opts Options) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read partials dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	n := 0
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if !opts.Recursive {
				continue
			}
			sub, err := r.RegisterDir(p, opts)
			if err != nil {
				return n, err
			}
			n += sub
			continue
		}
		if opts.Extension != "" && filepath.Ext(e.Name()) != opts.Extension {
			continue
		}

		b, err := os.ReadFile(p)
		if err != nil {
			return n, fmt.Errorf("read partial %s: %w", p, err)
		}
		name := opts.Prefix + Name(e.Name())
		r.Register(name, string(b), p)
		r.log.Debug("partial registered", zap.String("name", name), zap.String("path", p))
		n++
	}
	return n, nil
}

// Name derives a fragment name from a file name: "header.hbs" -> "header".
func Name(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Lookup returns the source registered under name.
func (r *Registry) Lookup(name string) (string, bool) {
	f, ok := r.fragments[name]
	return f.source, ok
}

// Path returns the file a fragment was read from.
func (r *Registry) Path(name string) string {
	return r.fragments[name].path
}

func (r *Registry) Len() int { return len(r.fragments) }

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.fragments))
	for name := range r.fragments {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Sources returns a copy of the name to source mapping.
func (r *Registry) Sources() map[string]string {
	out := make(map[string]string, len(r.fragments))
	for name, f := range r.fragments {
		out[name] = f.source
	}
	return out
}

package cmd

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/etpl/lang"
	"github.com/ardnew/etpl/log"
	"github.com/ardnew/etpl/secureid"
	"github.com/ardnew/etpl/snippet"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// Settings are the global flags shared by every command.
type Settings struct {
	// Dev selects development mode: templates are recompiled on every load.
	Dev bool
	// Key is the hex-encoded secureid key. Empty disables the
	// encrypt_number and decrypt_number globals.
	Key string
	// Snippets lists YAML or TOML snippet files, later files overriding
	// earlier ones.
	Snippets []string
	// Path lists directories searched for template arguments not found
	// relative to the working directory.
	Path []string
}

type settingsKey struct{}

// WithSettings returns a new context.Context carrying s.
func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

func settingsFrom(ctx context.Context) Settings {
	s, _ := ctx.Value(settingsKey{}).(Settings)

	return s
}

// codec returns the secureid codec for s.Key, or nil when no key is set.
func (s Settings) codec() (*secureid.Codec, error) {
	if s.Key == "" {
		return nil, nil //nolint:nilnil
	}

	return secureid.FromHex(s.Key)
}

// globals builds the template global table from the key and snippet files.
func (s Settings) globals() (*lang.Globals, error) {
	var (
		cipher   lang.Cipher
		snippets lang.SnippetSource
	)

	c, err := s.codec()
	if err != nil {
		return nil, err
	}

	if c != nil {
		cipher = c
	}

	if len(s.Snippets) > 0 {
		set, err := snippet.LoadAll(uniquePaths(s.Snippets)...)
		if err != nil {
			return nil, err
		}

		snippets = set
	}

	return lang.NewGlobals(cipher, snippets), nil
}

// options returns the engine options selected by s.
func (s Settings) options() ([]lang.Option, error) {
	g, err := s.globals()
	if err != nil {
		return nil, err
	}

	return []lang.Option{
		lang.WithDevelopment(s.Dev),
		lang.WithLogger(log.Default()),
		lang.WithGlobals(g),
	}, nil
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// resolve locates a template argument. Names that exist relative to the
// working directory, absolute names and [stdinSource] are returned as is;
// otherwise each directory of s.Path is tried in order.
func (s Settings) resolve(name string) (string, error) {
	if name == stdinSource || filepath.IsAbs(name) {
		return name, nil
	}

	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	for _, dir := range s.Path {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrReadInput.Wrapf("%s", name).Wrap(fs.ErrNotExist)
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniquePaths drops every path that names a file already listed, comparing
// device and inode so symlinks and relative spellings collapse. Paths that
// cannot be resolved are kept so that loading them reports the error.
func uniquePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[fileKey]struct{}, len(paths))

	for _, path := range paths {
		key, ok := statKey(path)
		if ok {
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		out = append(out, path)
	}

	return out
}

func statKey(path string) (fileKey, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// loadTemplate compiles the template named on the command line. Stdin
// sources are compiled inline and never cached.
func (s Settings) loadTemplate(
	ctx context.Context,
	cache *lang.Cache,
	name string,
	stdin io.Reader,
	opts ...lang.Option,
) (*lang.Template, error) {
	if name == "" || name == stdinSource {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, ErrReadInput.Wrap(err)
		}

		return lang.FromSource(string(b), opts...)
	}

	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	return cache.Load(ctx, path)
}

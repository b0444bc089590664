package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/etpl/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config.yaml"

// defaultDirMode is the default permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// configPath returns the absolute path to a file or directory formed by joining
// the global configuration directory path with the given path elements.
//
// If no elements are given, it is equivalent to calling [pkg.ConfigDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}

// pathEnv names the environment variable holding extra template
// directories, such as ETPL_PATH.
func pathEnv() string { return pkg.EnvPrefix() + "_PATH" }

// searchPath returns the template search directories: dirs from the command
// line, then those listed in the path environment variable. Entries that
// are not directories are dropped.
func searchPath(dirs ...string) []string {
	delim := string(os.PathListSeparator)

	list := mung.Make(
		mung.WithSubjectItems(os.Getenv(pathEnv())),
		mung.WithDelim(delim),
		mung.WithPrefixItems(dirs...),
		mung.WithFilter(isDir),
	).String()

	var out []string

	for _, dir := range strings.Split(list, delim) {
		if dir != "" {
			out = append(out, dir)
		}
	}

	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

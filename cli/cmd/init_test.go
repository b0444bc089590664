package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// initContext parses args against a small flag set and returns a context
// carrying the kong context, with the config path set to confPath.
func initContext(t *testing.T, confPath string, args ...string) context.Context {
	t.Helper()

	var cli struct {
		Dev      bool     `help:"Development mode."`
		Key      string   `help:"Secret key."`
		Path     []string `help:"Search path."`
		LogLevel string   `default:"info" help:"Log level."`
		Output   string   `help:"Unset string."`
		Repeat   int      `default:"1" help:"Count."`
	}

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(t.Context(), ktx)
}

func TestInitRun(t *testing.T) {
	tests := []struct {
		name     string
		force    bool
		existing bool
		wantErr  error
	}{
		{"create_new_config", false, false, nil},
		{"overwrite_existing_with_force", true, true, nil},
		{"fail_without_force", false, true, ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confPath := filepath.Join(t.TempDir(), "config.yaml")

			if tt.existing {
				if err := os.WriteFile(confPath, []byte("existing: content\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			ctx := initContext(t, confPath, "--dev", "--key=00ff", "--path=a", "--path=b")

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() error = %v", err)
			}

			content, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var got yaml.MapSlice
			if err := yaml.Unmarshal(content, &got); err != nil {
				t.Fatalf("generated config is not YAML: %v\n%s", err, content)
			}

			want := []string{"dev", "path", "log-level", "repeat"}
			if len(got) != len(want) {
				t.Fatalf("generated config = %v, want keys %v", got, want)
			}

			for i, item := range got {
				if item.Key != want[i] {
					t.Errorf("key %d = %v, want %s", i, item.Key, want[i])
				}
			}
		})
	}
}

func TestInitWithInvalidPath(t *testing.T) {
	ctx := initContext(t, filepath.Join(t.TempDir(), "missing", "dir", "config.yaml"))

	if err := (&Init{}).Run(ctx); !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Init.Run() error = %v, want %v", err, ErrWriteConfig)
	}
}

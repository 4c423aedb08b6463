package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/imagecodec"
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/storage"
)

const testCollection = "0x231e5BA16e2C9BE8918cf67d477052f3F6C35036"

// writeConfig writes a small config with a file CAS under dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	path := filepath.Join(dir, "config.toml")
	data := "[render]\nwidth = 300\nheight = 100\n\n[storage]\ndir = \"" + filepath.ToSlash(filepath.Join(dir, "cas")) + "\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedCommand(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	tests := []struct {
		token string
		want  string
	}{
		{"1", "3934047154"},
		{"0x2a", "4155991876"},
	}
	for _, tt := range tests {
		out, err := run(t, cfg, "seed", testCollection, tt.token)
		if err != nil {
			t.Fatalf("seed %s: %v", tt.token, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("seed %s output = %q, want %s", tt.token, out, tt.want)
		}
	}

	if _, err := run(t, cfg, "seed", "0x12", "1"); !errors.Is(err, errors.ErrCodeInvalidAddress) {
		t.Errorf("bad address error = %v", err)
	}
}

func TestStylesCommand(t *testing.T) {
	out, err := run(t, writeConfig(t, t.TempDir()), "styles")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"stripes", "rings", "shards"} {
		if !strings.Contains(out, name) {
			t.Errorf("styles output missing %s: %q", name, out)
		}
	}

	if _, err := run(t, writeConfig(t, t.TempDir()), "styles", "--network", "99"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown network error = %v", err)
	}
}

func TestRenderAndVerify(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	png := filepath.Join(dir, "out", "token1.png")

	if _, err := run(t, cfg, "render", "2", "--collection", testCollection, "--token", "1", "--publish", "-o", png); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(png)
	if err != nil {
		t.Fatal(err)
	}
	r, err := imagecodec.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if r.Width != 300 || r.Height != 100 {
		t.Errorf("rendered %dx%d, want 300x100", r.Width, r.Height)
	}
	ref := storage.MustCID(data).String()

	out, err := run(t, cfg, "verify", "--job", "3", "--collection", testCollection, "--token", "1", "--style", "2", "--image", ref)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if !strings.Contains(out, "accepted") {
		t.Errorf("verify output = %q", out)
	}

	_, err = run(t, cfg, "verify", "--job", "4", "--collection", testCollection, "--token", "2", "--style", "2", "--image", ref)
	if !errors.Is(err, errors.ErrCodeImagesDiffer) {
		t.Errorf("mismatched token error = %v, want IMAGES_DIFFER", err)
	}
}

func TestRenderPaletteFrom(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	origin := render.NewRaster(10, 10)
	for i := 0; i < len(origin.Pix); i += 4 {
		c := []byte{0x10, 0x20, 0x30, 255}
		if i >= 280 {
			c = []byte{0xf0, 0xe0, 0xd0, 255}
		}
		copy(origin.Pix[i:], c)
	}
	data, err := imagecodec.Encode(origin)
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "origin.png")
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatal(err)
	}

	extracted := filepath.Join(dir, "extracted.png")
	explicit := filepath.Join(dir, "explicit.png")
	if _, err := run(t, cfg, "render", "3", "--seed", "7", "--palette-from", src, "-o", extracted); err != nil {
		t.Fatalf("render --palette-from: %v", err)
	}
	if _, err := run(t, cfg, "render", "3", "--seed", "7", "--palette", "#102030,#f0e0d0", "-o", explicit); err != nil {
		t.Fatalf("render --palette: %v", err)
	}
	a, _ := os.ReadFile(extracted)
	b, _ := os.ReadFile(explicit)
	if len(a) == 0 || !bytes.Equal(a, b) {
		t.Error("render with the extracted palette differs from the explicit palette")
	}

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing file", []string{"--palette-from", filepath.Join(dir, "absent.png")}, errors.ErrCodeInvalidPath},
		{"not an image", []string{"--palette-from", cfg}, errors.ErrCodeMalformedImage},
		{"zero colors", []string{"--palette-from", src, "--colors", "0"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "3", "--seed", "7"}, tt.args...)
			if _, err := run(t, cfg, args...); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRenderCommand_Invalid(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"style not a number", []string{"render", "x"}, errors.ErrCodeInvalidInput},
		{"unknown style", []string{"render", "9", "-o", filepath.Join(t.TempDir(), "x.png")}, errors.ErrCodeNotFound},
		{"seed too large", []string{"render", "1", "--seed", "4294967296"}, errors.ErrCodeInvalidInput},
		{"bad palette", []string{"render", "1", "--palette", "nope"}, errors.ErrCodeInvalidRequest},
		{"token without collection", []string{"render", "1", "--token", "1"}, errors.ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, cfg, tt.args...); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCachePath(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, writeConfig(t, dir), "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "cache", appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	cacheDir := filepath.Join(dir, "cache", appName)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.json", "b.json"} {
		if err := os.WriteFile(filepath.Join(cacheDir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := run(t, cfg, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cleared 2") {
		t.Errorf("clear output = %q", out)
	}
	entries, _ := os.ReadDir(cacheDir)
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}

	out, _ = run(t, cfg, "cache", "clear")
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("second clear output = %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	t.Setenv("SPLICER_REDIS_PASSWORD", "hunter2")

	out, err := run(t, cfg, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "width = 300") || strings.Contains(out, "hunter2") {
		t.Errorf("config show output = %q", out)
	}

	out, err = run(t, cfg, "config", "env")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "SPLICER_RENDER_WIDTH") {
		t.Errorf("config env output = %q", out)
	}
}

func TestMissingConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := run(t, filepath.Join(t.TempDir(), "absent.toml"), "styles"); !errors.IsInvalidInput(err) {
		t.Errorf("missing config error = %v", err)
	}
}

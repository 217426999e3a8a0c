package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/diff"
	"github.com/vango-dev/docsave/pkg/format"
	"github.com/vango-dev/docsave/pkg/sanitize"
	"github.com/vango-dev/docsave/pkg/snapshot"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Generator != sanitize.DefaultGenerator {
		t.Errorf("Generator = %q", cfg.Generator)
	}
	if cfg.Sanitize.Remove != sanitize.DefaultRemove {
		t.Errorf("Sanitize.Remove = %q", cfg.Sanitize.Remove)
	}
	if cfg.Diff.Tool != diff.DefaultTool {
		t.Errorf("Diff.Tool = %q", cfg.Diff.Tool)
	}
	if cfg.EPubGenerator != snapshot.DefaultEPubGenerator {
		t.Errorf("EPubGenerator = %q", cfg.EPubGenerator)
	}
	if cfg.Publish.Output != DefaultOutput {
		t.Errorf("Publish.Output = %q", cfg.Publish.Output)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestDefaultGeneratorTo(t *testing.T) {
	cfg := New()
	cfg.DefaultGeneratorTo("docsave 1.2.0")
	if cfg.Generator != "docsave 1.2.0" {
		t.Errorf("Generator = %q, want the build generator", cfg.Generator)
	}

	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"generator": "acme 3"}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.DefaultGeneratorTo("docsave 1.2.0")
	if cfg.Generator != "acme 3" {
		t.Errorf("Generator = %q, want the configured one", cfg.Generator)
	}

	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.DefaultGeneratorTo("docsave 1.2.0")
	if cfg.Generator != "docsave 1.2.0" {
		t.Errorf("Generator = %q, want the build generator", cfg.Generator)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if !errors.HasCode(err, "E041") {
		t.Errorf("missing config err = %v, want E041", err)
	}

	configJSON := `{
  "generator": "docsave 2.0",
  "sanitize": {"remove": ".draft"},
  "format": {"indentSize": 4, "noFinalNewline": true},
  "diff": {"previousURI": "https://example.org/old/"},
  "server": {"host": "0.0.0.0", "port": 9090, "shutdownTimeout": "3s"},
  "publish": {"output": "out", "s3": {"bucket": "snaps", "prefix": "p/", "region": "eu-west-1"}}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Generator != "docsave 2.0" {
		t.Errorf("Generator = %q", cfg.Generator)
	}
	if cfg.Sanitize.Remove != ".draft" || cfg.Sanitize.SidebarClass != sanitize.DefaultSidebarClass {
		t.Errorf("Sanitize = %+v", cfg.Sanitize)
	}
	if cfg.Address() != "0.0.0.0:9090" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.ShutdownTimeout() != 3*time.Second {
		t.Errorf("ShutdownTimeout() = %v", cfg.ShutdownTimeout())
	}
	if cfg.Server.BodyLimit != DefaultBodyLimit {
		t.Errorf("BodyLimit = %d", cfg.Server.BodyLimit)
	}
	if !cfg.UsesS3() || cfg.Publish.S3.Region != "eu-west-1" {
		t.Errorf("Publish.S3 = %+v", cfg.Publish.S3)
	}
	if cfg.OutputPath() != filepath.Join(tmpDir, "out") {
		t.Errorf("OutputPath() = %q", cfg.OutputPath())
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) || cfg.Dir() != tmpDir {
		t.Errorf("Path() = %q, Dir() = %q", cfg.Path(), cfg.Dir())
	}

	opts := cfg.FormatOptions()
	if opts.IndentSize != 4 || opts.EndWithNewline {
		t.Errorf("FormatOptions() = %+v", opts)
	}
	if len(opts.Inline) != len(format.DefaultOptions().Inline) {
		t.Errorf("Inline defaults not applied")
	}

	snap := cfg.SnapshotOptions()
	if !snap.Diff.Enabled() || snap.Diff.PreviousURI != "https://example.org/old/" {
		t.Errorf("SnapshotOptions().Diff = %+v", snap.Diff)
	}
	if sc := cfg.SanitizeConfig(); sc.Generator != "docsave 2.0" || sc.Remove != ".draft" {
		t.Errorf("SanitizeConfig() = %+v", sc)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(tmpDir)
	if !errors.HasCode(err, "E040") {
		t.Errorf("err = %v, want E040", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		subject string
	}{
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"negative body limit", func(c *Config) { c.Server.BodyLimit = -5 }, "server.bodyLimit"},
		{"bad timeout", func(c *Config) { c.Server.ShutdownTimeout = "soon" }, "server.shutdownTimeout"},
		{"negative indent", func(c *Config) { c.Format.IndentSize = -2 }, "format.indentSize"},
		{"bad selector", func(c *Config) { c.Sanitize.Remove = "p[" }, "sanitize.remove"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			de := errors.FromError(err, "")
			if de == nil || de.Code != "E042" || de.Subject != tt.subject {
				t.Errorf("Validate() = %v, want E042 on %s", err, tt.subject)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Generator = "saved"
	cfg.Diff.PreviousDiffURI = "https://example.org/diffable/"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "}\n") {
		t.Errorf("config file should end with a newline")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Generator != "saved" || loaded.Diff.OldFile() != "https://example.org/diffable/" {
		t.Errorf("reloaded = %+v", loaded)
	}

	loaded.Server.Port = 9999
	if err := loaded.Save(); err != nil {
		t.Fatal(err)
	}
	again, err := LoadFile(path)
	if err != nil || again.Server.Port != 9999 {
		t.Errorf("Save() did not persist: %v, %+v", err, again)
	}

	if err := New().Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := FindProjectRoot(nested); !errors.HasCode(err, "E041") {
		t.Errorf("err = %v, want E041", err)
	}

	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(root) || Exists(nested) {
		t.Errorf("Exists mismatch")
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindProjectRoot = %q, want %q", got, want)
	}
}

func TestLoadFromWorkingDir(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte(`{"server":{"port":7070}}`), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "docs")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := LoadFromWorkingDir()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/mikey-austin/media_share/internal/adapters/output"
	"github.com/mikey-austin/media_share/internal/core"
	contentdirectory "github.com/mikey-austin/media_share/internal/modules/content_directory"
	"github.com/mikey-austin/media_share/internal/msd"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "msd.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestApplyOverrides(t *testing.T) {
	cfg := msd.DefaultConfig()
	cfg.Shares.Folders = []string{"/from/config"}
	applyOverrides(&cfg, options{
		folders:  []string{"/media/a", "/media/b"},
		port:     9000,
		name:     "Living Room",
		host:     "192.168.1.5",
		metrics:  true,
		noSSDP:   true,
		logLevel: "debug",
		logUTC:   true,
	})
	if len(cfg.Shares.Folders) != 2 || cfg.Shares.Folders[0] != "/media/a" {
		t.Fatalf("expected folders replaced, got %v", cfg.Shares.Folders)
	}
	if cfg.Server.Port != 9000 || cfg.Server.Name != "Living Room" || cfg.Server.Host != "192.168.1.5" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if !cfg.Server.Metrics || cfg.SSDP.Enabled {
		t.Fatalf("expected metrics on and ssdp off")
	}
	if cfg.Server.LogLevel != "debug" || !cfg.Server.LogUTC || cfg.Server.LogFormat != "text" {
		t.Fatalf("unexpected log config %+v", cfg.Server)
	}

	cfg = msd.DefaultConfig()
	applyOverrides(&cfg, options{})
	if cfg.Server.Port != 8200 || !cfg.SSDP.Enabled || cfg.Server.Metrics {
		t.Fatalf("empty overrides changed config: %+v", cfg)
	}
}

func TestLocalBaseURL(t *testing.T) {
	cfg := msd.DefaultConfig()
	if got := localBaseURL(cfg); got != "http://127.0.0.1:8200" {
		t.Fatalf("unexpected base url %q", got)
	}
	cfg.Server.Host = "10.0.0.2"
	cfg.Server.Port = 9000
	if got := localBaseURL(cfg); got != "http://10.0.0.2:9000" {
		t.Fatalf("unexpected base url %q", got)
	}
}

func TestParseBrowseFlag(t *testing.T) {
	cases := map[string]contentdirectory.BrowseFlag{
		"":                     contentdirectory.BrowseDirectChildren,
		"children":             contentdirectory.BrowseDirectChildren,
		"Metadata":             contentdirectory.BrowseMetadata,
		"BrowseDirectChildren": contentdirectory.BrowseDirectChildren,
		"BrowseMetadata":       contentdirectory.BrowseMetadata,
	}
	for in, want := range cases {
		got, err := parseBrowseFlag(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := parseBrowseFlag("everything"); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

func TestPrintConfig(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 9100\n[shares]\nfolders = [\"/srv/media\"]\n")
	out, err := execute(t, "--config", path, "--name", "Den", "print-config")
	if err != nil {
		t.Fatalf("print-config: %v", err)
	}
	var cfg msd.Config
	if _, err := toml.Decode(out, &cfg); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if cfg.Server.Port != 9100 || cfg.Server.Name != "Den" || len(cfg.Shares.Folders) != 1 {
		t.Fatalf("unexpected resolved config %+v", cfg)
	}
	if !cfg.SSDP.Enabled || cfg.Thumbnails.Width != 160 {
		t.Fatalf("expected defaults kept, got %+v", cfg)
	}
}

func TestBrowseJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "Movies"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Movies", "a.mkv"), []byte("video"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "photo.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	path := writeConfig(t, "[probe]\nenabled = false\n[browse]\nread_tags = false\n")

	out, err := execute(t, "--config", path, "--folder", dir, "--json", "--log-level", "error", "browse")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	var result output.BrowseOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.ObjectID != "0" || result.TotalMatches != 2 || len(result.Entries) != 2 {
		t.Fatalf("unexpected browse output %+v", result)
	}
	titles := map[string]output.Entry{}
	for _, e := range result.Entries {
		titles[e.Title] = e
	}
	movies, ok := titles["Movies"]
	if !ok || !movies.Container || movies.ChildCount != 1 {
		t.Fatalf("expected Movies container, got %+v", result.Entries)
	}
	photo, ok := titles["photo"]
	if !ok || photo.Container || photo.URL != "http://127.0.0.1:8200/photo.jpg" {
		t.Fatalf("expected photo item, got %+v", result.Entries)
	}

	out, err = execute(t, "--config", path, "--folder", dir, "--json", "--log-level", "error", "browse", "--flag", "metadata", "Movies/a.mkv")
	if err != nil {
		t.Fatalf("browse metadata: %v", err)
	}
	result = output.BrowseOutput{}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(result.Entries) != 1 || result.Entries[0].ParentID != "Movies" || result.Entries[0].Size != 5 {
		t.Fatalf("unexpected metadata output %+v", result)
	}
}

func TestUsageErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.toml")
	if _, err := execute(t, "--config", missing, "print-config"); core.ExitCode(err) != core.ExitUsage {
		t.Fatalf("expected usage exit for missing config, got %v", err)
	}

	path := writeConfig(t, "")
	if _, err := execute(t, "--config", path, "browse", "--flag", "everything"); core.ExitCode(err) != core.ExitUsage {
		t.Fatalf("expected usage exit for bad browse flag, got %v", err)
	}
	if _, err := execute(t, "--config", path, "--bogus"); core.ExitCode(err) != core.ExitUsage {
		t.Fatalf("expected usage exit for unknown flag, got %v", err)
	}
}

func TestBrowseWithoutFolders(t *testing.T) {
	path := writeConfig(t, "")
	_, err := execute(t, "--config", path, "--folder", filepath.Join(t.TempDir(), "nope"), "browse")
	if core.ExitCode(err) != core.ExitNoFolders {
		t.Fatalf("expected no-folders exit, got %v", err)
	}
}

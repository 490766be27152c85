package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"podenrich/internal/config"
	"podenrich/internal/ledger"
	"podenrich/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Warehouse: sqlite table podcast_episodes")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[warehouse]\nkind = \"oracle\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestStatusListsLedger(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No episodes recorded")

	store, err := ledger.Open(env.cfg.LedgerPath())
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Begin(ctx, "https://cdn.example.com/1.mp3", "Data Strategy with Jane Doe", "run-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.MarkWritten(ctx, "https://cdn.example.com/1.mp3", "3.3.2.1. dbt"); err != nil {
		t.Fatalf("mark written: %v", err)
	}
	if _, err := store.Begin(ctx, "https://cdn.example.com/2.mp3", "Weekly Roundup", "run-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.Fail(ctx, "https://cdn.example.com/2.mp3", ledger.StatusFailed, "capability", "Failed after 5 attempts"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	store.Close()

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Data Strategy with Jane Doe")
	requireContains(t, out, "capability: Failed after 5 attempts")
	requireContains(t, out, "Totals: written=1 failed=1")

	out, _, err = runCLI(t, []string{"status", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("status --status failed: %v", err)
	}
	if strings.Contains(out, "Data Strategy with Jane Doe") {
		t.Fatalf("filter leaked written entry:\n%s", out)
	}

	if _, _, err := runCLI(t, []string{"status", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestRunRequiresFeed(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithFeedURL(""))
	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no feed URL") {
		t.Fatalf("expected missing feed error, got %v", err)
	}
}

func TestRunRefusesWhenLockHeld(t *testing.T) {
	env := setupCLITestEnv(t)
	lock := flock.New(env.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("take lock: %v", err)
	}
	defer lock.Unlock()

	_, _, err = runCLI(t, []string{"run", "--max", "1"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "another podenrich run") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestRunRejectsNegativeMax(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--max", "-1"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--max") {
		t.Fatalf("expected --max error, got %v", err)
	}
}

func TestRunEmptyFeedStillReportsCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>Show</title>
<item><title>Announcement</title><link>https://example.com/a</link></item>
</channel></rss>`))
	}))
	defer server.Close()

	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries(), testsupport.WithFeedURL(server.URL))
	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Processed 0 episodes")
	requireContains(t, out, "Rows in podcast_episodes: 0")
	if strings.Contains(strings.ToLower(out), "primary tag") {
		t.Fatalf("expected no results table for an empty run:\n%s", out)
	}
}

func TestCheckSkippingLLM(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	out, _, err := runCLI(t, []string{"check", "--skip-llm"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Stage summarize")
	requireContains(t, out, "All checks passed")
}

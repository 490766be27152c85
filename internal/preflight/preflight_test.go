package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"podenrich/internal/config"
	"podenrich/internal/testsupport"
	"podenrich/internal/warehouse"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	statuses := CheckBinaries(SystemRequirements(cfg))
	if len(statuses) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe, got %d", len(statuses))
	}
	for _, st := range statuses {
		if !st.Available {
			t.Fatalf("%s not found: %s", st.Name, st.Detail)
		}
	}

	missing := CheckBinaries([]Requirement{{Name: "nothing", Command: "podenrich-no-such-binary"}, {Name: "blank"}})
	if missing[0].Available || missing[1].Available {
		t.Fatalf("expected both unavailable: %+v", missing)
	}
	if missing[1].Detail != "command not configured" {
		t.Fatalf("detail = %q", missing[1].Detail)
	}
}

func TestSystemRequirementsAddsUVXForWhisperX(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Provider = config.ProviderWhisperX
	reqs := SystemRequirements(&cfg)
	if len(reqs) != 3 || reqs[2].Command != "uvx" {
		t.Fatalf("unexpected requirements: %+v", reqs)
	}
}

func TestCheckLLM_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"OK"}}]}`))
	}))
	defer srv.Close()

	cfg := config.LLMConfig{Provider: config.ProviderOpenRouter, APIKey: "good-key", BaseURL: srv.URL, Model: "m"}
	result := CheckLLM(context.Background(), "LLM", cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckLLM_BadKeySingleAttempt(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.LLMConfig{Provider: config.ProviderOpenRouter, APIKey: "bad", BaseURL: srv.URL, Model: "m"}
	result := CheckLLM(context.Background(), "LLM", cfg)
	if result.Passed {
		t.Fatal("expected failure")
	}
	if hits != 1 {
		t.Fatalf("expected a single attempt, got %d", hits)
	}
}

func TestCheckLLM_MissingKey(t *testing.T) {
	result := CheckLLM(context.Background(), "LLM", config.LLMConfig{Provider: config.ProviderOpenRouter})
	if result.Passed || result.Detail != "API key missing" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckSink(t *testing.T) {
	sink, err := warehouse.OpenSQLite(filepath.Join(t.TempDir(), "w.db"), "episodes")
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	defer sink.Close()

	if result := CheckSink(context.Background(), sink); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckSink(context.Background(), nil); result.Passed {
		t.Fatal("expected failure for nil sink")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil, false); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	results := RunAll(context.Background(), cfg, nil, false)
	// state, scratch, ffmpeg, ffprobe, transcription
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestFailedIgnoresOptional(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Optional: true},
		{Name: "c"},
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "c" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"podenrich/internal/services/llm"
)

// FakeGenerator records requests and answers them from a reply function.
type FakeGenerator struct {
	mu       sync.Mutex
	Reply    func(llm.Request) (string, error)
	Requests []llm.Request
}

// NewFakeGenerator answers each request by system prompt: classification,
// labeling and summary prompts get plausible fixed text.
func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{Reply: DefaultReply}
}

// DefaultReply produces canned output keyed on the system prompt.
func DefaultReply(req llm.Request) (string, error) {
	switch {
	case strings.Contains(req.System, "classification"):
		return "Primary Tag: [3.3.2.1. dbt]\nSecondary Tags: [3.3.1. ETL and Data Pipelines, 2.2.1. Data Quality]", nil
	case strings.Contains(req.System, "labeling"):
		return "Host: " + firstLine(req.User), nil
	default:
		return "Summary: A conversation.\n\nKey Insights:\n1. One\n2. Two\n3. Three", nil
	}
}

func firstLine(value string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(value), "\n")
	return line
}

func (f *FakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	reply := f.Reply
	f.mu.Unlock()
	if reply == nil {
		return "", fmt.Errorf("fake generator: no reply configured")
	}
	return reply(req)
}

// Calls returns the number of requests seen so far.
func (f *FakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// FakeTranscriber returns the base name of each file as its transcript.
type FakeTranscriber struct {
	mu    sync.Mutex
	Text  func(path string) (string, error)
	Paths []string
}

func (f *FakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	f.Paths = append(f.Paths, path)
	text := f.Text
	f.mu.Unlock()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("fake transcriber: %w", err)
	}
	if text != nil {
		return text(path)
	}
	return "words from " + filepath.Base(path), nil
}

// Calls returns the number of files transcribed so far.
func (f *FakeTranscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Paths)
}

package preflight

import (
	"context"

	"podenrich/internal/config"
	"podenrich/internal/warehouse"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the checks a run needs: directories, binaries and the
// speech-to-text settings. The generative endpoint is checked only when
// withLLM is set, since it costs a request. sink may be nil.
func RunAll(ctx context.Context, cfg *config.Config, sink warehouse.Sink, withLLM bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
	}
	results = append(results, CheckSystemDeps(cfg)...)
	results = append(results, CheckTranscription(cfg))
	if withLLM {
		results = append(results, CheckLLM(ctx, "LLM", cfg.GetLLM()))
	}
	if sink != nil {
		results = append(results, CheckSink(ctx, sink))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}

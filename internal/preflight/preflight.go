package preflight

import (
	"context"
	"path/filepath"

	"subvoice/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional failures are reported but do not block a run.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Profile directory", filepath.Dir(cfg.Paths.ProfileStore)),
		CheckProfileStore(cfg.Paths.ProfileStore),
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		detail := status.Detail
		if status.Available {
			detail = status.Command
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   detail,
			Optional: status.Optional,
		})
	}

	results = append(results, CheckRecognition(ctx, cfg))
	if cfg.Transcription.Backend == "openai" {
		results = append(results, CheckOpenAIKey(cfg.Transcription.OpenAIAPIKey))
	}
	if cfg.Translation.Enabled && cfg.Translation.Backend == "llm" {
		// Translation failures degrade to tagged fallbacks.
		check := CheckLLM(ctx, "Translation LLM", cfg.Translation)
		check.Optional = true
		results = append(results, check)
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

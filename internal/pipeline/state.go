package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"subvoice/internal/fileutil"
	"subvoice/internal/services"
	"subvoice/internal/transcript"
)

const (
	stateVersion   = 1
	stateDirName   = "runs"
	latestFileName = "latest.json"
)

// State is the persisted form of a Result.
type State struct {
	Version int `json:"version"`
	Result
}

// StatePath returns where the state of runID lives under workDir.
func StatePath(workDir, runID string) string {
	return filepath.Join(workDir, stateDirName, runID+".json")
}

// LatestStatePath returns the path of the most recently saved state.
func LatestStatePath(workDir string) string {
	return filepath.Join(workDir, stateDirName, latestFileName)
}

// SaveState persists result under workDir and marks it as the latest run.
// It returns the per-run path.
func SaveState(workDir string, result Result) (string, error) {
	if result.RunID == "" {
		return "", errors.New("save state: result has no run id")
	}
	data, err := json.MarshalIndent(State{Version: stateVersion, Result: result}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("save state: encode: %w", err)
	}
	data = append(data, '\n')
	path := StatePath(workDir, result.RunID)
	if err := fileutil.WriteAtomic(path, data); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}
	if err := fileutil.WriteAtomic(LatestStatePath(workDir), data); err != nil {
		return "", fmt.Errorf("save state: latest: %w", err)
	}
	return path, nil
}

// LoadState reads a saved state. The entries are checked before use.
func LoadState(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, services.Wrap(services.ErrNotFound, services.StageCaptions, "load state", path, err)
		}
		return Result{}, fmt.Errorf("load state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, services.StageCaptions, "load state", path, err)
	}
	if state.Version != stateVersion {
		return Result{}, services.Wrap(services.ErrValidation, services.StageCaptions, "load state",
			fmt.Sprintf("%s: unsupported version %d", path, state.Version), nil)
	}
	if err := transcript.Validate(state.Entries); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, services.StageCaptions, "load state", path, err)
	}
	return state.Result, nil
}

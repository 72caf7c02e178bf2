// Package deps checks the external executables subvoice shells out to.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external dependency subvoice relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// OutputRunner runs a command and returns its standard output.
type OutputRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// CheckFFmpegFilter reports whether ffmpeg was built with the named video
// filter. Burn-in needs "subtitles", which only exists in libass builds.
func CheckFFmpegFilter(ctx context.Context, ffmpeg, filter string, run OutputRunner) Status {
	status := Status{
		Name:        "FFmpeg " + filter + " filter",
		Command:     ffmpeg,
		Description: "Required for burning captions into video",
	}
	if run == nil {
		run = defaultOutputRunner
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := run(checkCtx, ffmpeg, "-hide_banner", "-filters")
	if err != nil {
		status.Detail = fmt.Sprintf("list filters: %v", err)
		return status
	}
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		// Lines look like " ... subtitles  V->V  Render text subtitles ..."
		if len(fields) >= 2 && fields[1] == filter {
			status.Available = true
			return status
		}
	}
	status.Detail = fmt.Sprintf("ffmpeg lacks the %s filter (build with libass)", filter)
	return status
}

func defaultOutputRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output() //nolint:gosec
}

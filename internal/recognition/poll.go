package recognition

import (
	"context"
	"time"

	"subvoice/internal/logging"
	"subvoice/internal/services"
)

const (
	defaultPollAttempts = 300
	defaultPollInterval = 2 * time.Second
)

// PollOptions bounds PollUntilTerminal.
type PollOptions struct {
	// MaxAttempts is the exact number of status requests made before giving up.
	MaxAttempts int
	// Interval separates consecutive attempts. No wait follows the last one.
	Interval time.Duration
	// OnStatus, when set, observes every status transition including the
	// local TimedOut.
	OnStatus func(attempt int, status Status)
}

func (o PollOptions) withDefaults() PollOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultPollAttempts
	}
	if o.Interval < 0 {
		o.Interval = 0
	}
	return o
}

// PollUntilTerminal drives the job through Pending and Running until it
// succeeds, fails, or the attempt budget runs out. It returns the decoded
// output on success, ErrJobFailed when the service reports failure or answers
// with a non-retryable error, and ErrJobTimeout after exactly MaxAttempts
// requests without a terminal status.
func (c *Client) PollUntilTerminal(ctx context.Context, jobID string, opts PollOptions) (Output, error) {
	opts = opts.withDefaults()
	logger := c.logger.With(logging.String(logging.FieldJobID, jobID))
	state := StatusPending

	transition := func(attempt int, next Status) {
		if next == state && attempt > 1 {
			return
		}
		state = next
		if opts.OnStatus != nil {
			opts.OnStatus(attempt, next)
		}
		logger.Debug("recognition job status",
			logging.Int("attempt", attempt),
			logging.String("status", string(next)),
		)
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Output{}, services.Wrap(services.ErrCancelled, services.StagePoll, "poll job", jobID, err)
		}

		job, err := c.GetJob(ctx, jobID)
		switch {
		case err != nil && ctx.Err() == nil && isTransient(err):
			logging.WarnWithContext(logger, "recognition poll attempt failed; retrying", "job_poll_transient",
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", opts.MaxAttempts),
				logging.Error(err),
				logging.String(logging.FieldImpact, "attempt counted against poll budget"),
			)
		case err != nil:
			return Output{}, services.Wrap(failureMarker(ctx, services.ErrJobFailed), services.StagePoll, "poll job", jobID, err)
		default:
			transition(attempt, job.Status)
			switch job.Status {
			case StatusSucceeded:
				logger.Info("recognition job succeeded",
					logging.String(logging.FieldEventType, "job_succeeded"),
					logging.Int("attempts", attempt),
					logging.String("output_kind", string(job.Output.Kind)),
					logging.Int("segments", len(job.Output.Segments)),
				)
				return job.Output, nil
			case StatusFailed:
				message := job.Message
				if message == "" {
					message = "service reported failure"
				}
				return Output{}, services.Wrap(services.ErrJobFailed, services.StagePoll, "poll job", jobID+": "+message, nil)
			}
		}

		if attempt == opts.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, opts.Interval); err != nil {
			return Output{}, services.Wrap(services.ErrCancelled, services.StagePoll, "poll job", jobID, err)
		}
	}

	transition(opts.MaxAttempts, StatusTimedOut)
	return Output{}, services.Wrap(services.ErrJobTimeout, services.StagePoll, "poll job", jobID, services.ErrTimeout)
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

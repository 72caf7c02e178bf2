package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"subvoice/internal/language"
	"subvoice/internal/logging"
	"subvoice/internal/services"
	"subvoice/internal/transcript"
)

const (
	DefaultDelay       = 100 * time.Millisecond
	DefaultFallbackTag = "[Translation error]"
)

// Stats counts translation outcomes.
type Stats struct {
	Entries    int `json:"entries"`
	Translated int `json:"translated"`
	Failed     int `json:"failed"`
}

// Stage translates every entry of a transcript.
type Stage struct {
	Translator Translator
	// FallbackTag prefixes the original text of an entry whose translation failed.
	FallbackTag string
	// Delay is the pause after each call when running sequentially, and the
	// minimum spacing between call starts across workers otherwise.
	Delay       time.Duration
	Concurrency int
	Logger      *slog.Logger
}

// Run returns a translated copy of entries in the same order. targetLang may
// be any form language.Normalize accepts. Per-entry failures are recorded as
// fallbacks; only an invalid target or cancellation returns an error.
func (s *Stage) Run(ctx context.Context, entries []transcript.Entry, targetLang string) ([]transcript.Entry, Stats, error) {
	stats := Stats{Entries: len(entries)}
	if s.Translator == nil {
		return nil, stats, services.Wrap(services.ErrConfiguration, services.StageTranslate, "run", "no translator configured", nil)
	}
	target, err := language.Normalize(targetLang)
	if err != nil {
		return nil, stats, services.Wrap(services.ErrValidation, services.StageTranslate, "run", "target language", err)
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "translation"))

	delay := s.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)

	out := transcript.Clone(entries)
	failed := make([]bool, len(out))
	translateOne := func(ctx context.Context, i int) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		text, err := s.Translator.Translate(ctx, out[i].Text, target)
		text = strings.TrimSpace(text)
		if err == nil && text == "" {
			err = fmt.Errorf("empty translation")
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed[i] = true
			out[i] = out[i].WithTranslation(s.fallback(out[i].Text))
			logging.WarnWithContext(logger, "entry translation failed; using fallback", "translation_entry_failed",
				logging.Int("entry", i),
				logging.String(logging.FieldSpeaker, out[i].Speaker),
				logging.Error(services.Wrap(services.ErrTranslationFailed, services.StageTranslate, "translate", target, err)),
				logging.String(logging.FieldImpact, "caption shows original text with error tag"),
			)
			return nil
		}
		out[i] = out[i].WithTranslation(text)
		return nil
	}

	if s.Concurrency < 2 {
		sampler := logging.NewProgressSampler(10)
		for i := range out {
			if err := translateOne(ctx, i); err != nil {
				return nil, stats, services.Wrap(services.ErrCancelled, services.StageTranslate, "run", "", err)
			}
			if i < len(out)-1 {
				if err := pause(ctx, delay); err != nil {
					return nil, stats, services.Wrap(services.ErrCancelled, services.StageTranslate, "run", "", err)
				}
			}
			if sampler.ShouldLog(i+1, len(out)) {
				logger.Info("translation progress", logging.Int("done", i+1), logging.Int("total", len(out)))
			}
		}
	} else {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(s.Concurrency)
		for i := range out {
			group.Go(func() error { return translateOne(groupCtx, i) })
		}
		if err := group.Wait(); err != nil {
			return nil, stats, services.Wrap(services.ErrCancelled, services.StageTranslate, "run", "", err)
		}
	}

	for _, f := range failed {
		if f {
			stats.Failed++
		} else {
			stats.Translated++
		}
	}
	logger.Info("translation complete",
		logging.String(logging.FieldEventType, "translation_complete"),
		logging.String("target", target),
		logging.Int("entries", stats.Entries),
		logging.Int("translated", stats.Translated),
		logging.Int("failed", stats.Failed),
	)
	return out, stats, nil
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Stage) fallback(text string) string {
	tag := strings.TrimSpace(s.FallbackTag)
	if tag == "" {
		tag = DefaultFallbackTag
	}
	return tag + " " + text
}

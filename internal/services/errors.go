package services

import (
	"errors"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrCancelled     = errors.New("cancelled")

	// Stage-fatal markers. Any of these aborts a pipeline run.
	ErrUploadFailed   = errors.New("upload failed")
	ErrJobStartFailed = errors.New("job start failed")
	ErrJobFailed      = errors.New("job failed")
	ErrJobTimeout     = errors.New("job timed out")
	ErrMuxingFailed   = errors.New("muxing failed")

	// Entry-local markers. These never abort a run.
	ErrTranscriptionEmpty = errors.New("transcription empty")
	ErrTranslationFailed  = errors.New("translation failed")
)

// Stage names used in error details and log fields.
const (
	StageExtract    = "extract"
	StageUpload     = "upload"
	StageJobStart   = "job_start"
	StagePoll       = "poll"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageCaptions   = "captions"
	StageMux        = "mux"
	StageEnroll     = "enroll"
)

// StageError carries the failing stage alongside a classification marker.
type StageError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *StageError) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Err != nil {
		return e.Marker.Error() + ": " + detail + ": " + e.Err.Error()
	}
	return e.Marker.Error() + ": " + detail
}

// Unwrap exposes both the marker and the cause to errors.Is / errors.As.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &StageError{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// StageOf returns the outermost stage recorded on err, if any.
func StageOf(err error) (string, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr.Stage != "" {
		return stageErr.Stage, true
	}
	return "", false
}

// IsStageFatal reports whether err must abort the whole run.
func IsStageFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrTranscriptionEmpty), errors.Is(err, ErrTranslationFailed):
		return false
	default:
		return true
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

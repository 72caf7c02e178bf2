package recognition

import (
	"encoding/json"
	"strings"
)

// MediaHandle is the opaque media reference returned by Upload, e.g. media://<uuid>.wav.
type MediaHandle string

// JobKind selects the remote job endpoint.
type JobKind string

const (
	KindIdentify   JobKind = "identify"
	KindDiarize    JobKind = "diarize"
	KindVoiceprint JobKind = "voiceprint"
)

// ParseJobKind maps user input onto a JobKind.
func ParseJobKind(value string) (JobKind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "identify", "identification":
		return KindIdentify, true
	case "diarize", "diarization":
		return KindDiarize, true
	case "voiceprint":
		return KindVoiceprint, true
	default:
		return "", false
	}
}

// Status is a job state. TimedOut is local; the service never reports it.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// Terminal reports whether no further polling can change the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

func parseStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "succeeded", "success", "completed":
		return StatusSucceeded
	case "failed", "error", "canceled", "cancelled":
		return StatusFailed
	case "pending", "created", "queued", "":
		return StatusPending
	default:
		return StatusRunning
	}
}

// Voiceprint pairs an enrolled label with its opaque embedding.
type Voiceprint struct {
	Label     string          `json:"label"`
	Embedding json.RawMessage `json:"voiceprint"`
}

// JobParams carries kind-specific job parameters.
type JobParams struct {
	// Voiceprints are required for identify jobs and ignored otherwise.
	Voiceprints []Voiceprint
	// MatchingThreshold overrides the client default when > 0.
	MatchingThreshold float64
}

// Segment is one time span of recognized speech, in service order.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	// CandidateName is the identified label. Empty outside identify jobs.
	CandidateName string `json:"candidate_name,omitempty"`
	// ClusterID is the anonymous cluster label, e.g. SPEAKER_00.
	ClusterID  string  `json:"cluster_id,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Duration returns End-Start in seconds, or zero for degenerate spans.
func (s Segment) Duration() float64 {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// OutputKind tags the shape of a succeeded job's output.
type OutputKind string

const (
	OutputIdentification OutputKind = "identification"
	OutputDiarization    OutputKind = "diarization"
	OutputVoiceprint     OutputKind = "voiceprint"
	OutputRaw            OutputKind = "raw"
)

// Output is the decoded result of a succeeded job.
type Output struct {
	Kind       OutputKind
	Segments   []Segment
	Voiceprint json.RawMessage
	// Raw holds the untouched output object for every kind.
	Raw json.RawMessage
}

// SpeakerSegments returns the segments of an identification or diarization
// output. Other kinds yield nil.
func (o Output) SpeakerSegments() []Segment {
	switch o.Kind {
	case OutputIdentification, OutputDiarization:
		return o.Segments
	default:
		return nil
	}
}

// Job is a snapshot of a remote job.
type Job struct {
	ID     string
	Status Status
	Output Output
	// Message is the service's failure reason, if any.
	Message string
}

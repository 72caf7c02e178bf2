package recognition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type jobResponse struct {
	JobID  string          `json:"jobId"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

type wireSegment struct {
	Start      float64         `json:"start"`
	End        float64         `json:"end"`
	Match      *string         `json:"match"`
	Label      *string         `json:"label"`
	Speaker    *string         `json:"speaker"`
	Confidence json.RawMessage `json:"confidence"`
}

// decodeOutput picks the first known shape present in a succeeded job's
// output. identification wins over diarization because identify jobs report
// both.
func decodeOutput(raw json.RawMessage) (Output, error) {
	out := Output{Kind: OutputRaw, Raw: raw}
	if isNullJSON(raw) {
		return out, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Non-object outputs are passed through for the caller to handle.
		return out, nil
	}

	if payload, ok := fields["identification"]; ok && !isNullJSON(payload) {
		segments, err := decodeSegments(payload)
		if err != nil {
			return Output{}, fmt.Errorf("decode identification: %w", err)
		}
		out.Kind = OutputIdentification
		out.Segments = segments
		return out, nil
	}
	if payload, ok := fields["diarization"]; ok && !isNullJSON(payload) {
		segments, err := decodeSegments(payload)
		if err != nil {
			return Output{}, fmt.Errorf("decode diarization: %w", err)
		}
		out.Kind = OutputDiarization
		out.Segments = segments
		return out, nil
	}
	if payload, ok := fields["voiceprint"]; ok && !isNullJSON(payload) {
		out.Kind = OutputVoiceprint
		out.Voiceprint = append(json.RawMessage(nil), payload...)
		return out, nil
	}
	return out, nil
}

func decodeSegments(raw json.RawMessage) ([]Segment, error) {
	var wire []wireSegment
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	segments := make([]Segment, 0, len(wire))
	for _, w := range wire {
		seg := Segment{
			Start:         w.Start,
			End:           w.End,
			CandidateName: firstNonEmpty(w.Match, w.Label),
			ClusterID:     firstNonEmpty(w.Speaker),
		}
		seg.Confidence = decodeConfidence(w.Confidence, seg.CandidateName)
		segments = append(segments, seg)
	}
	return segments, nil
}

// decodeConfidence accepts either a bare score or a per-label score map, in
// which case the candidate's own score is used. Missing scores are zero.
func decodeConfidence(raw json.RawMessage, candidate string) float64 {
	if isNullJSON(raw) {
		return 0
	}
	var score float64
	if err := json.Unmarshal(raw, &score); err == nil {
		return clampUnit(score)
	}
	var scores map[string]float64
	if err := json.Unmarshal(raw, &scores); err == nil && candidate != "" {
		return clampUnit(scores[candidate])
	}
	return 0
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

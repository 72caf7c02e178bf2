package captions

import "fmt"

// Validate checks cues for structural problems and returns one message per
// issue; an empty result means the cues are well formed. Cues of different
// entries may touch but never overlap.
func Validate(cues []Cue) []string {
	var issues []string
	if len(cues) == 0 {
		return []string{"empty_subtitle_file"}
	}
	for i, cue := range cues {
		if cue.Index != i+1 {
			issues = append(issues, fmt.Sprintf("index_gap: cue %d has index %d", i+1, cue.Index))
		}
		if cue.End <= cue.Start {
			issues = append(issues, fmt.Sprintf("non_positive_duration: cue %d (%s --> %s)", cue.Index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End)))
		}
		if cue.Text == "" {
			issues = append(issues, fmt.Sprintf("empty_text: cue %d", cue.Index))
		}
		if i > 0 && toMillis(cue.Start) < toMillis(cues[i-1].End) {
			issues = append(issues, fmt.Sprintf("overlap: cue %d starts before cue %d ends", cue.Index, cues[i-1].Index))
		}
	}
	return issues
}

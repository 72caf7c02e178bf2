package recognition

import "strings"

// LabelCodec rewrites enrolled labels that would collide with the service's
// anonymous cluster naming. DisplayLabel recovers the enrolled form unless the
// enrolled name already contained the replacement.
type LabelCodec struct {
	ReservedPrefix string
	Replacement    string
}

// SafeLabel returns label with every occurrence of the reserved prefix replaced.
func (c LabelCodec) SafeLabel(label string) string {
	label = strings.TrimSpace(label)
	if c.ReservedPrefix == "" {
		return label
	}
	return strings.ReplaceAll(label, c.ReservedPrefix, c.Replacement)
}

// DisplayLabel maps a label produced by SafeLabel back to its enrolled form.
// enrolled holds the names known to the profile store; only labels that round
// trip to one of them are rewritten.
func (c LabelCodec) DisplayLabel(label string, enrolled map[string]bool) string {
	if c.Replacement == "" || c.ReservedPrefix == "" || !strings.Contains(label, c.Replacement) {
		return label
	}
	if enrolled[label] {
		return label
	}
	original := strings.ReplaceAll(label, c.Replacement, c.ReservedPrefix)
	if enrolled[original] {
		return original
	}
	return label
}

// Package speaker decides which label a recognized segment is attributed to
// and how that label is presented.
package speaker

import (
	"strings"

	"subvoice/internal/recognition"
)

const (
	DefaultTrustThreshold = 0.90
	DefaultReservedPrefix = "SPEAKER_"
	DefaultUnknownLabel   = "Unknown"
)

// Policy resolves recognition segments to display labels. The zero value is
// usable and applies the defaults above.
type Policy struct {
	// TrustThreshold is the minimum confidence at which a candidate name wins
	// over the anonymous cluster label.
	TrustThreshold float64
	// ReservedPrefix marks anonymous cluster labels. Candidate names that
	// contain it are never trusted.
	ReservedPrefix string
	UnknownLabel   string
	// HiddenLabels lists label fragments whose captions carry no speaker prefix.
	HiddenLabels []string
	// HideClusterPrefix suppresses the caption prefix for anonymous cluster labels.
	HideClusterPrefix bool
}

func (p Policy) threshold() float64 {
	if p.TrustThreshold <= 0 {
		return DefaultTrustThreshold
	}
	return p.TrustThreshold
}

func (p Policy) reservedPrefix() string {
	if p.ReservedPrefix == "" {
		return DefaultReservedPrefix
	}
	return p.ReservedPrefix
}

// Unknown returns the sentinel label used when a segment carries no identity.
func (p Policy) Unknown() string {
	if p.UnknownLabel == "" {
		return DefaultUnknownLabel
	}
	return p.UnknownLabel
}

// Resolve picks the label for seg:
//  1. a trusted candidate name (not reserved, confidence >= threshold)
//  2. otherwise the cluster id verbatim
//  3. otherwise the unknown sentinel
func (p Policy) Resolve(seg recognition.Segment) string {
	candidate := strings.TrimSpace(seg.CandidateName)
	if candidate != "" && !p.IsCluster(candidate) && seg.Confidence >= p.threshold() {
		return candidate
	}
	if cluster := strings.TrimSpace(seg.ClusterID); cluster != "" {
		return cluster
	}
	return p.Unknown()
}

// IsCluster reports whether label follows the anonymous cluster convention.
func (p Policy) IsCluster(label string) bool {
	return strings.Contains(label, p.reservedPrefix())
}

// ShowsPrefix reports whether captions for label get a "label: " prefix.
func (p Policy) ShowsPrefix(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || label == p.Unknown() {
		return false
	}
	for _, hidden := range p.HiddenLabels {
		if hidden != "" && strings.Contains(label, hidden) {
			return false
		}
	}
	if p.HideClusterPrefix && p.IsCluster(label) {
		return false
	}
	return true
}

package speaker

import (
	"testing"

	"subvoice/internal/profiles"
	"subvoice/internal/recognition"
)

func TestResolve(t *testing.T) {
	policy := Policy{}
	tests := []struct {
		name string
		seg  recognition.Segment
		want string
	}{
		{"trusted name", recognition.Segment{CandidateName: "Novak", Confidence: 0.95}, "Novak"},
		{"threshold is inclusive", recognition.Segment{CandidateName: "Novak", Confidence: 0.90, ClusterID: "SPEAKER_01"}, "Novak"},
		{"low confidence falls back to cluster", recognition.Segment{CandidateName: "Novak", Confidence: 0.5, ClusterID: "SPEAKER_01"}, "SPEAKER_01"},
		{"reserved candidate ignored", recognition.Segment{CandidateName: "SPEAKER_03", Confidence: 1, ClusterID: "SPEAKER_02"}, "SPEAKER_02"},
		{"cluster only", recognition.Segment{ClusterID: "SPEAKER_00"}, "SPEAKER_00"},
		{"low confidence without cluster", recognition.Segment{CandidateName: "Novak", Confidence: 0.2}, "Unknown"},
		{"nothing", recognition.Segment{}, "Unknown"},
		{"whitespace only", recognition.Segment{CandidateName: "  ", ClusterID: " "}, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Resolve(tt.seg); got != tt.want {
				t.Fatalf("Resolve(%+v) = %q, want %q", tt.seg, got, tt.want)
			}
		})
	}
}

func TestResolveHonoursConfiguredValues(t *testing.T) {
	policy := Policy{TrustThreshold: 0.5, ReservedPrefix: "CLUSTER-", UnknownLabel: "Inconnu"}
	if got := policy.Resolve(recognition.Segment{CandidateName: "Ana", Confidence: 0.6}); got != "Ana" {
		t.Fatalf("expected configured threshold to trust Ana, got %q", got)
	}
	if got := policy.Resolve(recognition.Segment{CandidateName: "SPEAKER_01", Confidence: 0.99}); got != "SPEAKER_01" {
		t.Fatalf("SPEAKER_ is not reserved under a custom prefix, got %q", got)
	}
	if got := policy.Resolve(recognition.Segment{CandidateName: "CLUSTER-2", Confidence: 0.99, ClusterID: "CLUSTER-2"}); got != "CLUSTER-2" {
		t.Fatalf("unexpected %q", got)
	}
	if got := policy.Resolve(recognition.Segment{}); got != "Inconnu" {
		t.Fatalf("expected configured unknown label, got %q", got)
	}
}

// Every trusted candidate resolves to itself and every untrusted one with a
// cluster resolves to the cluster, across the confidence range.
func TestResolveProperties(t *testing.T) {
	policy := Policy{}
	for i := 0; i <= 100; i++ {
		confidence := float64(i) / 100
		withName := recognition.Segment{CandidateName: "Ana", ClusterID: "SPEAKER_04", Confidence: confidence}
		got := policy.Resolve(withName)
		if confidence >= 0.90 && got != "Ana" {
			t.Fatalf("confidence %.2f: got %q, want Ana", confidence, got)
		}
		if confidence < 0.90 && got != "SPEAKER_04" {
			t.Fatalf("confidence %.2f: got %q, want SPEAKER_04", confidence, got)
		}
	}
}

func TestShowsPrefix(t *testing.T) {
	policy := Policy{HiddenLabels: []string{"Intervenant"}}
	tests := map[string]bool{
		"Novak":          true,
		"SPEAKER_00":     true,
		"Unknown":        false,
		"Intervenant 02": false,
		"":               false,
	}
	for label, want := range tests {
		if got := policy.ShowsPrefix(label); got != want {
			t.Fatalf("ShowsPrefix(%q) = %v, want %v", label, got, want)
		}
	}
	policy.HideClusterPrefix = true
	if policy.ShowsPrefix("SPEAKER_00") {
		t.Fatal("expected cluster prefix hidden")
	}
	if !policy.ShowsPrefix("Novak") {
		t.Fatal("named speakers keep their prefix")
	}
}

type fakeStyles map[string]profiles.Style

func (f fakeStyles) Style(name string) (profiles.Style, bool) {
	style, ok := f[name]
	return style, ok
}

func TestStyleFor(t *testing.T) {
	policy := Policy{}
	styles := fakeStyles{"Novak": {Avatar: "🎾", ColorTag: "orange"}}

	if got := policy.StyleFor("SPEAKER_01", styles); got.Avatar != clusterAvatar || got.DisplayName != "SPEAKER_01" {
		t.Fatalf("unexpected cluster style %+v", got)
	}
	if got := policy.StyleFor("Novak", styles); got.Avatar != "🎾" || got.DisplayName != "Novak" || got.ColorTag != "orange" {
		t.Fatalf("unexpected enrolled style %+v", got)
	}
	if got := policy.StyleFor("Unknown", styles); got.Avatar != unknownAvatar {
		t.Fatalf("unexpected unknown style %+v", got)
	}
	if got := policy.StyleFor("Stranger", nil); got.Avatar != defaultAvatar {
		t.Fatalf("unexpected fallback style %+v", got)
	}
}

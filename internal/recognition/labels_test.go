package recognition

import "testing"

func TestLabelCodec(t *testing.T) {
	codec := LabelCodec{ReservedPrefix: "SPEAKER_", Replacement: "Person_"}
	enrolled := map[string]bool{"SPEAKER_07": true, "Novak": true, "Person_3": true}

	tests := []struct {
		enrolled string
		safe     string
		display  string
	}{
		{"Novak", "Novak", "Novak"},
		{"SPEAKER_07", "Person_07", "SPEAKER_07"},
		{"Person_3", "Person_3", "Person_3"},
	}
	for _, tt := range tests {
		safe := codec.SafeLabel(tt.enrolled)
		if safe != tt.safe {
			t.Fatalf("SafeLabel(%q) = %q, want %q", tt.enrolled, safe, tt.safe)
		}
		if display := codec.DisplayLabel(safe, enrolled); display != tt.display {
			t.Fatalf("DisplayLabel(%q) = %q, want %q", safe, display, tt.display)
		}
	}
	if got := codec.DisplayLabel("Person_99", enrolled); got != "Person_99" {
		t.Fatalf("unknown label must pass through, got %q", got)
	}
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"succeeded": StatusSucceeded,
		"FAILED":    StatusFailed,
		"created":   StatusPending,
		"running":   StatusRunning,
		"":          StatusPending,
		"whatever":  StatusRunning,
	}
	for in, want := range tests {
		if got := parseStatus(in); got != want {
			t.Fatalf("parseStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

package speaker

import "subvoice/internal/profiles"

const (
	clusterAvatar = "🗣️"
	unknownAvatar = "❓"
	defaultAvatar = "👤"
	neutralColor  = "grey"
)

// StyleSource looks up the stored style of an enrolled speaker.
type StyleSource interface {
	Style(name string) (profiles.Style, bool)
}

// StyleFor returns the presentation style for a resolved label. Cluster
// labels and the unknown sentinel get fixed neutral styles; enrolled names use
// their stored style.
func (p Policy) StyleFor(label string, source StyleSource) profiles.Style {
	if p.IsCluster(label) {
		return profiles.Style{Avatar: clusterAvatar, DisplayName: label, ColorTag: neutralColor}
	}
	if source != nil {
		if style, ok := source.Style(label); ok {
			if style.DisplayName == "" {
				style.DisplayName = label
			}
			return style
		}
	}
	if label == p.Unknown() {
		return profiles.Style{Avatar: unknownAvatar, DisplayName: label, ColorTag: neutralColor}
	}
	return profiles.Style{Avatar: defaultAvatar, DisplayName: label, ColorTag: neutralColor}
}

package captions

import (
	"strings"
	"time"
	"unicode/utf8"

	"subvoice/internal/transcript"
)

const (
	DefaultMaxChars = 60
	DefaultGap      = 100 * time.Millisecond
)

// TextField selects which entry text becomes the cue text.
type TextField int

const (
	// Translated uses the translation, falling back to the original text.
	Translated TextField = iota
	Original
)

// Cue is one timed subtitle block. Times are seconds.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Duration returns End-Start in seconds.
func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// Engine builds cues from transcript entries. The zero value uses the defaults.
type Engine struct {
	MaxChars int
	// Gap separates consecutive cues of one entry. Zero means DefaultGap and a
	// negative value disables the gap.
	Gap time.Duration
	// Prefix reports whether a speaker's lines start with "speaker: ". Nil
	// prefixes every non-empty speaker.
	Prefix func(speaker string) bool
}

func (e Engine) maxChars() int {
	if e.MaxChars <= 0 {
		return DefaultMaxChars
	}
	return e.MaxChars
}

func (e Engine) gapMillis() int64 {
	if e.Gap < 0 {
		return 0
	}
	if e.Gap == 0 {
		return DefaultGap.Milliseconds()
	}
	return e.Gap.Milliseconds()
}

// Build converts entries into cues indexed from 1. Entries without text or
// with a non-positive span produce no cues.
func (e Engine) Build(entries []transcript.Entry, field TextField) []Cue {
	var cues []Cue
	for _, entry := range entries {
		text := entry.Text
		if field == Translated {
			text = entry.Translation()
		}
		lines := e.Lines(e.prefixed(entry.Speaker, text))
		if len(lines) == 0 || entry.End <= entry.Start {
			continue
		}
		if slots := max(toMillis(entry.End)-toMillis(entry.Start), 1); int64(len(lines)) > slots {
			lines = mergeLines(lines, int(slots))
		}
		for i, span := range e.spans(entry.Start, entry.End, len(lines)) {
			cues = append(cues, Cue{
				Index: len(cues) + 1,
				Start: span[0],
				End:   span[1],
				Text:  lines[i],
			})
		}
	}
	return cues
}

func (e Engine) prefixed(speaker, text string) string {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		return text
	}
	if e.Prefix != nil && !e.Prefix(speaker) {
		return text
	}
	return speaker + ": " + text
}

// Lines packs the whitespace-separated words of text into lines of at most
// MaxChars characters, counting separating spaces. A word longer than
// MaxChars becomes a line of its own and is never split.
func (e Engine) Lines(text string) []string {
	limit := e.maxChars()
	var lines []string
	var current strings.Builder
	currentLen := 0
	for _, word := range strings.Fields(text) {
		wordLen := utf8.RuneCountInString(word)
		if currentLen > 0 && currentLen+1+wordLen > limit {
			lines = append(lines, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// spans divides [start, end] into n [start, end] pairs. Interior boundaries
// are start + D*i/n in whole milliseconds; the first start and the last end
// are the entry's own values.
func (e Engine) spans(start, end float64, n int) [][2]float64 {
	startMs := toMillis(start)
	total := toMillis(end) - startMs
	gap := e.gapMillis()

	boundary := func(i int) int64 {
		return startMs + total*int64(i)/int64(n)
	}

	out := make([][2]float64, n)
	for i := range n {
		chunkStart := boundary(i)
		if i == n-1 {
			out[i] = [2]float64{fromMillis(chunkStart), end}
			break
		}
		next := boundary(i + 1)
		chunkEnd := next - gap
		if chunkEnd <= chunkStart {
			chunkEnd = min(chunkStart+1, next)
		}
		out[i] = [2]float64{fromMillis(chunkStart), fromMillis(chunkEnd)}
	}
	out[0][0] = start
	return out
}

// mergeLines joins consecutive lines into n groups of near-equal size, for
// entries too short to give every line its own millisecond.
func mergeLines(lines []string, n int) []string {
	out := make([]string, 0, n)
	for j := range n {
		lo, hi := j*len(lines)/n, (j+1)*len(lines)/n
		out = append(out, strings.Join(lines[lo:hi], " "))
	}
	return out
}

func toMillis(seconds float64) int64 {
	if seconds >= 0 {
		return int64(seconds*1000 + 0.5)
	}
	return int64(seconds*1000 - 0.5)
}

func fromMillis(ms int64) float64 {
	return float64(ms) / 1000
}

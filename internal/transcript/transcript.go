// Package transcript defines the speaker-attributed transcript that flows
// from transcription through translation into captions, and its file formats.
package transcript

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"subvoice/internal/fileutil"
)

// Entry is one transcribed speech span. Entries are values: stages return new
// slices and never modify their input.
type Entry struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	// TranslatedText is nil until translation has run. After a failed
	// translation it holds a tagged fallback, never nil.
	TranslatedText *string `json:"text_translated,omitempty"`
}

// Translated reports whether the translation stage has filled this entry.
func (e Entry) Translated() bool {
	return e.TranslatedText != nil
}

// Translation returns the translated text, or the original when absent.
func (e Entry) Translation() string {
	if e.TranslatedText != nil {
		return *e.TranslatedText
	}
	return e.Text
}

// WithTranslation returns a copy of e carrying text as its translation.
func (e Entry) WithTranslation(text string) Entry {
	e.TranslatedText = &text
	return e
}

// Duration returns End-Start in seconds.
func (e Entry) Duration() float64 {
	return e.End - e.Start
}

// Clone returns a deep copy of entries.
func Clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, entry := range entries {
		if entry.TranslatedText != nil {
			entry = entry.WithTranslation(*entry.TranslatedText)
		}
		out[i] = entry
	}
	return out
}

// Speakers returns the distinct speakers in first-appearance order.
func Speakers(entries []Entry) []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, entry := range entries {
		if !seen[entry.Speaker] {
			seen[entry.Speaker] = true
			speakers = append(speakers, entry.Speaker)
		}
	}
	return speakers
}

// Validate checks that every entry has a speaker, text, and a positive span.
func Validate(entries []Entry) error {
	for i, entry := range entries {
		switch {
		case strings.TrimSpace(entry.Speaker) == "":
			return fmt.Errorf("entry %d: empty speaker", i)
		case strings.TrimSpace(entry.Text) == "":
			return fmt.Errorf("entry %d: empty text", i)
		case entry.End <= entry.Start:
			return fmt.Errorf("entry %d: end %.3f not after start %.3f", i, entry.End, entry.Start)
		}
	}
	return nil
}

// ReadJSON decodes a transcript JSON array.
func ReadJSON(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return entries, nil
}

// LoadJSON reads a transcript JSON file.
func LoadJSON(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()
	return ReadJSON(file)
}

// WriteJSON encodes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

// SaveJSON writes entries to path atomically.
func SaveJSON(path string, entries []Entry) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, entries); err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	return fileutil.WriteAtomic(path, buf.Bytes())
}

// WriteCSV writes the exported transcript table. The text_translated column
// is present only when at least one entry has been translated.
func WriteCSV(w io.Writer, entries []Entry) error {
	translated := false
	for _, entry := range entries {
		if entry.Translated() {
			translated = true
			break
		}
	}
	header := []string{"start", "end", "speaker"}
	if translated {
		header = append(header, "text_translated")
	}
	header = append(header, "text")

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		row := []string{formatSeconds(entry.Start), formatSeconds(entry.End), entry.Speaker}
		if translated {
			value := ""
			if entry.TranslatedText != nil {
				value = *entry.TranslatedText
			}
			row = append(row, value)
		}
		row = append(row, entry.Text)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

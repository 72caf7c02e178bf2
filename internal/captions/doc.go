// Package captions re-flows a speaker-labeled transcript into timed subtitle
// cues and reads and writes them as SRT.
//
// Each entry's text, with an optional "speaker: " prefix, is packed greedily
// into lines of at most MaxChars characters. The entry's span is divided
// evenly among its lines; every line but the last ends Gap early, and the last
// ends exactly at the entry end. Boundaries are computed in integer
// milliseconds from the entry start by multiplication, so long entries do not
// accumulate drift and the same input always yields the same cues.
package captions

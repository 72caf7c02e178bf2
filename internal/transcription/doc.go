// Package transcription turns recognized speaker segments into transcript
// entries.
//
// Stage owns the policy: it resolves each segment's speaker, cuts the
// segment's audio, asks a Transcriber for text, and drops entries whose text
// is empty or whose transcription failed. Those drops are entry-local and
// counted in Stats; they never abort the stage. Backends only implement
// Transcriber and are stateless per call.
package transcription

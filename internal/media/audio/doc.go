// Package audio prepares speech audio for the recognition and transcription
// services.
//
// Extractor shells out to ffmpeg to produce mono 16 kHz PCM WAV files from
// arbitrary media. Source loads such a WAV once and cuts time spans from it
// in memory, so per-segment transcription does not re-run ffmpeg.
package audio

// Package whisperx runs WhisperX speech-to-text through uvx.
//
// Each call transcribes one audio file and reads the JSON WhisperX writes
// next to its other outputs. The command runner is injectable so tests can
// assert the argument list without invoking Python.
package whisperx

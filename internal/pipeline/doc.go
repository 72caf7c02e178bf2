// Package pipeline runs a media file through speaker recognition,
// per-segment transcription and translation, and renders the resulting
// transcript as burned-in captions.
//
// Run and Render are separate so a finished analysis can be persisted as a
// State file and re-rendered with different caption settings without
// contacting any remote service again.
package pipeline

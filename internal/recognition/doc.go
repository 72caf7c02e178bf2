// Package recognition talks to the remote speaker-recognition service.
//
// The service is asynchronous: media is uploaded to a presigned location,
// a job is started against the resulting media handle, and the job is polled
// until it reaches a terminal status. Three job kinds share one polling state
// machine:
//
//   - identify: match voice segments against enrolled voiceprints
//   - diarize: cluster voice segments into anonymous speakers
//   - voiceprint: compute an embedding for a short voice sample
//
// PollUntilTerminal is bounded by PollOptions.MaxAttempts. Transient failures
// (connection errors, HTTP 408/429/5xx) are retried and count against that
// budget. The job output is decoded once into Output, a tagged union, so
// callers never probe loosely-typed fields themselves.
//
// Cancelling the context stops polling promptly. The service offers no cancel
// endpoint, so the remote job is left to finish on its own.
package recognition

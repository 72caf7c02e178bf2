// Package profiles persists enrolled speaker profiles.
//
// The store is a single JSON object keyed by display name. Every mutation is a
// read-modify-write of the whole mapping, performed under an advisory file
// lock and committed by renaming a temp file over the store, so readers see
// either the old or the new mapping and never a partial write.
//
// Embeddings are opaque and passed through byte for byte.
package profiles

// Package language normalizes user-supplied language names and codes.
//
// Input may be an ISO 639-1 or 639-2 code, a BCP 47 tag, or an English word
// such as "french". Parsing and display names come from golang.org/x/text so
// regional tags like pt-BR survive normalization.
package language

// Package logging builds the slog loggers used across subvoice.
//
// Console output is one line per record with the component as a prefix; JSON
// output uses "ts" and lowercase levels. WithContext stamps run, stage and job
// identifiers carried by a context, and WarnWithContext guarantees every
// warning says what happened and what it costs the user.
package logging

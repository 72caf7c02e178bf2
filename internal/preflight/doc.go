// Package preflight provides readiness checks for the external services,
// executables and filesystem paths subvoice depends on.
//
// The doctor command runs RunAll and prints the results. Checks for disabled
// features are skipped.
package preflight

// Package translation fills the translated text of transcript entries.
//
// Stage owns the policy: order is preserved, a failed entry gets the
// configured fallback tag followed by its original text, and calls are paced
// by one shared limiter so the aggregate request rate never exceeds one per
// Delay regardless of concurrency. Backends implement Translator.
package translation

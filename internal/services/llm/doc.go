// Package llm is a small OpenRouter-compatible chat client used to translate
// transcript lines.
//
// Every request runs in JSON mode. DecodeJSON tolerates code fences and prose
// around the object, and the response reader accepts tool-call arguments and
// streaming-style delta payloads in place of message content.
//
// Requests are retried on HTTP 408/429/5xx, empty completions and network
// timeouts with exponential backoff (1s doubling to 10s, 5 attempts by
// default). A Retry-After header overrides the backoff. Context cancellation
// stops retrying immediately.
package llm

// Package whisper transcribes audio segments with the OpenAI speech-to-text
// API.
//
// Calls go through the llm Retrier, so rate limits and 5xx responses are
// retried with backoff. A segment that transcribes to nothing yields an empty
// string rather than an error.
package whisper

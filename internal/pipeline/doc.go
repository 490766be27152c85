// Package pipeline drives the enrichment run: it reads the feed, selects
// episodes, and moves each one through acquire, transcribe, classify, label,
// summarize and persist in order.
//
// Episodes are isolated from one another. A stage failure is recorded in the
// ledger and the run moves on, unless the failure is a cancellation or a
// configuration problem, which stops the run. Scratch audio for an episode is
// released on every exit path.
package pipeline

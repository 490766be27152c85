// Package services defines shared utilities consumed by the pipeline stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp episode keys, stage names, and run
//     identifiers for logging and tracing.
//   - Typed error kinds plus the Wrap helper so the pipeline driver can decide
//     per stage whether to skip an episode or stop the run, and so the ledger
//     records a stable failure classification.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services

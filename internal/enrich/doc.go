// Package enrich holds the four enrichment stages that turn downloaded audio
// into the text columns of a warehouse row.
//
//   - TranscribeStage: per-segment speech-to-text, joined with single spaces
//   - ClassifyStage: title classification against the fixed Taxonomy
//   - LabelStage: speaker labeling over token-preserving windows
//   - SummarizeStage: summary, key insights and notable quotes
//
// Each stage implements stage.Handler and mutates an episode.Record in place.
// Generated text is stored verbatim.
package enrich

// Package whisperx transcribes audio segments locally with WhisperX, launched
// through uvx.
//
// Each call writes a JSON result beside the segment, reads the segment text
// out of it and removes the result file. Model and CUDA settings come from
// the [transcription] config section.
package whisperx

// Package language resolves the spoken-language hint handed to the
// speech-to-text providers. Both OpenAI transcription and WhisperX expect
// ISO 639-1 codes, while operators tend to write "english" or "eng".
package language

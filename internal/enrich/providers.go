package enrich

import (
	"fmt"

	"podenrich/internal/config"
	"podenrich/internal/services/whisper"
	"podenrich/internal/services/whisperx"
)

// NewTranscriber returns the speech-to-text provider selected by
// [transcription].provider.
func NewTranscriber(cfg *config.Config) (Transcriber, error) {
	switch cfg.Transcription.Provider {
	case config.ProviderOpenAI:
		return whisper.New(cfg.TranscriptionLLM(), whisper.WithLanguage(cfg.Transcription.Language)), nil
	case config.ProviderWhisperX:
		return whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.WhisperXCUDA,
			Language:    cfg.Transcription.Language,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %q", cfg.Transcription.Provider)
	}
}

package config

const (
	defaultConfigPath             = "~/.config/podenrich/config.toml"
	defaultStateDir               = "~/.local/share/podenrich"
	defaultScratchDir             = "~/.local/share/podenrich/scratch"
	defaultLogDir                 = "~/.local/share/podenrich/logs"
	defaultMaxEpisodes            = 125
	defaultFeedTimeoutSeconds     = 30
	defaultUserAgent              = "podenrich/dev"
	defaultChunkMS                = 60000
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultDownloadTimeoutSeconds = 600
	defaultTranscriptionProvider  = ProviderOpenAI
	defaultTranscriptionModel     = "whisper-1"
	defaultWhisperXModel          = "large-v3"
	defaultLLMProvider            = ProviderOpenAI
	defaultLLMModel               = "gpt-4o"
	defaultOpenRouterBaseURL      = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMReferer             = "https://github.com/podenrich/podenrich"
	defaultLLMTitle               = "podenrich"
	defaultLLMTimeoutSeconds      = 120
	defaultLLMRetryAttempts       = 5
	defaultLLMRetryBaseMS         = 1000
	defaultLLMRetryMaxMS          = 10000
	defaultHostName               = "Host"
	defaultWindowChars            = 3000
	defaultSummaryMaxTokens       = 1000
	defaultWarehouseKind          = WarehouseSQLite
	defaultWarehouseTable         = "podcast_episodes"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Provider identifiers accepted by [llm].provider and [transcription].provider.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderWhisperX   = "whisperx"
)

// Warehouse kinds accepted by [warehouse].kind.
const (
	WarehouseSQLite     = "sqlite"
	WarehousePostgres   = "postgres"
	WarehouseClickHouse = "clickhouse"
	WarehouseMongo      = "mongo"
	WarehouseBigQuery   = "bigquery"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
		},
		Feed: Feed{
			MaxEpisodes:    defaultMaxEpisodes,
			TimeoutSeconds: defaultFeedTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Audio: Audio{
			ChunkMS:                defaultChunkMS,
			FFmpegBinary:           defaultFFmpegBinary,
			FFprobeBinary:          defaultFFprobeBinary,
			DownloadTimeoutSeconds: defaultDownloadTimeoutSeconds,
		},
		Transcription: Transcription{
			Provider:      defaultTranscriptionProvider,
			Model:         defaultTranscriptionModel,
			WhisperXModel: defaultWhisperXModel,
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
			RetryBaseMS:    defaultLLMRetryBaseMS,
			RetryMaxMS:     defaultLLMRetryMaxMS,
		},
		Pipeline: Pipeline{
			HostName:         defaultHostName,
			WindowChars:      defaultWindowChars,
			SummaryMaxTokens: defaultSummaryMaxTokens,
		},
		Warehouse: Warehouse{
			Kind:  defaultWarehouseKind,
			Table: defaultWarehouseTable,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

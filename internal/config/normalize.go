package config

import (
	"fmt"
	"os"
	"strings"

	"podenrich/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeed()
	c.normalizeAudio()
	c.normalizeLLM()
	c.normalizeTranscription()
	c.normalizePipeline()
	if err := c.normalizeWarehouse(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = c.Paths.StateDir + "/scratch"
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = c.Paths.StateDir + "/logs"
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFeed() {
	c.Feed.URL = strings.TrimSpace(c.Feed.URL)
	if c.Feed.URL == "" {
		if value, ok := os.LookupEnv("PODENRICH_FEED_URL"); ok {
			c.Feed.URL = strings.TrimSpace(value)
		}
	}
	if c.Feed.TimeoutSeconds <= 0 {
		c.Feed.TimeoutSeconds = defaultFeedTimeoutSeconds
	}
	c.Feed.UserAgent = strings.TrimSpace(c.Feed.UserAgent)
	if c.Feed.UserAgent == "" {
		c.Feed.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Audio.DownloadTimeoutSeconds <= 0 {
		c.Audio.DownloadTimeoutSeconds = defaultDownloadTimeoutSeconds
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = apiKeyFromEnv(c.LLM.Provider)
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" && c.LLM.Provider == ProviderOpenRouter {
		c.LLM.BaseURL = defaultOpenRouterBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
	if c.LLM.RetryBaseMS <= 0 {
		c.LLM.RetryBaseMS = defaultLLMRetryBaseMS
	}
	if c.LLM.RetryMaxMS <= 0 {
		c.LLM.RetryMaxMS = defaultLLMRetryMaxMS
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	if code, ok := language.Normalize(c.Transcription.Language); ok {
		c.Transcription.Language = code
	}
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = defaultTranscriptionProvider
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if c.Transcription.APIKey == "" && c.Transcription.Provider == ProviderOpenAI {
		if c.LLM.Provider == ProviderOpenAI && c.LLM.APIKey != "" {
			c.Transcription.APIKey = c.LLM.APIKey
		} else {
			c.Transcription.APIKey = apiKeyFromEnv(ProviderOpenAI)
		}
	}
	c.Transcription.BaseURL = strings.TrimSpace(c.Transcription.BaseURL)
	c.Transcription.WhisperXModel = strings.TrimSpace(c.Transcription.WhisperXModel)
	if c.Transcription.WhisperXModel == "" {
		c.Transcription.WhisperXModel = defaultWhisperXModel
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.HostName = strings.TrimSpace(c.Pipeline.HostName)
	if c.Pipeline.HostName == "" {
		c.Pipeline.HostName = defaultHostName
	}
	if c.Pipeline.SummaryMaxTokens <= 0 {
		c.Pipeline.SummaryMaxTokens = defaultSummaryMaxTokens
	}
}

func (c *Config) normalizeWarehouse() error {
	c.Warehouse.Kind = strings.ToLower(strings.TrimSpace(c.Warehouse.Kind))
	if c.Warehouse.Kind == "" {
		c.Warehouse.Kind = defaultWarehouseKind
	}
	c.Warehouse.Table = strings.TrimSpace(c.Warehouse.Table)
	if c.Warehouse.Table == "" {
		c.Warehouse.Table = defaultWarehouseTable
	}
	c.Warehouse.DSN = strings.TrimSpace(c.Warehouse.DSN)
	if c.Warehouse.DSN == "" {
		if value, ok := os.LookupEnv("PODENRICH_WAREHOUSE_DSN"); ok {
			c.Warehouse.DSN = strings.TrimSpace(value)
		}
	}
	if c.Warehouse.Kind == WarehouseSQLite {
		if c.Warehouse.DSN == "" {
			c.Warehouse.DSN = c.Paths.StateDir + "/warehouse.db"
		}
		expanded, err := expandPath(c.Warehouse.DSN)
		if err != nil {
			return fmt.Errorf("warehouse.dsn: %w", err)
		}
		c.Warehouse.DSN = expanded
	}
	c.Warehouse.Database = strings.TrimSpace(c.Warehouse.Database)
	c.Warehouse.Project = strings.TrimSpace(c.Warehouse.Project)
	if c.Warehouse.Project == "" {
		if value, ok := os.LookupEnv("GOOGLE_CLOUD_PROJECT"); ok {
			c.Warehouse.Project = strings.TrimSpace(value)
		}
	}
	c.Warehouse.Dataset = strings.TrimSpace(c.Warehouse.Dataset)
	c.Warehouse.CredentialsFile = strings.TrimSpace(c.Warehouse.CredentialsFile)
	if c.Warehouse.CredentialsFile == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.Warehouse.CredentialsFile = strings.TrimSpace(value)
		}
	}
	if c.Warehouse.CredentialsFile != "" {
		expanded, err := expandPath(c.Warehouse.CredentialsFile)
		if err != nil {
			return fmt.Errorf("warehouse.credentials_file: %w", err)
		}
		c.Warehouse.CredentialsFile = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// apiKeyFromEnv returns the conventional environment credential for provider.
func apiKeyFromEnv(provider string) string {
	var names []string
	switch provider {
	case ProviderOpenAI:
		names = []string{"OPENAI_API_KEY"}
	case ProviderOpenRouter:
		names = []string{"OPENROUTER_API_KEY"}
	case ProviderAnthropic:
		names = []string{"ANTHROPIC_API_KEY"}
	case ProviderGemini:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

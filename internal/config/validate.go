package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"podenrich/internal/language"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate ensures the configuration contains usable values.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateWarehouse(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateCredentials reports missing provider keys. Commands that never
// reach a provider (status, config) skip this check.
func (c *Config) ValidateCredentials() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key must be set for provider %q", c.LLM.Provider)
	}
	if c.Transcription.Provider != ProviderWhisperX && c.Transcription.APIKey == "" {
		return fmt.Errorf("transcription.api_key must be set for provider %q", c.Transcription.Provider)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.MaxEpisodes < 0 {
		return errors.New("feed.max_episodes must be zero or positive")
	}
	if c.Feed.URL != "" {
		parsed, err := url.Parse(c.Feed.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("feed.url %q must be an absolute URL", c.Feed.URL)
		}
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.ChunkMS <= 0 {
		return errors.New("audio.chunk_ms must be positive")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider %q must be one of openai, openrouter, anthropic, gemini", c.LLM.Provider)
	}
	if c.LLM.RetryMaxMS < c.LLM.RetryBaseMS {
		return errors.New("llm.retry_max_ms must be greater than or equal to llm.retry_base_ms")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Provider {
	case ProviderOpenAI, ProviderWhisperX:
	default:
		return fmt.Errorf("transcription.provider %q must be openai or whisperx", c.Transcription.Provider)
	}
	if _, ok := language.Normalize(c.Transcription.Language); !ok {
		return fmt.Errorf("transcription.language %q is not a recognized language", c.Transcription.Language)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.WindowChars <= 0 {
		return errors.New("pipeline.window_chars must be positive")
	}
	return nil
}

func (c *Config) validateWarehouse() error {
	if !tableNamePattern.MatchString(c.Warehouse.Table) {
		return fmt.Errorf("warehouse.table %q must be a plain identifier", c.Warehouse.Table)
	}
	switch c.Warehouse.Kind {
	case WarehouseSQLite:
	case WarehousePostgres, WarehouseClickHouse:
		if c.Warehouse.DSN == "" {
			return fmt.Errorf("warehouse.dsn must be set for kind %q", c.Warehouse.Kind)
		}
	case WarehouseMongo:
		if c.Warehouse.DSN == "" {
			return errors.New("warehouse.dsn must be set for kind \"mongo\"")
		}
		if c.Warehouse.Database == "" {
			return errors.New("warehouse.database must be set for kind \"mongo\"")
		}
	case WarehouseBigQuery:
		if c.Warehouse.Project == "" {
			return errors.New("warehouse.project must be set for kind \"bigquery\"")
		}
		if !tableNamePattern.MatchString(c.Warehouse.Dataset) {
			return fmt.Errorf("warehouse.dataset %q must be a plain identifier", c.Warehouse.Dataset)
		}
	default:
		return fmt.Errorf("warehouse.kind %q must be one of sqlite, postgres, clickhouse, mongo, bigquery", c.Warehouse.Kind)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format %q must be console, json, or auto", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}

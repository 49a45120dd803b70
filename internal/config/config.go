package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is constructed once at
// process start and passed by reference into each component.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	DocExtract DocExtractConfig `yaml:"docextract" mapstructure:"docextract"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Notify     NotifyConfig     `yaml:"notify" mapstructure:"notify"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // postgres | sqlite
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// ContentCapChars caps how much fetched content is persisted per project.
	ContentCapChars int `yaml:"content_cap_chars" mapstructure:"content_cap_chars"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key                 string `yaml:"key" mapstructure:"key"`
	HaikuModel          string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel         string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	MaxBatchSize        int    `yaml:"max_batch_size" mapstructure:"max_batch_size"`
	NoBatch             bool   `yaml:"no_batch" mapstructure:"no_batch"`
	SmallBatchThreshold int    `yaml:"small_batch_threshold" mapstructure:"small_batch_threshold"`
	// RequestTimeoutSecs bounds a single inference call.
	RequestTimeoutSecs int `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// FirecrawlConfig holds the rendering service settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// SettleMillis is how long the renderer waits for client scripts before
	// capturing the DOM; RetrySettleMillis applies to the longer second try.
	SettleMillis      int `yaml:"settle_millis" mapstructure:"settle_millis"`
	RetrySettleMillis int `yaml:"retry_settle_millis" mapstructure:"retry_settle_millis"`
}

// JinaConfig holds Jina Reader settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NotionConfig holds the benchmark curation database credentials.
type NotionConfig struct {
	Token       string `yaml:"token" mapstructure:"token"`
	BenchmarkDB string `yaml:"benchmark_db" mapstructure:"benchmark_db"`
}

// FetchConfig configures content acquisition.
type FetchConfig struct {
	DirectTimeoutSecs int     `yaml:"direct_timeout_secs" mapstructure:"direct_timeout_secs"`
	RenderTimeoutSecs int     `yaml:"render_timeout_secs" mapstructure:"render_timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// MinUsableChars is the visible-text floor below which a strategy's
	// output is treated as insufficient and the chain continues.
	MinUsableChars int    `yaml:"min_usable_chars" mapstructure:"min_usable_chars"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// DocExtractConfig configures PDF text extraction.
type DocExtractConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"` // local | mistral
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_ocr_model" mapstructure:"mistral_ocr_model"`
}

// AnalysisConfig configures the two analysis phases.
type AnalysisConfig struct {
	// CompleteChars is the validator fast path: content at least this long
	// is accepted without an LLM judgment call.
	CompleteChars int `yaml:"complete_chars" mapstructure:"complete_chars"`
	// ReduceTriggerChars triggers preprocessing; content of exactly this
	// length passes untouched.
	ReduceTriggerChars int `yaml:"reduce_trigger_chars" mapstructure:"reduce_trigger_chars"`
	// PromptCeilingChars is the hard cap on prompt content size.
	PromptCeilingChars int `yaml:"prompt_ceiling_chars" mapstructure:"prompt_ceiling_chars"`
	// ChainSettleSecs is the delay between Phase 1 completion and the
	// background Phase 2 trigger.
	ChainSettleSecs int `yaml:"chain_settle_secs" mapstructure:"chain_settle_secs"`
	// PhaseTimeoutSecs bounds a whole phase at the request boundary.
	PhaseTimeoutSecs int `yaml:"phase_timeout_secs" mapstructure:"phase_timeout_secs"`
}

// ServerConfig configures the analysis webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// NotifyConfig configures best-effort failure notifications.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VETTING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.content_cap_chars", 250_000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_batch_size", 100)
	v.SetDefault("anthropic.small_batch_threshold", 5)
	v.SetDefault("anthropic.request_timeout_secs", 180)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("firecrawl.settle_millis", 3000)
	v.SetDefault("firecrawl.retry_settle_millis", 10000)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("fetch.direct_timeout_secs", 30)
	v.SetDefault("fetch.render_timeout_secs", 120)
	v.SetDefault("fetch.requests_per_second", 2.0)
	v.SetDefault("fetch.min_usable_chars", 200)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("fetch.max_body_bytes", 8*1024*1024)
	v.SetDefault("docextract.provider", "local")
	v.SetDefault("docextract.pdftotext_path", "pdftotext")
	v.SetDefault("docextract.mistral_ocr_model", "pixtral-large-latest")
	v.SetDefault("analysis.complete_chars", 3000)
	v.SetDefault("analysis.reduce_trigger_chars", 240_000)
	v.SetDefault("analysis.prompt_ceiling_chars", 250_000)
	v.SetDefault("analysis.chain_settle_secs", 2)
	v.SetDefault("analysis.phase_timeout_secs", 600)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

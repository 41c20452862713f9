// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
//
// Configuration is read from an optional YAML file and then overridden by
// RETIREX_* environment variables (RETIREX_SERVER_ADDRESS,
// RETIREX_PROJECTION_MINIMUMCONTRIBUTION, ...). OPENAI_API_KEY is accepted as a
// fallback for chat.apiKey. The loaded Configuration is passed explicitly to
// every component; nothing is read from the environment afterwards.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Martingim-10/retirex/internal/projection"
	"github.com/Martingim-10/retirex/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for retirex.
type Configuration struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging,omitempty"`
	Projection ProjectionConfig `mapstructure:"projection" yaml:"projection"`
	Chat       ChatConfig       `mapstructure:"chat" yaml:"chat"`
	Sheets     SheetsConfig     `mapstructure:"sheets" yaml:"sheets,omitempty"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache,omitempty"`
}

// ServerConfig holds HTTP listener options.
type ServerConfig struct {
	Address         string        `mapstructure:"address" yaml:"address"`
	MaxBodySize     string        `mapstructure:"maxBodySize" yaml:"maxBodySize"` // e.g. 64K, 1M
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`
	AllowedOrigins  []string      `mapstructure:"allowedOrigins" yaml:"allowedOrigins,omitempty"` // empty reflects any origin
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// ProjectionConfig holds the business rules of the projection engine.
type ProjectionConfig struct {
	Method              string  `mapstructure:"method" yaml:"method"` // actuarial, annuity
	OfficialAnnualRate  float64 `mapstructure:"officialAnnualRate" yaml:"officialAnnualRate"`
	RealisticAnnualRate float64 `mapstructure:"realisticAnnualRate" yaml:"realisticAnnualRate"`
	USDAnnualRate       float64 `mapstructure:"usdAnnualRate" yaml:"usdAnnualRate"`
	TariffLoading       float64 `mapstructure:"tariffLoading" yaml:"tariffLoading"`
	ExpenseCharge       float64 `mapstructure:"expenseCharge" yaml:"expenseCharge"`
	MinimumContribution float64 `mapstructure:"minimumContribution" yaml:"minimumContribution"` // 0 disables
	ExposeRates         bool    `mapstructure:"exposeRates" yaml:"exposeRates"`
}

// ChatConfig holds the language-model collaborator options.
type ChatConfig struct {
	APIKey       string        `mapstructure:"apiKey" yaml:"-"`
	BaseURL      string        `mapstructure:"baseURL" yaml:"baseURL"`
	Model        string        `mapstructure:"model" yaml:"model"`
	MaxTokens    int           `mapstructure:"maxTokens" yaml:"maxTokens"`
	MaxMessages  int           `mapstructure:"maxMessages" yaml:"maxMessages"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SystemPrompt string        `mapstructure:"systemPrompt" yaml:"systemPrompt"`
}

// SheetsConfig holds the spreadsheet collaborator options.
type SheetsConfig struct {
	SpreadsheetID     string        `mapstructure:"spreadsheetID" yaml:"spreadsheetID,omitempty"`
	CredentialsFile   string        `mapstructure:"credentialsFile" yaml:"credentialsFile,omitempty"`
	APIKey            string        `mapstructure:"apiKey" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	KeywordRange      string        `mapstructure:"keywordRange" yaml:"keywordRange,omitempty"`
	ConversationRange string        `mapstructure:"conversationRange" yaml:"conversationRange,omitempty"`
	QuoteRange        string        `mapstructure:"quoteRange" yaml:"quoteRange,omitempty"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"` // bounds each quote append
}

// CacheConfig selects the keyword cache backend.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redisAddr" yaml:"redisAddr,omitempty"` // empty selects the in-memory cache
	RedisPassword string        `mapstructure:"redisPassword" yaml:"-"`
	RedisDB       int           `mapstructure:"redisDB" yaml:"redisDB,omitempty"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl,omitempty"`
}

// ChatEnabled reports whether a language-model API key is configured.
func (c ChatConfig) ChatEnabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Enabled reports whether a spreadsheet is configured.
func (s SheetsConfig) Enabled() bool {
	return strings.TrimSpace(s.SpreadsheetID) != ""
}

// Policy converts the projection section into an engine policy.
func (p ProjectionConfig) Policy() projection.Policy {
	return projection.Policy{
		Method:              projection.Method(p.Method),
		OfficialAnnualRate:  p.OfficialAnnualRate,
		RealisticAnnualRate: p.RealisticAnnualRate,
		USDAnnualRate:       p.USDAnnualRate,
		TariffLoading:       p.TariffLoading,
		ExpenseCharge:       p.ExpenseCharge,
		MinimumContribution: p.MinimumContribution,
	}
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path loads defaults plus environment
// overrides only.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r, applying the
// same defaults and environment overrides as LoadConfiguration.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// BindEnv only fails when called without a key.
	_ = v.BindEnv("chat.apiKey", constants.EnvPrefix+"_CHAT_APIKEY", "OPENAI_API_KEY")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("server.shutdownTimeout", time.Duration(constants.DefaultShutdownTimeoutSeconds)*time.Second)
	v.SetDefault("server.allowedOrigins", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")

	v.SetDefault("projection.method", constants.DefaultProjectionMethod)
	v.SetDefault("projection.officialAnnualRate", constants.DefaultOfficialAnnualRate)
	v.SetDefault("projection.realisticAnnualRate", constants.DefaultRealisticAnnualRate)
	v.SetDefault("projection.usdAnnualRate", constants.DefaultUSDAnnualRate)
	v.SetDefault("projection.tariffLoading", constants.DefaultTariffLoading)
	v.SetDefault("projection.expenseCharge", constants.DefaultExpenseCharge)
	v.SetDefault("projection.minimumContribution", constants.DefaultMinimumContribution)
	v.SetDefault("projection.exposeRates", false)

	v.SetDefault("chat.apiKey", "")
	v.SetDefault("chat.baseURL", constants.DefaultChatBaseURL)
	v.SetDefault("chat.model", constants.DefaultChatModel)
	v.SetDefault("chat.maxTokens", constants.DefaultChatMaxTokens)
	v.SetDefault("chat.maxMessages", constants.DefaultChatMaxMessages)
	v.SetDefault("chat.timeout", time.Duration(constants.DefaultChatTimeoutSeconds)*time.Second)
	v.SetDefault("chat.systemPrompt", constants.DefaultSystemPrompt)

	v.SetDefault("sheets.spreadsheetID", "")
	v.SetDefault("sheets.credentialsFile", "")
	v.SetDefault("sheets.apiKey", "")
	v.SetDefault("sheets.endpoint", "")
	v.SetDefault("sheets.keywordRange", constants.DefaultKeywordRange)
	v.SetDefault("sheets.conversationRange", constants.DefaultConversationRange)
	v.SetDefault("sheets.quoteRange", constants.DefaultQuoteRange)
	v.SetDefault("sheets.timeout", time.Duration(constants.DefaultSheetsTimeoutSeconds)*time.Second)

	v.SetDefault("cache.redisAddr", "")
	v.SetDefault("cache.redisPassword", "")
	v.SetDefault("cache.redisDB", 0)
	v.SetDefault("cache.ttl", time.Duration(constants.DefaultKeywordCacheTTLSeconds)*time.Second)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// Validate returns the first configuration error that would prevent the
// service from starting.
func (c *Configuration) Validate() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdownTimeout must not be negative")
	}
	if err := c.Projection.Policy().Validate(); err != nil {
		return fmt.Errorf("projection: %w", err)
	}
	if c.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat.maxTokens must be positive, got %d", c.Chat.MaxTokens)
	}
	if c.Chat.MaxMessages <= 0 {
		return fmt.Errorf("chat.maxMessages must be positive, got %d", c.Chat.MaxMessages)
	}
	if c.Chat.Timeout <= 0 {
		return fmt.Errorf("chat.timeout must be positive")
	}
	if c.Sheets.Enabled() && strings.TrimSpace(c.Sheets.KeywordRange) == "" {
		return fmt.Errorf("sheets.keywordRange must be set when a spreadsheet is configured")
	}
	if c.Sheets.Timeout < 0 {
		return fmt.Errorf("sheets.timeout must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings about features that will be disabled.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if !c.Chat.ChatEnabled() {
		warnings = append(warnings, "chat.apiKey is not set - chat replies will only come from the keyword sheet")
	}
	if !c.Sheets.Enabled() {
		warnings = append(warnings, "sheets.spreadsheetID is not set - keyword lookup and conversation logging are disabled")
	} else if c.Sheets.CredentialsFile == "" && c.Sheets.APIKey == "" {
		warnings = append(warnings, "sheets has neither credentialsFile nor apiKey - application default credentials will be used")
	}
	if c.Projection.MinimumContribution == 0 {
		warnings = append(warnings, "projection.minimumContribution is 0 - no minimum contribution is enforced")
	}
	return warnings
}

package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Martingim-10/retirex/internal/projection"
	"github.com/Martingim-10/retirex/pkg/constants"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retirex.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Defaults only",
			configPath: "",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	conf, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Server.Address != constants.DefaultServerAddress {
		t.Errorf("expected default address, got %q", conf.Server.Address)
	}
	if conf.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected 10s shutdown timeout, got %s", conf.Server.ShutdownTimeout)
	}
	if conf.Projection.Method != "actuarial" {
		t.Errorf("expected actuarial method, got %q", conf.Projection.Method)
	}
	if conf.Projection.MinimumContribution != 40000 {
		t.Errorf("expected 40000 minimum, got %v", conf.Projection.MinimumContribution)
	}
	if conf.Chat.Model != constants.DefaultChatModel || conf.Chat.MaxTokens != constants.DefaultChatMaxTokens {
		t.Errorf("unexpected chat defaults: %+v", conf.Chat)
	}
	if conf.Sheets.Enabled() {
		t.Errorf("sheets should be disabled by default")
	}
	if conf.Sheets.Timeout != 2*time.Second {
		t.Errorf("expected 2s sheets timeout, got %s", conf.Sheets.Timeout)
	}
	if conf.Cache.TTL != 5*time.Minute {
		t.Errorf("expected 5m cache ttl, got %s", conf.Cache.TTL)
	}
	if err := conf.Validate(); err != nil {
		t.Errorf("default configuration should validate, got %v", err)
	}

	if conf.Projection.Policy() != projection.DefaultPolicy() {
		t.Errorf("default projection section should match DefaultPolicy, got %+v", conf.Projection.Policy())
	}
}

func TestLoadConfigurationOverrides(t *testing.T) {
	path := writeConfig(t, `server:
  address: 127.0.0.1:9000
  maxBodySize: 1M
  shutdownTimeout: 3s
  allowedOrigins:
    - https://retirex.example
logging:
  level: debug
  format: console
projection:
  method: annuity
  realisticAnnualRate: 0.35
  minimumContribution: 0
  exposeRates: true
chat:
  model: gpt-4o
  timeout: 12s
sheets:
  spreadsheetID: sheet-123
  keywordRange: FAQ!A:B
  timeout: 750ms
cache:
  redisAddr: localhost:6379
  ttl: 1m
`)

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Server.Address != "127.0.0.1:9000" {
		t.Errorf("expected address override, got %s", conf.Server.Address)
	}
	if conf.Server.MaxBodySize != "1M" {
		t.Errorf("expected max body override, got %s", conf.Server.MaxBodySize)
	}
	if conf.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("expected 3s shutdown timeout, got %s", conf.Server.ShutdownTimeout)
	}
	if len(conf.Server.AllowedOrigins) != 1 || conf.Server.AllowedOrigins[0] != "https://retirex.example" {
		t.Errorf("unexpected allowed origins %v", conf.Server.AllowedOrigins)
	}
	if conf.Logging.Level != "debug" || conf.Logging.Format != "console" {
		t.Errorf("unexpected logging %+v", conf.Logging)
	}
	if conf.Projection.Method != "annuity" {
		t.Errorf("expected annuity method, got %s", conf.Projection.Method)
	}
	if math.Abs(conf.Projection.RealisticAnnualRate-0.35) > 1e-12 {
		t.Errorf("expected 0.35 realistic rate, got %v", conf.Projection.RealisticAnnualRate)
	}
	if math.Abs(conf.Projection.OfficialAnnualRate-constants.DefaultOfficialAnnualRate) > 1e-12 {
		t.Errorf("untouched official rate should keep its default, got %v", conf.Projection.OfficialAnnualRate)
	}
	if conf.Projection.MinimumContribution != 0 || !conf.Projection.ExposeRates {
		t.Errorf("unexpected projection %+v", conf.Projection)
	}
	if conf.Chat.Model != "gpt-4o" || conf.Chat.Timeout != 12*time.Second {
		t.Errorf("unexpected chat %+v", conf.Chat)
	}
	if !conf.Sheets.Enabled() || conf.Sheets.KeywordRange != "FAQ!A:B" {
		t.Errorf("unexpected sheets %+v", conf.Sheets)
	}
	if conf.Sheets.Timeout != 750*time.Millisecond {
		t.Errorf("expected 750ms sheets timeout, got %s", conf.Sheets.Timeout)
	}
	if conf.Sheets.ConversationRange != constants.DefaultConversationRange {
		t.Errorf("expected default conversation range, got %s", conf.Sheets.ConversationRange)
	}
	if conf.Cache.RedisAddr != "localhost:6379" || conf.Cache.TTL != time.Minute {
		t.Errorf("unexpected cache %+v", conf.Cache)
	}
}

func TestLoadConfigurationEnvironmentOverrides(t *testing.T) {
	t.Setenv("RETIREX_SERVER_ADDRESS", ":9999")
	t.Setenv("RETIREX_PROJECTION_MINIMUMCONTRIBUTION", "30000")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	path := writeConfig(t, "server:\n  address: :8081\n")
	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Server.Address != ":9999" {
		t.Errorf("environment should override file, got %s", conf.Server.Address)
	}
	if conf.Projection.MinimumContribution != 30000 {
		t.Errorf("expected minimum from environment, got %v", conf.Projection.MinimumContribution)
	}
	if conf.Chat.APIKey != "sk-test" || !conf.Chat.ChatEnabled() {
		t.Errorf("expected API key from OPENAI_API_KEY, got %q", conf.Chat.APIKey)
	}
}

func TestLoadConfigurationPrefixedKeyWins(t *testing.T) {
	t.Setenv("RETIREX_CHAT_APIKEY", "sk-prefixed")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	conf, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Chat.APIKey != "sk-prefixed" {
		t.Errorf("expected prefixed key to win, got %q", conf.Chat.APIKey)
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	conf, err := LoadConfigurationFromReader(strings.NewReader("projection:\n  usdAnnualRate: 0.03\n"))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if math.Abs(conf.Projection.USDAnnualRate-0.03) > 1e-12 {
		t.Errorf("expected 0.03 usd rate, got %v", conf.Projection.USDAnnualRate)
	}

	if _, err := LoadConfigurationFromReader(strings.NewReader("projection: [unterminated")); err == nil {
		t.Errorf("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Configuration)
		expectErr bool
	}{
		{"Defaults", func(c *Configuration) {}, false},
		{"Empty address", func(c *Configuration) { c.Server.Address = " " }, true},
		{"Zero official rate", func(c *Configuration) { c.Projection.OfficialAnnualRate = 0 }, true},
		{"Unknown method", func(c *Configuration) { c.Projection.Method = "linear" }, true},
		{"Zero max tokens", func(c *Configuration) { c.Chat.MaxTokens = 0 }, true},
		{"Zero max messages", func(c *Configuration) { c.Chat.MaxMessages = 0 }, true},
		{"Zero chat timeout", func(c *Configuration) { c.Chat.Timeout = 0 }, true},
		{"Sheet without keyword range", func(c *Configuration) {
			c.Sheets.SpreadsheetID = "abc"
			c.Sheets.KeywordRange = ""
		}, true},
		{"Negative cache ttl", func(c *Configuration) { c.Cache.TTL = -time.Second }, true},
		{"Negative sheets timeout", func(c *Configuration) { c.Sheets.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, err := LoadConfiguration("")
			if err != nil {
				t.Fatalf("LoadConfiguration() error = %v", err)
			}
			tt.mutate(conf)
			err = conf.Validate()
			if tt.expectErr && err == nil {
				t.Errorf("Validate() expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RETIREX_CHAT_APIKEY", "")

	conf, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	warnings := conf.ValidateConfiguration()
	if len(warnings) != 2 {
		t.Fatalf("expected chat and sheets warnings, got %v", warnings)
	}

	conf.Chat.APIKey = "sk"
	conf.Sheets.SpreadsheetID = "abc"
	conf.Sheets.CredentialsFile = "/etc/retirex/sa.json"
	conf.Projection.MinimumContribution = 0
	warnings = conf.ValidateConfiguration()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "minimumContribution") {
		t.Errorf("expected only the minimum warning, got %v", warnings)
	}
}

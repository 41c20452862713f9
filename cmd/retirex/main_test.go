package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Martingim-10/retirex/internal/config"
	"github.com/Martingim-10/retirex/pkg/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retirex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RETIREX_CHAT_APIKEY", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "retirex", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"serve", "project", "version"})
}

func TestProjectCmdFlags(t *testing.T) {
	cmd := projectCmd(&globalOptions{})
	for _, name := range []string{"current-age", "retirement-age", "contribution", "currency", "gender", "method", "output"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "o", cmd.Flags().Lookup("output").Shorthand)
}

func TestProjectCmdPretty(t *testing.T) {
	out, err := runRoot(t, "project", "--log-level", "error",
		"--current-age", "30", "--retirement-age", "65", "--contribution", "40000")
	require.NoError(t, err)
	assert.Contains(t, out, "854,251,354")
	assert.Contains(t, out, "16,095,065,873")
}

func TestProjectCmdJSONWithOverrides(t *testing.T) {
	out, err := runRoot(t, "project", "--log-level", "error",
		"--current-age", "30", "--retirement-age", "65", "--contribution", "40000",
		"--currency", "usd", "--method", "annuity", "-o", "json")
	require.NoError(t, err)

	var doc output.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "annuity", doc.Method)
	require.Len(t, doc.Scenarios, 3)
	assert.Equal(t, int64(941783289), doc.Scenarios[0].Capital)
	assert.Equal(t, int64(24216538), doc.Scenarios[2].Capital)
}

func TestProjectCmdUsesConfigFile(t *testing.T) {
	path := writeConfig(t, "projection:\n  minimumContribution: 0\nlogging:\n  level: error\n")

	out, err := runRoot(t, "--config", path, "project",
		"--current-age", "30", "--retirement-age", "31", "--contribution", "1000", "-o", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "scenario,method,months"), out)
}

func TestProjectCmdErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"below minimum", []string{"--current-age", "30", "--retirement-age", "65", "--contribution", "30000"}, "monthly_contribution"},
		{"inverted ages", []string{"--current-age", "40", "--retirement-age", "35", "--contribution", "40000"}, "retirement_age"},
		{"bad output", []string{"--current-age", "30", "--retirement-age", "65", "--contribution", "40000", "-o", "xml"}, "output format"},
		{"bad method", []string{"--current-age", "30", "--retirement-age", "65", "--contribution", "40000", "--method", "linear"}, "method"},
		{"missing flag", []string{"--current-age", "30", "--contribution", "40000"}, "retirement-age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"project", "--log-level", "error"}, tt.args...)
			_, err := runRoot(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMissingConfigFileFails(t *testing.T) {
	_, err := runRoot(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "project",
		"--current-age", "30", "--retirement-age", "65", "--contribution", "40000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestVersionCmd(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestBuildHandlerOptionsDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RETIREX_CHAT_APIKEY", "")
	conf, err := config.LoadConfiguration("")
	require.NoError(t, err)

	opts, cleanup, err := buildHandlerOptions(context.Background(), conf, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, opts.Engine)
	assert.Equal(t, "actuarial", string(opts.Engine.Policy().Method))
	assert.Nil(t, opts.Chat, "chat needs a model or a keyword sheet")
	assert.Nil(t, opts.Quotes)
	assert.Equal(t, int64(64*1024), opts.MaxBodySize)
	assert.Equal(t, 2*time.Second, opts.QuoteTimeout)
}

func TestBuildHandlerOptionsWithChat(t *testing.T) {
	conf, err := config.LoadConfiguration("")
	require.NoError(t, err)
	conf.Chat.APIKey = "sk-test"
	conf.Server.MaxBodySize = "1M"

	opts, cleanup, err := buildHandlerOptions(context.Background(), conf, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, opts.Chat)
	assert.Equal(t, int64(1<<20), opts.MaxBodySize)
}

func TestBuildHandlerOptionsRejectsBadBodySize(t *testing.T) {
	conf, err := config.LoadConfiguration("")
	require.NoError(t, err)
	conf.Server.MaxBodySize = "huge"

	_, _, err = buildHandlerOptions(context.Background(), conf, zap.NewNop())
	assert.Error(t, err)
}

func TestBuildCacheFallsBackToMemory(t *testing.T) {
	c, cleanup := buildCache(context.Background(), config.CacheConfig{RedisAddr: "127.0.0.1:1"}, zap.NewNop())
	defer cleanup()
	require.NotNil(t, c)
	_, isMemory := c.(interface{ Len() int })
	assert.True(t, isMemory, "unreachable redis should fall back to the memory cache")
}

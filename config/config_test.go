package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/host"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, host.DefaultGasLimit, cfg.Gas.Limit)
	assert.Equal(t, "cosmwasm", cfg.Chain.Bech32Prefix)
	assert.False(t, cfg.CodeStore.Persistent())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "cwvm.yaml", `
gas:
  limit: 42
chain:
  id: test-1
code_store:
  cache_ttl: 30m
log:
  level: debug
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Gas.Limit)
	assert.Equal(t, "test-1", cfg.Chain.ID)
	assert.Equal(t, 30*time.Minute, cfg.CodeStore.CacheTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, Default().Limits, cfg.Limits)
	assert.Equal(t, Default().Gas.HostCall, cfg.Gas.HostCall)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	var cfgErr *engerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CWVM_GAS_LIMIT", "500")
	t.Setenv("CWVM_CHAIN_BECH32_PREFIX", "wasm")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), cfg.Gas.Limit)
	assert.Equal(t, "wasm", cfg.Chain.Bech32Prefix)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "cwvm.yaml", "limits:\n  max_call_depth: 3\ngas:\n  limit: 10\n")
	t.Setenv("CWVM_LIMITS_MAX_CALL_DEPTH", "5")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--max-call-depth=7", "--code-dir", "/tmp/codes"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), cfg.Limits.MaxCallDepth)
	assert.Equal(t, uint64(10), cfg.Gas.Limit)
	assert.Equal(t, "/tmp/codes", cfg.CodeStore.Dir)
	assert.True(t, cfg.CodeStore.Persistent())
	// unset flags do not mask other sources
	assert.Equal(t, Default().Chain.ID, cfg.Chain.ID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, field: "log.level"},
		{name: "zero gas", mutate: func(c *Config) { c.Gas.Limit = 0 }, field: "gas.limit"},
		{name: "call depth", mutate: func(c *Config) { c.Limits.MaxCallDepth = 0 }, field: "limits.max_call_depth"},
		{name: "memory pages", mutate: func(c *Config) { c.Limits.MemoryLimitPages = 70000 }, field: "limits.memory_limit_pages"},
		{name: "missing chain id", mutate: func(c *Config) { c.Chain.ID = "" }, field: "chain.id"},
		{name: "upper case prefix", mutate: func(c *Config) { c.Chain.Bech32Prefix = "Wasm" }, field: "chain.bech32_prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var cfgErr *engerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := Default()
	cfg.Gas.Limit = 0
	cfg.Log.Level = ""

	err := cfg.Validate()
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	var fields []string
	for _, e := range joined.Unwrap() {
		var cfgErr *engerrors.ConfigError
		require.True(t, errors.As(e, &cfgErr))
		fields = append(fields, cfgErr.Field)
	}
	assert.ElementsMatch(t, []string{"gas.limit", "log.level"}, fields)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CWVM_LOG_LEVEL", "loud")
	_, err := Load("", nil)
	var cfgErr *engerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "log.level", cfgErr.Field)
}

func TestSchema(t *testing.T) {
	out, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "cwvm configuration", doc["title"])
	assert.Contains(t, string(out), `"max_call_depth"`)
	assert.Contains(t, string(out), `"bech32_prefix"`)
}

func TestNewLogger(t *testing.T) {
	logger, err := Log{Level: "warn"}.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(1))

	path := filepath.Join(t.TempDir(), "cwvm.log")
	logger, err = Log{Level: "info", File: path, MaxSizeMB: 1}.NewLogger()
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"hello"`)

	_, err = Log{Level: "loud"}.NewLogger()
	assert.Error(t, err)
}

func TestExecutorOptions(t *testing.T) {
	ctx := context.Background()
	cfg := Default()
	cfg.Chain.ID = "options-1"
	cfg.Limits.MaxCallDepth = 4
	logger := zaptest.NewLogger(t)

	chain, err := cfg.OpenChain(logger)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, chain.Codes.Close()) })

	exec, err := host.NewExecutor(ctx, chain, cfg.ExecutorOptions(logger)...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, exec.Close(ctx)) })

	assert.Equal(t, "options-1", exec.Block().ChainID)
	assert.Equal(t, uint64(1), exec.Block().Height)

	code, err := os.ReadFile("../host/testdata/echo.wasm")
	require.NoError(t, err)
	creator, err := chain.Addresses.Humanize(make([]byte, 20))
	require.NoError(t, err)
	info, _, err := exec.StoreCode(ctx, creator, code)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.CodeID)
}

package config

import (
	"fmt"
	"strings"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: gas.limit is read from
// CWVM_GAS_LIMIT.
const EnvPrefix = "CWVM"

// Flag names bound by BindFlags, mapped to their config keys.
var flagKeys = map[string]string{
	"gas-limit":            "gas.limit",
	"max-call-depth":       "limits.max_call_depth",
	"max-submessage-depth": "limits.max_submessage_depth",
	"memory-limit-pages":   "limits.memory_limit_pages",
	"chain-id":             "chain.id",
	"bech32-prefix":        "chain.bech32_prefix",
	"code-dir":             "code_store.dir",
	"log-level":            "log.level",
	"log-file":             "log.file",
	"log-development":      "log.development",
}

// BindFlags registers the flags Load understands on fs. Their defaults are
// the built-in ones; a flag only overrides other sources when it is set.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Uint64("gas-limit", d.Gas.Limit, "gas budget of each top-level call")
	fs.Uint32("max-call-depth", d.Limits.MaxCallDepth, "host to guest re-entry bound")
	fs.Uint32("max-submessage-depth", d.Limits.MaxSubMessageDepth, "sub-message nesting bound")
	fs.Uint32("memory-limit-pages", d.Limits.MemoryLimitPages, "contract memory cap in 64 KiB pages")
	fs.String("chain-id", d.Chain.ID, "chain id reported to contracts")
	fs.String("bech32-prefix", d.Chain.Bech32Prefix, "address prefix")
	fs.String("code-dir", "", "persist code under this directory instead of in memory")
	fs.String("log-level", d.Log.Level, "debug, info, warn or error")
	fs.String("log-file", "", "write logs to this file, rotated")
	fs.Bool("log-development", false, "human readable development logging")
}

// setDefaults mirrors Default into v so that every key is known, which
// environment lookups depend on.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("limits.max_call_depth", d.Limits.MaxCallDepth)
	v.SetDefault("limits.max_submessage_depth", d.Limits.MaxSubMessageDepth)
	v.SetDefault("limits.result_limit", d.Limits.ResultLimit)
	v.SetDefault("limits.memory_limit_pages", d.Limits.MemoryLimitPages)
	v.SetDefault("limits.module_cache_size", d.Limits.ModuleCacheSize)

	v.SetDefault("gas.limit", d.Gas.Limit)
	v.SetDefault("gas.host_call", d.Gas.HostCall)
	v.SetDefault("gas.per_byte", d.Gas.PerByte)
	v.SetDefault("gas.secp256k1_verify", d.Gas.Secp256k1Verify)
	v.SetDefault("gas.ed25519_verify", d.Gas.Ed25519Verify)

	v.SetDefault("chain.id", d.Chain.ID)
	v.SetDefault("chain.bech32_prefix", d.Chain.Bech32Prefix)

	v.SetDefault("code_store.dir", d.CodeStore.Dir)
	v.SetDefault("code_store.in_memory", d.CodeStore.InMemory)
	v.SetDefault("code_store.cache_mb", d.CodeStore.CacheMB)
	v.SetDefault("code_store.cache_ttl", d.CodeStore.CacheTTL)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.development", d.Log.Development)
}

// Load builds a validated Config. path names an optional yaml, json or toml
// file; fs, when non-nil, supplies flags registered by BindFlags.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, &engerrors.ConfigError{Err: fmt.Errorf("read %s: %w", path, err)}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, &engerrors.ConfigError{Field: key, Err: err}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &engerrors.ConfigError{Err: fmt.Errorf("decode: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

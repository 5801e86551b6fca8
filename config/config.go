// Package config holds the engine's tunable limits and wiring settings.
//
// Values are layered by Load: built-in defaults, then an optional config
// file, then CWVM_* environment variables, then command-line flags. The
// resulting Config is validated before use and converts into executor and
// code store options.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/executor"
	"github.com/reglet-dev/cwvm/host"
	"github.com/reglet-dev/cwvm/hostfuncs"
	"github.com/reglet-dev/cwvm/infrastructure/address"
)

// Config is the complete engine configuration.
type Config struct {
	Limits    Limits    `mapstructure:"limits" json:"limits"`
	Gas       Gas       `mapstructure:"gas" json:"gas"`
	Chain     Chain     `mapstructure:"chain" json:"chain"`
	CodeStore CodeStore `mapstructure:"code_store" json:"code_store"`
	Log       Log       `mapstructure:"log" json:"log"`
}

// Limits bound what a single top-level call may do.
type Limits struct {
	MaxCallDepth       uint32 `mapstructure:"max_call_depth" json:"max_call_depth" validate:"min=1,max=1024" jsonschema:"description=Host to guest re-entry bound"`
	MaxSubMessageDepth uint32 `mapstructure:"max_submessage_depth" json:"max_submessage_depth" validate:"min=1,max=256" jsonschema:"description=Sub-message nesting bound"`
	ResultLimit        uint32 `mapstructure:"result_limit" json:"result_limit" validate:"min=1024" jsonschema:"description=Largest entry point result in bytes"`
	MemoryLimitPages   uint32 `mapstructure:"memory_limit_pages" json:"memory_limit_pages" validate:"min=1,max=65536" jsonschema:"description=Linear memory cap in 64 KiB pages"`
	ModuleCacheSize    int    `mapstructure:"module_cache_size" json:"module_cache_size" validate:"min=1" jsonschema:"description=Compiled modules kept in memory"`
}

// Gas sets the budget of a top-level call and the host function prices.
type Gas struct {
	Limit           uint64 `mapstructure:"limit" json:"limit" validate:"min=1"`
	HostCall        uint64 `mapstructure:"host_call" json:"host_call"`
	PerByte         uint64 `mapstructure:"per_byte" json:"per_byte"`
	Secp256k1Verify uint64 `mapstructure:"secp256k1_verify" json:"secp256k1_verify"`
	Ed25519Verify   uint64 `mapstructure:"ed25519_verify" json:"ed25519_verify"`
}

// Chain identifies the simulated chain.
type Chain struct {
	ID           string `mapstructure:"id" json:"id" validate:"required"`
	Bech32Prefix string `mapstructure:"bech32_prefix" json:"bech32_prefix" validate:"required,lowercase,max=83"`
}

// CodeStore configures contract code persistence. Code is kept in memory
// unless Dir is set.
type CodeStore struct {
	Dir      string        `mapstructure:"dir" json:"dir,omitempty"`
	InMemory bool          `mapstructure:"in_memory" json:"in_memory" jsonschema:"description=Ignore dir and keep code in memory"`
	CacheMB  int           `mapstructure:"cache_mb" json:"cache_mb" validate:"min=0"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" json:"cache_ttl"`
}

// Persistent reports whether code outlives the process.
func (c CodeStore) Persistent() bool { return c.Dir != "" && !c.InMemory }

// Log configures the process logger.
type Log struct {
	Level       string `mapstructure:"level" json:"level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	File        string `mapstructure:"file" json:"file,omitempty"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" json:"max_size_mb" validate:"min=1"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups" validate:"min=0"`
	MaxAgeDays  int    `mapstructure:"max_age_days" json:"max_age_days" validate:"min=0"`
	Development bool   `mapstructure:"development" json:"development"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	costs := hostfuncs.DefaultGasCosts()
	return Config{
		Limits: Limits{
			MaxCallDepth:       hostfuncs.DefaultMaxCallDepth,
			MaxSubMessageDepth: host.DefaultMaxSubMessageDepth,
			ResultLimit:        executor.DefaultResultLimit,
			MemoryLimitPages:   host.DefaultMemoryLimitPages,
			ModuleCacheSize:    host.DefaultCacheSize,
		},
		Gas: Gas{
			Limit:           host.DefaultGasLimit,
			HostCall:        costs.HostCall,
			PerByte:         costs.PerByte,
			Secp256k1Verify: costs.Secp256k1Verify,
			Ed25519Verify:   costs.Ed25519Verify,
		},
		Chain: Chain{
			ID:           host.DefaultChainID,
			Bech32Prefix: address.DefaultPrefix,
		},
		CodeStore: CodeStore{
			CacheMB:  64,
			CacheTTL: time.Hour,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// validate is shared; building a validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report config keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("mapstructure")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field. Each failure is reported as a ConfigError
// naming the dotted config key.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &engerrors.ConfigError{Err: err}
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &engerrors.ConfigError{
			Field: key(fe.Namespace()),
			Err:   fmt.Errorf("failed on %q with value %v", fe.Tag(), fe.Value()),
		})
	}
	return errors.Join(out...)
}

// key turns a validator namespace such as "Config.gas.limit" into the
// config key "gas.limit".
func key(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}

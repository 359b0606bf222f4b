// Package config loads and validates the immutable configuration value
// threaded through every Entelgia constructor. There is no package-level
// mutable configuration; a Config is built once at startup and passed by
// value from then on.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the single configuration struct for an Entelgia run. All fields
// are optional with the defaults from spec.md section 6.
type Config struct {
	ModelSocrates string `mapstructure:"model_socrates" validate:"required"`
	ModelAthena   string `mapstructure:"model_athena" validate:"required"`
	ModelFixy     string `mapstructure:"model_fixy" validate:"required"`

	DataDir string `mapstructure:"data_dir" validate:"required"`

	STMMaxEntries int `mapstructure:"stm_max_entries" validate:"gt=0"`
	STMTrimBatch  int `mapstructure:"stm_trim_batch" validate:"gt=0,ltefield=STMMaxEntries"`

	FixyEveryNTurns int `mapstructure:"fixy_every_n_turns" validate:"gt=0"`
	DreamEveryNTurns int `mapstructure:"dream_every_n_turns" validate:"gt=0"`

	PromoteImportanceThreshold float64 `mapstructure:"promote_importance_threshold" validate:"gte=0,lte=1"`
	PromoteEmotionThreshold    float64 `mapstructure:"promote_emotion_threshold" validate:"gte=0,lte=1"`

	MaxTurns       int `mapstructure:"max_turns" validate:"gt=0"`
	TimeoutMinutes int `mapstructure:"timeout_minutes" validate:"gt=0"`

	SeedTopic    string `mapstructure:"seed_topic"`
	ShowPronouns bool   `mapstructure:"show_pronouns"`

	// EnableHallucinationCheck is loaded and echoed in the session dump, but
	// no component reads it: forced recharge is triggered only by the
	// deterministic energy threshold, whatever this flag is set to.
	EnableHallucinationCheck bool `mapstructure:"enable_hallucination_check"`

	// NeedBasedObserver selects the spec's need-based Observer. When false,
	// the legacy FixyEveryNTurns cadence is used instead (spec.md section 6).
	NeedBasedObserver bool `mapstructure:"need_based_observer"`

	// MemorySecretKey supplies the HMAC signing key for LTM records. Required,
	// read from the MEMORY_SECRET_KEY environment variable, never logged —
	// json:"-" also keeps it out of the session dump's config echo
	// (spec.md section 6's sessions/<id>.json).
	MemorySecretKey string `mapstructure:"-" json:"-" validate:"required,min=1"`
}

// Defaults returns the spec.md section 6 default configuration.
func Defaults() Config {
	return Config{
		ModelSocrates:              "phi",
		ModelAthena:                "phi",
		ModelFixy:                  "phi",
		DataDir:                    "entelgia_data",
		STMMaxEntries:              100000,
		STMTrimBatch:               2000,
		FixyEveryNTurns:            3,
		DreamEveryNTurns:           7,
		PromoteImportanceThreshold: 0.72,
		PromoteEmotionThreshold:    0.65,
		MaxTurns:                   200,
		TimeoutMinutes:             10,
		NeedBasedObserver:          true,
	}
}

// Load reads configuration from environment variables (prefix ENTELGIA_) and
// an optional YAML file named entelgia.yaml in the current directory, layered
// over Defaults(), then validates the result. MEMORY_SECRET_KEY is bound
// without the prefix, since it is a widely-documented external contract
// (spec.md section 6).
func Load() (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetConfigName("entelgia")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ENTELGIA")
	v.AutomaticEnv()
	// Unmarshal only sees keys viper already knows about, so each key is
	// bound explicitly to make env-only settings take effect.
	for _, key := range []string{
		"model_socrates", "model_athena", "model_fixy", "data_dir",
		"stm_max_entries", "stm_trim_batch", "fixy_every_n_turns", "dream_every_n_turns",
		"promote_importance_threshold", "promote_emotion_threshold", "max_turns", "timeout_minutes",
		"seed_topic", "show_pronouns", "enable_hallucination_check", "need_based_observer",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshaling: %w", err)
	}

	cfg.MemorySecretKey = os.Getenv("MEMORY_SECRET_KEY")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags above. A missing MEMORY_SECRET_KEY is
// fatal (validator's "required"); a short-but-present one is not — callers
// should surface WeakSecretWarning as a WARN log instead, per spec.md
// section 7's configuration-error taxonomy.
func (c Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

// WeakSecretWarning returns a non-empty advisory message when the signing
// key is shorter than the recommended 32 bytes (spec.md section 6).
func (c Config) WeakSecretWarning() string {
	if len(c.MemorySecretKey) < 32 {
		return "MEMORY_SECRET_KEY is shorter than the recommended 32 bytes"
	}
	return ""
}

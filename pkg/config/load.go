package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/theoremlab/bootstrap/pkg/errors"
)

// Load reads a YAML configuration file over the defaults and validates
// the result. Any problem here is fatal before the first round runs.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ConfigInvalid, "reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.ConfigInvalid, "parsing config file")
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks a resolved configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ConfigInvalid, "nil configuration")
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return errors.Wrap(err, errors.ConfigInvalid, "invalid configuration")
	}

	if cfg.TrainPolicyOnHindsightExamples && len(cfg.DifficultyBuckets) == 0 {
		return errors.New(errors.ConfigInvalid,
			"train_policy_on_hindsight_examples requires at least one difficulty bucket")
	}

	return nil
}

// Package config loads the YAML run configuration used by the knn command.
package config

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/goknn/distance"
	"github.com/YuminosukeSato/goknn/knn"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/YuminosukeSato/goknn/pkg/log"
	"github.com/YuminosukeSato/goknn/preprocessing"
	"gopkg.in/yaml.v3"
)

// DefaultDataset is the dataset path used when none is configured.
const DefaultDataset = "./data/ionosphere.data"

// test_size + train_size が 1 とみなされる許容誤差
const sizeTolerance = 1e-9

// Config is a run configuration.
type Config struct {
	Dataset   string  `yaml:"dataset"`
	K         int     `yaml:"k"`
	Backend   string  `yaml:"backend"`
	TestSize  float64 `yaml:"test_size"`
	TrainSize float64 `yaml:"train_size"`

	Shuffle bool  `yaml:"shuffle"`
	Seed    int64 `yaml:"seed"`

	// Standardize is shorthand for Scaler: standard.
	Standardize bool   `yaml:"standardize"`
	Scaler      string `yaml:"scaler,omitempty"`

	NJobs        int    `yaml:"n_jobs"`
	NativeKernel string `yaml:"native_kernel,omitempty"`
	LogLevel     string `yaml:"log_level"`
	HistoryDB    string `yaml:"history_db,omitempty"`
}

// rawConfig mirrors Config but keeps k undecoded so that "3" and 3.5 can be
// told apart from 3.
type rawConfig struct {
	Dataset      *string     `yaml:"dataset"`
	K            interface{} `yaml:"k"`
	Backend      *string     `yaml:"backend"`
	TestSize     *float64    `yaml:"test_size"`
	TrainSize    *float64    `yaml:"train_size"`
	Shuffle      *bool       `yaml:"shuffle"`
	Seed         *int64      `yaml:"seed"`
	Standardize  *bool       `yaml:"standardize"`
	Scaler       *string     `yaml:"scaler"`
	NJobs        *int        `yaml:"n_jobs"`
	NativeKernel *string     `yaml:"native_kernel"`
	LogLevel     *string     `yaml:"log_level"`
	HistoryDB    *string     `yaml:"history_db"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Dataset:   DefaultDataset,
		K:         5,
		Backend:   distance.Reference.String(),
		TestSize:  0.2,
		TrainSize: 0.8,
		NJobs:     1,
		LogLevel:  "info",
	}
}

// Load reads the configuration at path. An empty path returns Default().
// A path without an extension that does not exist is retried with ".yaml"
// appended, so "-c config" finds config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if filepath.Ext(path) == "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path += ".yaml"
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML from r over Default() and validates the result.
// Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	var raw rawConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return nil, errors.NewValueError("config.Parse", err.Error())
	}

	cfg := Default()
	if err := cfg.apply(&raw); err != nil {
		return nil, err
	}
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(raw *rawConfig) error {
	if raw.K != nil {
		k, err := knn.IntParam("k", raw.K)
		if err != nil {
			return err
		}
		c.K = k
	}

	setString(&c.Dataset, raw.Dataset)
	setString(&c.Backend, raw.Backend)
	setString(&c.Scaler, raw.Scaler)
	setString(&c.NativeKernel, raw.NativeKernel)
	setString(&c.LogLevel, raw.LogLevel)
	setString(&c.HistoryDB, raw.HistoryDB)

	if raw.TestSize != nil {
		c.TestSize = *raw.TestSize
	}
	if raw.TrainSize != nil {
		c.TrainSize = *raw.TrainSize
	}
	if raw.Shuffle != nil {
		c.Shuffle = *raw.Shuffle
	}
	if raw.Seed != nil {
		c.Seed = *raw.Seed
	}
	if raw.Standardize != nil {
		c.Standardize = *raw.Standardize
	}
	if raw.NJobs != nil {
		c.NJobs = *raw.NJobs
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// expandEnvVars expands ${VAR} references in path settings.
func (c *Config) expandEnvVars() {
	c.Dataset = os.ExpandEnv(c.Dataset)
	c.NativeKernel = os.ExpandEnv(c.NativeKernel)
	c.HistoryDB = os.ExpandEnv(c.HistoryDB)
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return errors.NewValidationError("dataset", "must not be empty", c.Dataset)
	}
	if err := knn.ValidateK(c.K); err != nil {
		return err
	}
	if _, err := distance.ParseBackend(c.Backend); err != nil {
		return err
	}
	if math.Abs(c.TestSize+c.TrainSize-1.0) >= sizeTolerance {
		return errors.NewValidationError("test_size",
			"test_size and train_size must sum to 1.0", c.TestSize+c.TrainSize)
	}
	if !(c.TestSize > 0 && c.TestSize < 1) {
		return errors.NewValidationError("test_size", "must be in (0, 1)", c.TestSize)
	}
	if _, err := preprocessing.New(c.Scaler); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ScalerKind returns the effective scaler name: Scaler if set, otherwise
// "standard" when Standardize is true.
func (c *Config) ScalerKind() string {
	if c.Scaler == "" && c.Standardize {
		return "standard"
	}
	return c.Scaler
}

// ClassifierParams returns the parameter map accepted by knn.NewFromParams.
func (c *Config) ClassifierParams() map[string]interface{} {
	return map[string]interface{}{
		"k":       c.K,
		"backend": c.Backend,
		"n_jobs":  c.NJobs,
	}
}

// Save writes c as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

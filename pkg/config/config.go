package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/constrictdb/constrict/pkg/models"
)

// Config holds all configuration for constrict.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (the datasource password) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Input files. SnapshotPath may be empty when capturing live.
	ModelPath    string `yaml:"model_path" env:"MODEL_PATH" env-default:"model.json"`
	SnapshotPath string `yaml:"snapshot_path" env:"SNAPSHOT_PATH" env-default:""`

	// ReportPath is where the decision report JSON is written.
	ReportPath string `yaml:"report_path" env:"REPORT_PATH" env-default:"tightening-report.json"`

	// Datasource is the SQL Server to profile when no snapshot file is given.
	Datasource DatasourceConfig `yaml:"datasource"`

	// Policy holds the tightening options for this run.
	Policy PolicyConfig `yaml:"policy"`
}

// DatasourceConfig holds SQL Server connection settings for live profiling.
type DatasourceConfig struct {
	Host     string `yaml:"host" env:"MSSQL_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"MSSQL_PORT" env-default:"1433"`
	User     string `yaml:"user" env:"MSSQL_USER" env-default:"sa"`
	Password string `yaml:"-" env:"MSSQL_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"MSSQL_DATABASE" env-default:"master"`

	// SampleLimit caps null-row samples fetched per column.
	SampleLimit int `yaml:"sample_limit" env:"MSSQL_SAMPLE_LIMIT" env-default:"5"`
}

// ConnectionString returns a go-mssqldb connection string.
func (c *DatasourceConfig) ConnectionString() string {
	return fmt.Sprintf(
		"server=%s;port=%d;user id=%s;password=%s;database=%s",
		c.Host, c.Port, c.User, c.Password, c.Database,
	)
}

// PolicyConfig is the YAML/env shape of models.TighteningOptions.
type PolicyConfig struct {
	Mode       string  `yaml:"mode" env:"POLICY_MODE" env-default:"evidence-gated"`
	NullBudget float64 `yaml:"null_budget" env:"POLICY_NULL_BUDGET" env-default:"0"`

	DisableCautiousRelaxation bool `yaml:"disable_cautious_relaxation" env:"POLICY_DISABLE_CAUTIOUS_RELAXATION" env-default:"false"`

	ForeignKeys models.ForeignKeyOptions `yaml:"foreign_keys"`
	Uniqueness  models.UniquenessOptions `yaml:"uniqueness"`

	NamingOverrides []models.NamingOverride `yaml:"naming_overrides"`

	NullSampleLimit int `yaml:"null_sample_limit" env:"POLICY_NULL_SAMPLE_LIMIT" env-default:"0"`
}

// Load reads configuration from the given YAML file with environment
// variable overrides. The version parameter is injected at build time.
func Load(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		// No config file; environment variables and defaults only.
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if _, err := cfg.TighteningOptions(); err != nil {
		return nil, fmt.Errorf("invalid policy configuration: %w", err)
	}

	return cfg, nil
}

// TighteningOptions converts the policy section into validated engine
// options.
func (c *Config) TighteningOptions() (models.TighteningOptions, error) {
	mode, err := models.ParsePolicyMode(c.Policy.Mode)
	if err != nil {
		return models.TighteningOptions{}, err
	}

	opts := models.TighteningOptions{
		Mode:                      mode,
		NullBudget:                c.Policy.NullBudget,
		DisableCautiousRelaxation: c.Policy.DisableCautiousRelaxation,
		ForeignKeys:               c.Policy.ForeignKeys,
		Uniqueness:                c.Policy.Uniqueness,
		NamingOverrides:           c.Policy.NamingOverrides,
		NullSampleLimit:           c.Policy.NullSampleLimit,
	}
	if err := opts.Validate(); err != nil {
		return models.TighteningOptions{}, err
	}
	return opts, nil
}

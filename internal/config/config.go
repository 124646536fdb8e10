package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "salespipe/internal/errors"
)

// Config represents the complete pipeline configuration
type Config struct {
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Tracing   TracingConfig   `yaml:"tracing" envconfig:"TRACING"`
}

// InputConfig locates the three raw source files
type InputConfig struct {
	Dir           string `yaml:"dir" envconfig:"DIR" validate:"required"`
	OnlineFile    string `yaml:"online_file" envconfig:"ONLINE_FILE" validate:"required"`
	RetailFile    string `yaml:"retail_file" envconfig:"RETAIL_FILE" validate:"required"`
	WholesaleFile string `yaml:"wholesale_file" envconfig:"WHOLESALE_FILE" validate:"required"`
}

// OutputConfig locates the generated artifacts
type OutputConfig struct {
	Dir           string `yaml:"dir" envconfig:"DIR" validate:"required"`
	CleanCSV      string `yaml:"clean_csv" envconfig:"CLEAN_CSV" validate:"required"`
	ResultsJSON   string `yaml:"results_json" envconfig:"RESULTS_JSON" validate:"required"`
	Workbook      string `yaml:"workbook" envconfig:"WORKBOOK"`
	WriteWorkbook bool   `yaml:"write_workbook" envconfig:"WRITE_WORKBOOK"`
	CSVBom        bool   `yaml:"csv_bom" envconfig:"CSV_BOM"`
}

// CleaningConfig contains cleaning thresholds
type CleaningConfig struct {
	// OutlierPercentile is the revenue percentile above which rows are
	// dropped, recomputed from the data each run.
	OutlierPercentile float64 `yaml:"outlier_percentile" envconfig:"OUTLIER_PERCENTILE" validate:"gt=0,lt=1"`
}

// AnalyticsConfig contains aggregation policy knobs
type AnalyticsConfig struct {
	// SignificanceLevel is the p-value threshold for the Q4 test.
	SignificanceLevel float64 `yaml:"significance_level" envconfig:"SIGNIFICANCE_LEVEL" validate:"gt=0,lt=1"`
	// FailFast switches the aggregator from lenient (skip a degenerate
	// KPI, keep the rest) to all-or-nothing.
	FailFast bool `yaml:"fail_fast" envconfig:"FAIL_FAST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	Dir      string `yaml:"dir" envconfig:"DIR"`
	FileName string `yaml:"file_name" envconfig:"FILE_NAME"`
}

// TracingConfig contains OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" envconfig:"ENABLED"`
	Exporter    string  `yaml:"exporter" envconfig:"EXPORTER" validate:"oneof=stdout none"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	ServiceName string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	PrettyPrint bool    `yaml:"pretty_print" envconfig:"PRETTY_PRINT"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Dir:           "data",
			OnlineFile:    "sales_online.csv",
			RetailFile:    "sales_retail.csv",
			WholesaleFile: "sales_wholesale.csv",
		},
		Output: OutputConfig{
			Dir:           "outputs",
			CleanCSV:      "sales_master.csv",
			ResultsJSON:   "analysis_results.json",
			Workbook:      "dashboard.xlsx",
			WriteWorkbook: false,
			CSVBom:        true,
		},
		Cleaning: CleaningConfig{
			OutlierPercentile: 0.999,
		},
		Analytics: AnalyticsConfig{
			SignificanceLevel: 0.05,
			FailFast:          false,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			Dir:      "logs",
			FileName: "salespipe.log",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    "stdout",
			SampleRatio: 1.0,
			ServiceName: "salespipe",
			PrettyPrint: true,
		},
	}
}

// Load resolves the configuration: defaults, then the YAML file (explicit
// path or probed locations), then SALES_* environment overrides, then
// validation. The returned value is complete and safe to pass to stages.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := configFilePath(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		if err := loadFromFile(file, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config file", err).
				WithContext("path", file)
		}
	}

	// Environment variables override file values
	if err := envconfig.Process("SALES", cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays YAML file values onto cfg. Keys absent from the
// file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// configFilePath returns the config file to use: the explicit path (which
// must exist), a probed default location, or "" for defaults+env only.
func configFilePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", apperrors.NewConfigError("config file not found", err).
				WithContext("path", path)
		}
		return path, nil
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", nil
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	if c.Logging.Output != "stdout" && c.Logging.FileName == "" {
		return apperrors.NewConfigError(
			fmt.Sprintf("logging output %q requires a file name", c.Logging.Output), nil)
	}
	if c.Output.WriteWorkbook && c.Output.Workbook == "" {
		return apperrors.NewConfigError("workbook export enabled without a workbook file name", nil)
	}

	return nil
}

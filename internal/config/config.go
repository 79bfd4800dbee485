// =============================================================================
// Budget Builder - Configuration Module
// =============================================================================
//
// This module loads the YAML run configuration. Everything that used to be a
// module level constant in the publishing scripts (column indices, marker
// tokens, extras keys, default link) lives here and is passed explicitly to
// the components that need it.
//
// LOADING ORDER:
//   1. Parse the YAML file
//   2. Apply defaults for unset optional values
//   3. Apply BUDGET_* environment overrides (optionally read from a .env file)
//   4. Validate (missing column mappings are fatal)
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment overrides (BUDGET_INPUT_FILE...).
const EnvPrefix = "budget"

// DefaultSourceLink is used for rows without a link of their own.
const DefaultSourceLink = "https://budjetti.vm.fi"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the full configuration of one build run.
type Config struct {
	// Input describes where the raw rows come from.
	Input InputConfig `yaml:"input"`

	// Columns maps row fields to 0-based cell indices in the main sheet.
	Columns ColumnMapping `yaml:"columns"`

	// Markers are literal tokens recognised in the data.
	Markers Markers `yaml:"markers"`

	// ExtrasKeys are the keys of the side table feeding the summary.
	ExtrasKeys ExtrasKeys `yaml:"extras_keys"`

	// Report holds assembly options.
	Report ReportConfig `yaml:"report"`

	// Output controls the generated files.
	Output OutputConfig `yaml:"output"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogFile is an optional extra log destination next to stderr.
	LogFile string `yaml:"log_file"`
}

// InputConfig describes the source files.
type InputConfig struct {
	// File is the main export, .xlsx or .csv. Usually given with --input.
	File string `yaml:"file"`

	// Format forces "xlsx" or "csv". Empty means detect from the extension.
	Format string `yaml:"format" validate:"omitempty,oneof=xlsx csv"`

	// Sheet is the worksheet holding the budget rows (xlsx only).
	// Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// ExtrasSheet is the worksheet holding the [key, value] extras table.
	ExtrasSheet string `yaml:"extras_sheet"`

	// ExtrasFile is an alternative source for the extras table, a two
	// column CSV. Used when the main input is CSV.
	ExtrasFile string `yaml:"extras_file"`

	// CSV contains settings for CSV input.
	CSV CSVSettings `yaml:"csv"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the field separator. The ministry open data files use ";".
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// Encoding of the file.
	// Valid values: "UTF-8", "ISO-8859-1", "ISO-8859-10", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding" validate:"oneof=UTF-8 ISO-8859-1 ISO-8859-10 Windows-1252"`
}

// ColumnMapping maps fields to cell indices. Pointers tell a missing key
// apart from column 0.
type ColumnMapping struct {
	Income        *int `yaml:"income" validate:"required,min=0"`
	Depth         *int `yaml:"depth" validate:"required,min=0"`
	Address       *int `yaml:"address" validate:"required,min=0"`
	ChapterLabel  *int `yaml:"chapter_label" validate:"required,min=0"`
	CategoryLabel *int `yaml:"category_label" validate:"required,min=0"`
	ItemLabel     *int `yaml:"item_label" validate:"required,min=0"`
	Baseline      *int `yaml:"baseline" validate:"required,min=0"`
	Alternative   *int `yaml:"alternative" validate:"required,min=0"`
	Rationale     *int `yaml:"rationale" validate:"required,min=0"`

	// Optional columns.
	DifferencePercent *int `yaml:"difference_percent" validate:"omitempty,min=0"`
	SourceLink        *int `yaml:"source_link" validate:"omitempty,min=0"`
}

// ColumnIndices is the resolved form of ColumnMapping handed to the
// classifier. Optional columns that are not configured are -1.
type ColumnIndices struct {
	Income            int
	Depth             int
	Address           int
	ChapterLabel      int
	CategoryLabel     int
	ItemLabel         int
	Baseline          int
	Alternative       int
	Rationale         int
	DifferencePercent int
	SourceLink        int
}

// Markers are literal tokens in the data.
type Markers struct {
	// Income is the token in the income column marking income lines.
	// Default: "tulo"
	Income string `yaml:"income"`

	// HeaderSentinel is the header word of the baseline column, repeated
	// mid-table at section boundaries.
	// Default: "Määräraha"
	HeaderSentinel string `yaml:"header_sentinel"`
}

// ExtrasKeys names the keys of the extras side table.
type ExtrasKeys struct {
	TasksRemoved         string `yaml:"tasks_removed"`
	TaxpayerMoneySaved   string `yaml:"taxpayer_money_saved"`
	TaxCuts              string `yaml:"tax_cuts"`
	DeficitReduction     string `yaml:"deficit_reduction"`
	CutPercent           string `yaml:"cut_percent"`
	DebtReductionPercent string `yaml:"debt_reduction_percent"`
}

// ReportConfig holds assembly options.
type ReportConfig struct {
	// DefaultSourceLink replaces empty link cells.
	DefaultSourceLink string `yaml:"default_source_link" validate:"url"`

	// DivergenceThreshold is the difference in percentage points above
	// which a reported cut percentage and the derived one are flagged.
	// Default: "1"
	DivergenceThreshold string `yaml:"divergence_threshold" validate:"numeric"`

	// RollupMissingParents synthesizes missing chapter and category rows by
	// summing their children instead of failing the build.
	RollupMissingParents bool `yaml:"rollup_missing_parents"`
}

// OutputConfig controls the generated files.
type OutputConfig struct {
	// Dir is where the XML document and logs are written.
	// Default: "./output"
	Dir string `yaml:"dir" validate:"required"`

	// FileNameFormat is the output name template.
	// Placeholders: {uuid}, {timestamp}, {date}, {time}, {original}
	// Default: "budget_{timestamp}.xml"
	FileNameFormat string `yaml:"file_name_format" validate:"required"`

	// WriteErrorLog writes diagnostics to error_log_<timestamp>.txt.
	WriteErrorLog *bool `yaml:"write_error_log"`
}

// envOverrides is filled by envconfig. Empty values leave the file config
// untouched.
type envOverrides struct {
	InputFile string `envconfig:"INPUT_FILE"`
	OutputDir string `envconfig:"OUTPUT_DIR"`
	LogLevel  string `envconfig:"LOG_LEVEL"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read, parsed or validated.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadEnvFile loads BUDGET_* variables from a dotenv file into the process
// environment. Variables already set are kept. A missing file is not an
// error.
//
// RETURNS:
//   - true if the file was found and loaded.
//   - An error if the file exists but cannot be parsed.
func LoadEnvFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return true, nil
}

// Parse builds a Config from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.Input.CSV.Delimiter == "" {
		cfg.Input.CSV.Delimiter = ";"
	}
	if cfg.Input.CSV.Encoding == "" {
		cfg.Input.CSV.Encoding = "UTF-8"
	}

	if cfg.Markers.Income == "" {
		cfg.Markers.Income = "tulo"
	}
	if cfg.Markers.HeaderSentinel == "" {
		cfg.Markers.HeaderSentinel = "Määräraha"
	}

	defaults := DefaultExtrasKeys()
	k := &cfg.ExtrasKeys
	setDefault(&k.TasksRemoved, defaults.TasksRemoved)
	setDefault(&k.TaxpayerMoneySaved, defaults.TaxpayerMoneySaved)
	setDefault(&k.TaxCuts, defaults.TaxCuts)
	setDefault(&k.DeficitReduction, defaults.DeficitReduction)
	setDefault(&k.CutPercent, defaults.CutPercent)
	setDefault(&k.DebtReductionPercent, defaults.DebtReductionPercent)

	if cfg.Report.DefaultSourceLink == "" {
		cfg.Report.DefaultSourceLink = DefaultSourceLink
	}
	if cfg.Report.DivergenceThreshold == "" {
		cfg.Report.DivergenceThreshold = "1"
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./output"
	}
	if cfg.Output.FileNameFormat == "" {
		cfg.Output.FileNameFormat = "budget_{timestamp}.xml"
	}
	if cfg.Output.WriteErrorLog == nil {
		on := true
		cfg.Output.WriteErrorLog = &on
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// DefaultExtrasKeys returns the keys used in the published sheets.
func DefaultExtrasKeys() ExtrasKeys {
	return ExtrasKeys{
		TasksRemoved:         "Valtiolta poistetut tehtävät",
		TaxpayerMoneySaved:   "Veronmaksajien rahaa säästetty",
		TaxCuts:              "Veronalennukset",
		DeficitReduction:     "Alijäämän pienennys",
		CutPercent:           "Leikkausprosentti",
		DebtReductionPercent: "Velanoton vähennys prosentteina",
	}
}

// applyEnv applies BUDGET_* environment variables on top of the file.
func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if env.InputFile != "" {
		cfg.Input.File = env.InputFile
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(env.LogLevel)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration. Field errors are reported with their
// YAML path, e.g. "columns.baseline".
func (c *Config) Validate() error {
	var msgs []string

	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return err
		}
		for _, fe := range fieldErrors {
			msgs = append(msgs, formatFieldError(fe))
		}
	}

	if d, err := decimal.NewFromString(c.Report.DivergenceThreshold); err == nil && d.IsNegative() {
		msgs = append(msgs, fmt.Sprintf("report.divergence_threshold must not be negative, got %q", c.Report.DivergenceThreshold))
	}

	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	path := yamlPath(fe.StructNamespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "min":
		return fmt.Sprintf("%s must be at least %s", path, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", path, fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", path, fe.Value())
	case "numeric":
		return fmt.Sprintf("%s must be a number, got %q", path, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", path, fe.Tag())
	}
}

// yamlPath turns "Config.Columns.ChapterLabel" into "columns.chapter_label".
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		prevLower = !upper
		b.WriteRune(r)
	}
	return b.String()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Indices resolves the mapping. Call it only on a validated Config.
func (m ColumnMapping) Indices() ColumnIndices {
	return ColumnIndices{
		Income:            deref(m.Income),
		Depth:             deref(m.Depth),
		Address:           deref(m.Address),
		ChapterLabel:      deref(m.ChapterLabel),
		CategoryLabel:     deref(m.CategoryLabel),
		ItemLabel:         deref(m.ItemLabel),
		Baseline:          deref(m.Baseline),
		Alternative:       deref(m.Alternative),
		Rationale:         deref(m.Rationale),
		DifferencePercent: deref(m.DifferencePercent),
		SourceLink:        deref(m.SourceLink),
	}
}

func deref(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

// Threshold returns the divergence threshold as a decimal.
func (r ReportConfig) Threshold() decimal.Decimal {
	d, err := decimal.NewFromString(r.DivergenceThreshold)
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return d
}

// ErrorLogEnabled reports whether diagnostics are written to a file.
func (o OutputConfig) ErrorLogEnabled() bool {
	return o.WriteErrorLog == nil || *o.WriteErrorLog
}

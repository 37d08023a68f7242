// =============================================================================
// POS Ledger - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Settings come from, in
// increasing precedence:
//   1. Built-in defaults
//   2. The YAML configuration file (config.yaml)
//   3. A .env file and POSLEDGER_* environment variables
//   4. Command-line flags (applied by the cmd package)
//
// A missing configuration file is not an error; defaults apply. An invalid
// configuration is rejected before any export file is read.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// INPUT
	// =========================================================================

	// WorkingDir is the flat directory holding one batch of downloaded exports.
	// Default: "./latest"
	WorkingDir string `yaml:"working_dir" validate:"required"`

	// Encoding is the character encoding of the export files.
	// Valid values: "utf-8", "windows-1252", "iso-8859-1"
	// Default: "utf-8"
	Encoding string `yaml:"encoding" validate:"oneof=utf-8 windows-1252 iso-8859-1"`

	// =========================================================================
	// OUTPUT
	// =========================================================================

	// LedgerFile is the append-only master CSV.
	// Default: "./record.csv"
	LedgerFile string `yaml:"ledger_file" validate:"required"`

	// MismatchFile records (pos, branch, date) groups whose rows carried
	// another date.
	// Default: "./masterData_errorMonitoring.csv"
	MismatchFile string `yaml:"mismatch_file" validate:"required"`

	// HeaderTemplate supplies the ledger header line (.csv, .txt or .xlsx).
	// Default: "./aaa_headers.csv"
	HeaderTemplate string `yaml:"header_template"`

	// SummaryDir, when set, receives a text summary of every run.
	SummaryDir string `yaml:"summary_dir"`

	// =========================================================================
	// BRANCH RULES
	// =========================================================================

	// NewBranches lists branches whose item master carries department codes.
	NewBranches []string `yaml:"new_branches"`

	// NewBranchesFile is read in addition to NewBranches, one branch per line.
	// A missing file contributes nothing.
	// Default: "./settings/newBranches.txt"
	NewBranchesFile string `yaml:"new_branches_file"`

	// LoyaltyIDLength is the exact length of a loyalty customer id.
	// 0 accepts any length.
	// Default: 11
	LoyaltyIDLength *int `yaml:"loyalty_id_length" validate:"omitempty,min=0"`

	// =========================================================================
	// ARCHIVAL
	// =========================================================================

	// ArchiveDir receives the files of processed groups when archiving is on.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveOnSuccess moves a group's files to ArchiveDir once processed.
	ArchiveOnSuccess bool `yaml:"archive_on_success"`

	// ArchiveTimestampSubdirs files archives under YYYY/MM/DD.
	ArchiveTimestampSubdirs bool `yaml:"archive_timestamp_subdirs"`

	// =========================================================================
	// LOGGING
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn error"`

	// LogFormat selects console (human) or json output.
	// Default: "console"
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`
}

// LoyaltyLength returns the configured loyalty id length.
func (c *MainConfig) LoyaltyLength() int {
	if c.LoyaltyIDLength == nil {
		return DefaultLoyaltyIDLength
	}
	return *c.LoyaltyIDLength
}

// DefaultLoyaltyIDLength is the length of a mobile-number loyalty id.
const DefaultLoyaltyIDLength = 11

// EnvPrefix namespaces the environment overrides.
const EnvPrefix = "POSLEDGER_"

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML file. It may not exist.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file exists but cannot be parsed, or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()
	if err := applyEnvOverrides(&config); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	ApplyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// ApplyDefaults sets default values for any unset configuration options.
func ApplyDefaults(config *MainConfig) {
	if config.WorkingDir == "" {
		config.WorkingDir = "./latest"
	}
	if config.Encoding == "" {
		config.Encoding = "utf-8"
	}
	config.Encoding = strings.ToLower(config.Encoding)
	if config.LedgerFile == "" {
		config.LedgerFile = "./record.csv"
	}
	if config.MismatchFile == "" {
		config.MismatchFile = "./masterData_errorMonitoring.csv"
	}
	if config.HeaderTemplate == "" {
		config.HeaderTemplate = "./aaa_headers.csv"
	}
	if config.NewBranchesFile == "" {
		config.NewBranchesFile = "./settings/newBranches.txt"
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = "./archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	config.LogLevel = strings.ToLower(config.LogLevel)
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
}

// applyEnvOverrides copies POSLEDGER_* variables over the YAML values.
func applyEnvOverrides(config *MainConfig) error {
	strs := map[string]*string{
		"WORKING_DIR":     &config.WorkingDir,
		"LEDGER_FILE":     &config.LedgerFile,
		"MISMATCH_FILE":   &config.MismatchFile,
		"HEADER_TEMPLATE": &config.HeaderTemplate,
		"ENCODING":        &config.Encoding,
		"ARCHIVE_DIR":     &config.ArchiveDir,
		"SUMMARY_DIR":     &config.SummaryDir,
		"LOG_LEVEL":       &config.LogLevel,
		"LOG_FORMAT":      &config.LogFormat,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "LOYALTY_ID_LENGTH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sLOYALTY_ID_LENGTH: %w", EnvPrefix, err)
		}
		config.LoyaltyIDLength = &n
	}
	return nil
}

// validate is shared; validator.Validate caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its struct tags.
func Validate(config *MainConfig) error {
	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// =============================================================================
// BRANCH LIST
// =============================================================================

// NewBranchSet returns the union of the inline list and the branch file.
// Lines are trimmed and blank lines ignored.
func (c *MainConfig) NewBranchSet() (map[string]bool, error) {
	set := make(map[string]bool, len(c.NewBranches))
	for _, b := range c.NewBranches {
		if b = strings.TrimSpace(b); b != "" {
			set[b] = true
		}
	}

	if c.NewBranchesFile == "" {
		return set, nil
	}
	data, err := os.ReadFile(c.NewBranchesFile)
	if errors.Is(err, fs.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read new branches file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if b := strings.TrimSpace(line); b != "" {
			set[b] = true
		}
	}
	return set, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Taxonomy and archive backends.
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
	SourceYAML   = "yaml"
	SinkNone     = "none"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Interactions InteractionsConfig `mapstructure:"interactions"`
	Lark         LarkConfig         `mapstructure:"lark"`
	Departments  DepartmentsConfig  `mapstructure:"departments"`
	Access       AccessConfig       `mapstructure:"access"`
	Dialog       DialogConfig       `mapstructure:"dialog"`
	Taxonomy     TaxonomyConfig     `mapstructure:"taxonomy"`
	Archive      ArchiveConfig      `mapstructure:"archive"`
	Sheets       SheetsConfig       `mapstructure:"sheets"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
}

// ServerConfig holds admin HTTP server configuration
type ServerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// InteractionsConfig locates the file that remembers posted approval prompts.
type InteractionsConfig struct {
	Path string `mapstructure:"path"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// DepartmentsConfig lists the open ids on each roster.
type DepartmentsConfig struct {
	Head    []string          `mapstructure:"head"`
	Finance []string          `mapstructure:"finance"`
	Payers  []string          `mapstructure:"payers"`
	Names   map[string]string `mapstructure:"names"`
}

// AccessConfig gates who may talk to the bot and who may submit.
type AccessConfig struct {
	Whitelist    []string `mapstructure:"whitelist"`
	Initiators   []string `mapstructure:"initiators"`
	OperatorChat string   `mapstructure:"operator_chat"`
}

// DialogConfig holds dialog choices that are not taken from the taxonomy.
type DialogConfig struct {
	PaymentMethods []string `mapstructure:"payment_methods"`
}

// TaxonomyConfig selects where expense categories come from.
type TaxonomyConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
	Sheet  string `mapstructure:"sheet"`
}

// ArchiveConfig selects where paid records are appended.
type ArchiveConfig struct {
	Sink  string `mapstructure:"sink"`
	Path  string `mapstructure:"path"`
	Sheet string `mapstructure:"sheet"`
}

// SheetsConfig holds Google Sheets access.
type SheetsConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	TaxonomyRange   string `mapstructure:"taxonomy_range"`
	LedgerRange     string `mapstructure:"ledger_range"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	OutputPath  string `mapstructure:"output_path"`
}

// Load reads envPath (a dotenv file, optional) into the environment, then the
// YAML file at configPath (optional), then environment overrides.
func Load(configPath, envPath string) (*Config, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := gotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("failed to load env file: %w", err)
			}
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/budget.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	v.SetDefault("interactions.path", "data/interactions.db")

	v.SetDefault("dialog.payment_methods", []string{"нал", "безнал", "крипта"})

	v.SetDefault("taxonomy.source", SourceYAML)
	v.SetDefault("taxonomy.path", "configs/taxonomy.yaml")
	v.SetDefault("taxonomy.sheet", "Categories")

	v.SetDefault("archive.sink", SourceXLSX)
	v.SetDefault("archive.path", "data/ledger.xlsx")
	v.SetDefault("archive.sheet", "Records")

	v.SetDefault("sheets.taxonomy_range", "Categories!A2:C")
	v.SetDefault("sheets.ledger_range", "Records!A1")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "budget-approval")
}

// bindEnvVars binds environment variables to configuration. List values are
// comma-separated.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("lark.app_id", "LARK_APP_ID")
	v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	v.BindEnv("departments.head", "HEAD_IDS")
	v.BindEnv("departments.finance", "FINANCE_IDS")
	v.BindEnv("departments.payers", "PAYERS_IDS")
	v.BindEnv("access.whitelist", "WHITE_LIST")
	v.BindEnv("access.initiators", "INITIATOR_IDS")
	v.BindEnv("access.operator_chat", "OPERATOR_CHAT_ID")
	v.BindEnv("sheets.credentials_file", "SHEETS_CREDENTIALS_FILE")
	v.BindEnv("sheets.spreadsheet_id", "SPREADSHEET_ID")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("logger.level", "LOG_LEVEL")
}

// normalize splits comma-joined list entries and drops blanks, so lists read
// from the environment and from YAML look the same.
func (c *Config) normalize() {
	c.Departments.Head = splitList(c.Departments.Head)
	c.Departments.Finance = splitList(c.Departments.Finance)
	c.Departments.Payers = splitList(c.Departments.Payers)
	c.Access.Whitelist = splitList(c.Access.Whitelist)
	c.Access.Initiators = splitList(c.Access.Initiators)
	c.Dialog.PaymentMethods = splitList(c.Dialog.PaymentMethods)
	c.Taxonomy.Source = strings.ToLower(strings.TrimSpace(c.Taxonomy.Source))
	c.Archive.Sink = strings.ToLower(strings.TrimSpace(c.Archive.Sink))
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Lark.AppID == "" {
		errs = append(errs, fmt.Errorf("lark.app_id is required"))
	}
	if c.Lark.AppSecret == "" {
		errs = append(errs, fmt.Errorf("lark.app_secret is required"))
	}

	if len(c.Departments.Head) == 0 {
		errs = append(errs, fmt.Errorf("departments.head needs at least one member"))
	}
	if len(c.Departments.Finance) == 0 {
		errs = append(errs, fmt.Errorf("departments.finance needs at least one member"))
	}
	if len(c.Departments.Payers) == 0 {
		errs = append(errs, fmt.Errorf("departments.payers needs at least one member"))
	}

	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}
	if c.Interactions.Path == "" {
		errs = append(errs, fmt.Errorf("interactions.path is required"))
	}

	switch c.Taxonomy.Source {
	case SourceSheets:
	case SourceXLSX, SourceYAML:
		if c.Taxonomy.Path == "" {
			errs = append(errs, fmt.Errorf("taxonomy.path is required for source %q", c.Taxonomy.Source))
		}
	default:
		errs = append(errs, fmt.Errorf("taxonomy.source must be sheets, xlsx or yaml, got %q", c.Taxonomy.Source))
	}

	switch c.Archive.Sink {
	case SourceSheets, SinkNone:
	case SourceXLSX:
		if c.Archive.Path == "" {
			errs = append(errs, fmt.Errorf("archive.path is required for sink %q", c.Archive.Sink))
		}
	default:
		errs = append(errs, fmt.Errorf("archive.sink must be sheets, xlsx or none, got %q", c.Archive.Sink))
	}

	if c.UsesSheets() && c.Sheets.SpreadsheetID == "" {
		errs = append(errs, fmt.Errorf("sheets.spreadsheet_id is required when sheets are used"))
	}

	return errors.Join(errs...)
}

// UsesSheets reports whether any component talks to Google Sheets.
func (c *Config) UsesSheets() bool {
	return c.Taxonomy.Source == SourceSheets || c.Archive.Sink == SourceSheets
}

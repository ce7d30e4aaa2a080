package cfg

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// Mode is a feature switch that can follow SQLite's capabilities.
type Mode string

const (
	ModeAuto Mode = "auto" // enabled when the SQLite version supports it
	ModeOn   Mode = "on"
	ModeOff  Mode = "off"
)

// Resolve reports whether the feature is enabled given SQLite's support.
func (m Mode) Resolve(supported bool) bool {
	switch m {
	case ModeOn:
		return true
	case ModeOff:
		return false
	}
	return supported
}

func (m Mode) valid() bool {
	return m == ModeAuto || m == ModeOn || m == ModeOff
}

// SQLiteConfiguration controls the SQLite database and its connection
type SQLiteConfiguration struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
	JournalMode   string `toml:"journal_mode"`
	ForeignKeys   bool   `toml:"foreign_keys"`
	// StrictTables creates tables as STRICT
	StrictTables Mode `toml:"strict_tables"`
	// ValuesColumnNames names VALUES columns column1, column2, ...
	ValuesColumnNames Mode `toml:"values_column_names"`
}

// TranslatorConfiguration controls statement translation
type TranslatorConfiguration struct {
	Database          string `toml:"database"`
	CacheSize         int    `toml:"cache_size"`
	LastQueriesLimit  int    `toml:"last_queries_limit"`
	ValidatorPoolSize int    `toml:"validator_pool_size"` // 0 disables validation of rewrites
}

// InformationSchemaConfiguration controls catalog reconstruction
type InformationSchemaConfiguration struct {
	ReconstructOnOpen   bool     `toml:"reconstruct_on_open"`
	IgnoreTables        []string `toml:"ignore_tables"` // glob patterns
	DefaultSchemaPrefix string   `toml:"default_schema_prefix"`
	Multisite           bool     `toml:"multisite"`
}

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// PrometheusConfiguration for metrics
type PrometheusConfiguration struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`

	// AdminSecret guards the admin endpoints served next to /metrics.
	// Empty disables authentication.
	AdminSecret string `toml:"admin_secret"`
}

// Configuration is the main configuration structure
type Configuration struct {
	SQLite            SQLiteConfiguration            `toml:"sqlite"`
	Translator        TranslatorConfiguration        `toml:"translator"`
	InformationSchema InformationSchemaConfiguration `toml:"information_schema"`
	Logging           LoggingConfiguration           `toml:"logging"`
	Prometheus        PrometheusConfiguration        `toml:"prometheus"`
}

var flags = pflag.NewFlagSet("mylite", pflag.ContinueOnError)

// Command line flags
var (
	ConfigPathFlag     = flags.String("config", "mylite.toml", "Path to configuration file")
	DatabasePathFlag   = flags.String("db", "", "SQLite database path (overrides config)")
	DatabaseNameFlag   = flags.String("database", "", "MySQL database name (overrides config)")
	VerboseFlag        = flags.BoolP("verbose", "v", false, "Verbose console logging (overrides config)")
	MetricsAddressFlag = flags.String("metrics-address", "", "Prometheus listen address (overrides config)")
)

// Flags returns the flag set Load reads overrides from.
func Flags() *pflag.FlagSet {
	return flags
}

// Default returns the default configuration.
func Default() *Configuration {
	return &Configuration{
		SQLite: SQLiteConfiguration{
			Path:              "./mylite.db",
			BusyTimeoutMS:     5000,
			JournalMode:       "WAL",
			ForeignKeys:       true,
			StrictTables:      ModeOff,
			ValuesColumnNames: ModeAuto,
		},
		Translator: TranslatorConfiguration{
			Database:         "wordpress",
			CacheSize:        1024,
			LastQueriesLimit: 64,
		},
		InformationSchema: InformationSchemaConfiguration{
			ReconstructOnOpen:   true,
			DefaultSchemaPrefix: "wp_",
		},
		Logging: LoggingConfiguration{
			Verbose: false,
			Format:  "console",
		},
		Prometheus: PrometheusConfiguration{
			Enabled: false,
			Address: "127.0.0.1:9104",
		},
	}
}

// Config is the process-wide configuration
var Config = Default()

// Load loads configuration from file and applies command line overrides
func Load(configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, Config); err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	if *DatabasePathFlag != "" {
		Config.SQLite.Path = *DatabasePathFlag
	}
	if *DatabaseNameFlag != "" {
		Config.Translator.Database = *DatabaseNameFlag
	}
	if flags.Changed("verbose") {
		Config.Logging.Verbose = *VerboseFlag
	}
	if *MetricsAddressFlag != "" {
		Config.Prometheus.Enabled = true
		Config.Prometheus.Address = *MetricsAddressFlag
	}
	return nil
}

var journalModes = map[string]bool{
	"DELETE": true, "TRUNCATE": true, "PERSIST": true,
	"MEMORY": true, "WAL": true, "OFF": true,
}

// Validate checks the process-wide configuration for errors
func Validate() error {
	return Config.Validate()
}

// Validate checks configuration for errors
func (c *Configuration) Validate() error {
	if c.SQLite.Path == "" {
		return fmt.Errorf("sqlite path must not be empty")
	}
	if c.SQLite.BusyTimeoutMS < 0 {
		return fmt.Errorf("sqlite busy timeout must be >= 0")
	}
	if c.SQLite.JournalMode != "" && !journalModes[strings.ToUpper(c.SQLite.JournalMode)] {
		return fmt.Errorf("invalid journal mode: %s", c.SQLite.JournalMode)
	}
	if !c.SQLite.StrictTables.valid() {
		return fmt.Errorf("invalid strict_tables mode: %s", c.SQLite.StrictTables)
	}
	if !c.SQLite.ValuesColumnNames.valid() {
		return fmt.Errorf("invalid values_column_names mode: %s", c.SQLite.ValuesColumnNames)
	}

	if strings.TrimSpace(c.Translator.Database) == "" {
		return fmt.Errorf("database name must not be empty")
	}
	if c.Translator.CacheSize < 1 {
		return fmt.Errorf("translation cache size must be >= 1")
	}
	if c.Translator.LastQueriesLimit < 0 {
		return fmt.Errorf("last queries limit must be >= 0")
	}
	if c.Translator.ValidatorPoolSize < 0 {
		return fmt.Errorf("validator pool size must be >= 0")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Prometheus.Enabled && c.Prometheus.Address == "" {
		return fmt.Errorf("prometheus address must be set when metrics are enabled")
	}
	return nil
}

// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Printer  PrinterConfig  `mapstructure:"printer"`
	Fiscal   FiscalConfig   `mapstructure:"fiscal"`
	POS      POSConfig      `mapstructure:"pos"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig represents the fiscal journal database configuration.
// When Enabled is false the journal is kept in memory.
type DatabaseConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	DBName            string        `mapstructure:"dbname"`
	SSLMode           string        `mapstructure:"sslmode"`
	MaxOpenConns      int           `mapstructure:"max_open_conns"`
	MaxIdleConns      int           `mapstructure:"max_idle_conns"`
	MaxLifetime       time.Duration `mapstructure:"max_lifetime"`
	MigrationsEnabled bool          `mapstructure:"migrations_enabled"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// PrinterConfig represents the fiscal printer connection configuration
type PrinterConfig struct {
	Model               string           `mapstructure:"model"`
	Port                string           `mapstructure:"port"`
	Serial              SerialPortConfig `mapstructure:"serial"`
	ExchangeTimeout     time.Duration    `mapstructure:"exchange_timeout"`
	DiscoveryInterval   time.Duration    `mapstructure:"discovery_interval"`
	ClockDriftTolerance time.Duration    `mapstructure:"clock_drift_tolerance"`
	SyncClockOnStart    bool             `mapstructure:"sync_clock_on_start"`
}

// SerialPortConfig represents serial port configuration
type SerialPortConfig struct {
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	StopBits int           `mapstructure:"stop_bits"`
	Parity   string        `mapstructure:"parity"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// FiscalConfig holds the values printed in every fiscal header
type FiscalConfig struct {
	Branch              string `mapstructure:"branch"`
	DefaultPOSReference string `mapstructure:"default_pos_reference"`
	DefaultCustomerName string `mapstructure:"default_customer_name"`
	DefaultCustomerCRIB string `mapstructure:"default_customer_crib"`
	NKF                 string `mapstructure:"nkf"`
	NKFAffected         string `mapstructure:"nkf_affected"`
	HideProductCode     bool   `mapstructure:"hide_product_code"`
	LineWidth           int    `mapstructure:"line_width"`
}

// POSConfig represents the POS export intake configuration
type POSConfig struct {
	WatcherEnabled     bool              `mapstructure:"watcher_enabled"`
	TransactionsFolder string            `mapstructure:"transactions_folder"`
	PollInterval       time.Duration     `mapstructure:"poll_interval"`
	FileInterval       time.Duration     `mapstructure:"file_interval"`
	MinSoftwareVersion string            `mapstructure:"min_software_version"`
	ApplyServiceCharge bool              `mapstructure:"apply_service_charge"`
	TaxIDs             map[string]string `mapstructure:"tax_ids"`
	PaymentMethods     map[string]string `mapstructure:"payment_methods"`
	TipMarkers         []string          `mapstructure:"tip_markers"`
}

// Load loads configuration from file and environment variables.
// A missing config file is not an error: defaults and environment apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/fiscal-hub")
	}

	// Environment variable support
	v.SetEnvPrefix("FISCAL_HUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns the configuration built from defaults only
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// defaults always decode
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "fiscal-hub")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "production")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8310")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "fiscal_hub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.migrations_enabled", true)

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("logging.compress", true)

	// Printer defaults
	v.SetDefault("printer.model", "cts310ii")
	v.SetDefault("printer.port", "")
	v.SetDefault("printer.serial.baud_rate", 9600)
	v.SetDefault("printer.serial.data_bits", 8)
	v.SetDefault("printer.serial.stop_bits", 1)
	v.SetDefault("printer.serial.parity", "none")
	v.SetDefault("printer.serial.timeout", "250ms")
	v.SetDefault("printer.exchange_timeout", "5s")
	v.SetDefault("printer.discovery_interval", "1s")
	v.SetDefault("printer.clock_drift_tolerance", "120s")
	v.SetDefault("printer.sync_clock_on_start", true)

	// Fiscal header defaults
	v.SetDefault("fiscal.branch", "9001")
	v.SetDefault("fiscal.default_pos_reference", "1001")
	v.SetDefault("fiscal.default_customer_name", "")
	v.SetDefault("fiscal.default_customer_crib", "")
	v.SetDefault("fiscal.nkf", "")
	v.SetDefault("fiscal.nkf_affected", "")
	v.SetDefault("fiscal.hide_product_code", true)
	v.SetDefault("fiscal.line_width", 48)

	// POS intake defaults
	v.SetDefault("pos.watcher_enabled", true)
	v.SetDefault("pos.transactions_folder", "./transactions")
	v.SetDefault("pos.poll_interval", "1s")
	v.SetDefault("pos.file_interval", "1s")
	v.SetDefault("pos.min_software_version", "8.0")
	v.SetDefault("pos.apply_service_charge", false)
	v.SetDefault("pos.tax_ids", map[string]string{
		"6": "1",
		"7": "2",
		"9": "3",
	})
	v.SetDefault("pos.payment_methods", map[string]string{
		"cash":        "00",
		"cheque":      "01",
		"creditcard":  "02",
		"debitcard":   "03",
		"credit_note": "04",
		"voucher":     "05",
		"other_1":     "06",
		"other_2":     "07",
		"other_3":     "08",
		"other_4":     "09",
		"donations":   "10",
	})
	v.SetDefault("pos.tip_markers", []string{"Tip", "Tip %"})
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Enabled && config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Printer.Serial.BaudRate <= 0 {
		return fmt.Errorf("printer.serial.baud_rate must be positive")
	}
	if config.Printer.ExchangeTimeout <= 0 {
		return fmt.Errorf("printer.exchange_timeout must be positive")
	}
	if config.Fiscal.LineWidth < 1 {
		return fmt.Errorf("fiscal.line_width must be positive")
	}
	if config.POS.WatcherEnabled && config.POS.TransactionsFolder == "" {
		return fmt.Errorf("pos.transactions_folder is required when the watcher is enabled")
	}
	if config.POS.PollInterval <= 0 {
		return fmt.Errorf("pos.poll_interval must be positive")
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.App.Environment == "development"
}

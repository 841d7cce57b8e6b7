package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Lark      LarkConfig      `mapstructure:"lark"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Approvers ApproversConfig `mapstructure:"approvers"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
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

// LarkConfig holds Lark messaging credentials. Leave them empty to run in
// demo mode, where notifications go to the log instead of Lark.
type LarkConfig struct {
	AppID      string        `mapstructure:"app_id"`
	AppSecret  string        `mapstructure:"app_secret"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
}

// WorkflowConfig holds approval flow tuning
type WorkflowConfig struct {
	ReminderInterval     time.Duration `mapstructure:"reminder_interval"`
	MaxReminders         int           `mapstructure:"max_reminders"`
	ReminderPollInterval time.Duration `mapstructure:"reminder_poll_interval"`
	ReminderBatchSize    int           `mapstructure:"reminder_batch_size"`
}

// ApproversConfig names the people behind the routing directory's roles
type ApproversConfig struct {
	Manager ApproverConfig `mapstructure:"manager"`
	HR      ApproverConfig `mapstructure:"hr"`
	Finance ApproverConfig `mapstructure:"finance"`
	IT      ApproverConfig `mapstructure:"it"`
}

// ApproverConfig identifies one approver
type ApproverConfig struct {
	ID    string `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// DemoMode reports whether the app runs without Lark credentials
func (c *Config) DemoMode() bool {
	return c.Lark.AppID == "" || c.Lark.AppSecret == ""
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/workflowbot.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Lark defaults
	viper.SetDefault("lark.api_timeout", 30*time.Second)

	// Workflow defaults
	viper.SetDefault("workflow.reminder_interval", 24*time.Hour)
	viper.SetDefault("workflow.max_reminders", 3)
	viper.SetDefault("workflow.reminder_poll_interval", 15*time.Minute)
	viper.SetDefault("workflow.reminder_batch_size", 50)

	// Approver directory defaults (demo roster)
	viper.SetDefault("approvers.manager.id", "MGR001")
	viper.SetDefault("approvers.manager.name", "Sarah Johnson")
	viper.SetDefault("approvers.manager.email", "sarah.johnson@company.com")
	viper.SetDefault("approvers.hr.id", "HR001")
	viper.SetDefault("approvers.hr.name", "Michael Chen")
	viper.SetDefault("approvers.hr.email", "michael.chen@company.com")
	viper.SetDefault("approvers.finance.id", "FIN001")
	viper.SetDefault("approvers.finance.name", "Lisa Rodriguez")
	viper.SetDefault("approvers.finance.email", "lisa.rodriguez@company.com")
	viper.SetDefault("approvers.it.id", "IT001")
	viper.SetDefault("approvers.it.name", "David Park")
	viper.SetDefault("approvers.it.email", "david.park@company.com")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("lark.app_id", "LARK_APP_ID")
	viper.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	viper.BindEnv("database.path", "DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Lark credentials come as a pair or not at all
	if (c.Lark.AppID == "") != (c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret must both be set")
	}

	if c.Workflow.MaxReminders < 0 {
		return fmt.Errorf("workflow.max_reminders must not be negative")
	}
	if c.Workflow.ReminderInterval < 0 {
		return fmt.Errorf("workflow.reminder_interval must not be negative")
	}

	roles := map[string]ApproverConfig{
		"manager": c.Approvers.Manager,
		"hr":      c.Approvers.HR,
		"finance": c.Approvers.Finance,
		"it":      c.Approvers.IT,
	}
	for role, approver := range roles {
		if approver.ID == "" {
			return fmt.Errorf("approvers.%s.id is required", role)
		}
	}

	return nil
}

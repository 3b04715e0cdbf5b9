// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Statistics StatisticsConfig `mapstructure:"statistics"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Timezone    string `mapstructure:"timezone"` // IANA name; every calendar date resolves here
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StatisticsConfig holds the aggregation engine settings.
type StatisticsConfig struct {
	BranchWorkers  int `mapstructure:"branch_workers"`   // bounded pool for per-branch aggregation
	TopServices    int `mapstructure:"top_services"`     // services kept per weekly/monthly roll-up
	CounterTTL     int `mapstructure:"counter_ttl"`      // hours a queue counter key survives past its day
	BestBranchRows int `mapstructure:"best_branch_rows"` // default list size for best-performing branches
}

// SchedulerConfig holds the cron cadences for the aggregation jobs.
// Specs are standard five-field cron expressions evaluated in app.timezone.
type SchedulerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DailySpec    string `mapstructure:"daily_spec"`
	WeeklySpec   string `mapstructure:"weekly_spec"`
	MonthlySpec  string `mapstructure:"monthly_spec"`
	RankingsSpec string `mapstructure:"rankings_spec"`
	JobTimeout   int    `mapstructure:"job_timeout"` // milliseconds
	LockTTL      int    `mapstructure:"lock_ttl"`    // milliseconds, per-job mutual exclusion
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

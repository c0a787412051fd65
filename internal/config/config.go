package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	Env            string `yaml:"env" env:"ENV" env-default:"prod"`
	StorageDriver  string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"mysql"`
	HTTPServer     `yaml:"http_server"`
	DBUser         string `yaml:"db_user" env:"DB_USER"`
	DBPassword     string `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost         string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort         int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName         string `yaml:"db_name" env:"DB_NAME" env-default:"shopfloor"`
	ParseTime      bool   `yaml:"parse_time" env-default:"true"`
	DBMaxOpenConns int    `yaml:"db_max_open_conns" env-default:"20"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"MIGRATE_ON_START" env-default:"false"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`

	CORSOrigins []string `yaml:"cors_origins" env-default:"http://localhost:5173"`

	Shift  Shift  `yaml:"shift"`
	Reaper Reaper `yaml:"reaper"`
	Kafka  Kafka  `yaml:"kafka"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout"  env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout"  env-default:"60s"`
}

type Shift struct {
	// Timezone — часовой пояс цеха, по нему определяется календарный день смены.
	Timezone      string        `yaml:"timezone" env:"SHIFT_TIMEZONE" env-default:"UTC"`
	PlannedStart  string        `yaml:"planned_start" env-default:"08:00"`
	LateGrace     time.Duration `yaml:"late_grace" env-default:"15m"`
	LunchDuration time.Duration `yaml:"lunch_duration" env-default:"60m"`
	ClockPoints   []string      `yaml:"clock_points"`
	EligibleRoles []string      `yaml:"eligible_roles" env-default:"OPERATOR,MASTER"`
}

type Reaper struct {
	Enabled       bool          `yaml:"enabled" env:"REAPER_ENABLED" env-default:"true"`
	Interval      time.Duration `yaml:"interval" env-default:"10m"`
	MaxSessionAge time.Duration `yaml:"max_session_age" env-default:"16h"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" env-default:"shopfloor.events"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	return &cfg
}

// Validate проверяет то, что cleanenv проверить не может.
func (c *Config) Validate() error {
	if c.StorageDriver != StorageMySQL && c.StorageDriver != StorageMemory {
		return fmt.Errorf("storage_driver: unknown driver %q", c.StorageDriver)
	}

	if _, err := time.LoadLocation(c.Shift.Timezone); err != nil {
		return fmt.Errorf("shift.timezone: %w", err)
	}
	if _, err := time.Parse("15:04", c.Shift.PlannedStart); err != nil {
		return fmt.Errorf("shift.planned_start: %q is not HH:MM", c.Shift.PlannedStart)
	}

	if c.Reaper.Enabled {
		if c.Reaper.Interval <= 0 {
			return errors.New("reaper.interval must be greater than 0")
		}
		if c.Reaper.MaxSessionAge <= 0 {
			return errors.New("reaper.max_session_age must be greater than 0")
		}
	}

	return nil
}

// Location часового пояса цеха. Пояс проверен в Validate, UTC остаётся только для конфигов,
// собранных в коде без проверки.
func (s Shift) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PlannedStartOffset: смещение планового начала смены от полуночи.
func (s Shift) PlannedStartOffset() time.Duration {
	t, err := time.Parse("15:04", s.PlannedStart)
	if err != nil {
		return 8 * time.Hour
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

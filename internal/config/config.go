package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Leganyst/clinic-booking/internal/calendar"
)

// Config — полный набор настроек процесса.
type Config struct {
	DB     *DBConfig
	Clinic *ClinicConfig
	Server *ServerConfig
	Worker *WorkerConfig
	Log    *LogConfig
}

// ClinicConfig — правила рабочего дня клиники и параметры посева слотов.
type ClinicConfig struct {
	Hours           calendar.WorkingHours
	DefaultCapacity int
	SeedDays        int
	ClosedWeekdays  []time.Weekday
}

type ServerConfig struct {
	GRPCAddr       string
	RateLimitRPS   float64
	RateLimitBurst int
	Reflection     bool
}

type WorkerConfig struct {
	Enabled   bool
	CronSpec  string
	RedisAddr string
	RedisDB   int
	LockTTL   time.Duration
}

type LogConfig struct {
	Level string
	Env   string
}

// Load читает .env (если есть) и собирает все секции конфигурации.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dbCfg, err := LoadDBConfig()
	if err != nil {
		return nil, err
	}
	clinicCfg, err := LoadClinicConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		DB:     dbCfg,
		Clinic: clinicCfg,
		Server: LoadServerConfig(),
		Worker: LoadWorkerConfig(),
		Log:    LoadLogConfig(),
	}, nil
}

func LoadClinicConfig() (*ClinicConfig, error) {
	tz := getEnv("CLINIC_TIMEZONE", "Asia/Ho_Chi_Minh")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid clinic config: timezone %q: %w", tz, err)
	}

	hours := calendar.DefaultWorkingHours(loc)
	for _, f := range []struct {
		key string
		dst *calendar.ClockTime
	}{
		{"CLINIC_OPEN", &hours.Open},
		{"CLINIC_CLOSE", &hours.Close},
		{"CLINIC_LUNCH_START", &hours.LunchStart},
		{"CLINIC_LUNCH_END", &hours.LunchEnd},
	} {
		v := getEnv(f.key, "")
		if v == "" {
			continue
		}
		ct, err := calendar.ParseClockTime(v)
		if err != nil {
			return nil, fmt.Errorf("invalid clinic config: %s: %w", f.key, err)
		}
		*f.dst = ct
	}
	if err := hours.Validate(); err != nil {
		return nil, fmt.Errorf("invalid clinic config: %w", err)
	}

	closed, err := parseWeekdays(getEnv("CLINIC_CLOSED_WEEKDAYS", "sunday"))
	if err != nil {
		return nil, fmt.Errorf("invalid clinic config: %w", err)
	}

	cfg := &ClinicConfig{
		Hours:           hours,
		DefaultCapacity: getEnvInt("CLINIC_DEFAULT_CAPACITY", 3),
		SeedDays:        getEnvInt("CLINIC_SEED_DAYS", 30),
		ClosedWeekdays:  closed,
	}
	if cfg.DefaultCapacity <= 0 {
		return nil, fmt.Errorf("invalid clinic config: CLINIC_DEFAULT_CAPACITY must be positive")
	}
	if cfg.SeedDays < 0 {
		return nil, fmt.Errorf("invalid clinic config: CLINIC_SEED_DAYS must not be negative")
	}
	return cfg, nil
}

func LoadServerConfig() *ServerConfig {
	return &ServerConfig{
		GRPCAddr:       getEnv("GRPC_ADDR", ":50051"),
		RateLimitRPS:   getEnvFloat("GRPC_RATE_LIMIT_RPS", 100),
		RateLimitBurst: getEnvInt("GRPC_RATE_LIMIT_BURST", 200),
		Reflection:     getEnvBool("GRPC_REFLECTION", true),
	}
}

func LoadWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		Enabled:   getEnvBool("SEED_WORKER_ENABLED", true),
		CronSpec:  getEnv("SEED_WORKER_CRON", "@daily"),
		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		LockTTL:   time.Duration(getEnvInt("SEED_WORKER_LOCK_TTL_SEC", 120)) * time.Second,
	}
}

func LoadLogConfig() *LogConfig {
	return &LogConfig{
		Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Env:   strings.ToLower(getEnv("APP_ENV", "development")),
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		wd, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		out = append(out, wd)
	}
	return out, nil
}

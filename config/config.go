package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // admission-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

type Admission struct {
	MergeRadiusM    float64  `yaml:"mergeRadiusM"`    // 100
	Capacity        int      `yaml:"capacity"`        // 8
	StalenessWindow string   `yaml:"stalenessWindow"` // 5m
	ReapInterval    string   `yaml:"reapInterval"`    // 5m
	GhostAllowList  []string `yaml:"ghostAllowList"`  // caller id-шники основателей
}

func (a Admission) Staleness() time.Duration {
	return parseDurationOr(5*time.Minute, a.StalenessWindow)
}

func (a Admission) Interval() time.Duration {
	return parseDurationOr(5*time.Minute, a.ReapInterval)
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Logging   Logging   `yaml:"logging"`
	Postgres  Postgres  `yaml:"postgres"`
	Admission Admission `yaml:"admission"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "admission-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Admission.MergeRadiusM <= 0 {
		c.Admission.MergeRadiusM = 100
	}
	if c.Admission.Capacity <= 0 {
		c.Admission.Capacity = 8
	}
	return nil
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}

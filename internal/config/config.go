// Package config 실행 설정 로딩 (YAML/TOML 파일, .env, 환경변수)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config 전체 설정
type Config struct {
	Log      LogConfig      `yaml:"log" toml:"log"`
	HTTP     HTTPConfig     `yaml:"http" toml:"http"`
	Collect  CollectConfig  `yaml:"collect" toml:"collect"`
	Select   SelectConfig   `yaml:"select" toml:"select"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	Schedule ScheduleConfig `yaml:"schedule" toml:"schedule"`
	Server   ServerConfig   `yaml:"http_server" toml:"http_server"`
}

// LogConfig 로그 설정
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=auto console json"`
}

// HTTPConfig 수집용 HTTP 클라이언트 설정
type HTTPConfig struct {
	Timeout      Duration `yaml:"timeout" toml:"timeout" validate:"gt=0"`
	UserAgent    string   `yaml:"user_agent" toml:"user_agent" validate:"required"`
	RequestDelay Duration `yaml:"request_delay" toml:"request_delay" validate:"gte=0"`
}

// CollectConfig 데이터 수집 범위
type CollectConfig struct {
	HistoryDays        int `yaml:"history_days" toml:"history_days" validate:"gte=30"`
	MinBars            int `yaml:"min_bars" toml:"min_bars" validate:"gte=20"`
	VolumeRankLimit    int `yaml:"volume_rank_limit" toml:"volume_rank_limit" validate:"gte=1,lte=100"`
	SemiconductorGroup int `yaml:"semiconductor_group" toml:"semiconductor_group" validate:"gt=0"`
	FlowDays           int `yaml:"flow_days" toml:"flow_days" validate:"gte=1,lte=20"`
	NewsLimit          int `yaml:"news_limit" toml:"news_limit" validate:"gte=0"`
	SectorLimit        int `yaml:"sector_limit" toml:"sector_limit" validate:"gte=0"`
	ETFScan            int `yaml:"etf_scan" toml:"etf_scan" validate:"gte=0"`
	ETFLimit           int `yaml:"etf_limit" toml:"etf_limit" validate:"gte=0,ltefield=ETFScan"`
}

// SelectConfig 선별/점수 파라미터
type SelectConfig struct {
	CandidateLimit   int     `yaml:"candidate_limit" toml:"candidate_limit" validate:"gte=1"`
	PickLimit        int     `yaml:"pick_limit" toml:"pick_limit" validate:"gte=1"`
	MinConsecutive   int     `yaml:"min_consecutive" toml:"min_consecutive" validate:"gte=1"`
	MinChangeRate    float64 `yaml:"min_change_rate" toml:"min_change_rate"`
	TargetMultiplier float64 `yaml:"target_multiplier" toml:"target_multiplier" validate:"gt=1"`
	StopMultiplier   float64 `yaml:"stop_multiplier" toml:"stop_multiplier" validate:"gt=0,lt=1"`
}

// OutputConfig 산출물 설정
type OutputConfig struct {
	Dir     string   `yaml:"dir" toml:"dir" validate:"required"`
	Formats []string `yaml:"formats" toml:"formats" validate:"min=1,dive,oneof=markdown json xlsx"`
}

// ScheduleConfig cron 스케줄
type ScheduleConfig struct {
	Morning   string `yaml:"morning" toml:"morning" validate:"required,cronspec"`
	Afternoon string `yaml:"afternoon" toml:"afternoon" validate:"required,cronspec"`
	Timezone  string `yaml:"timezone" toml:"timezone" validate:"required,timezone"`
}

// ServerConfig 리포트 보관소 HTTP 서버
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr" validate:"required,hostname_port"`
}

// Default 기본 설정
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "auto"},
		HTTP: HTTPConfig{
			Timeout:      Duration(30 * time.Second),
			UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			RequestDelay: Duration(50 * time.Millisecond),
		},
		Collect: CollectConfig{
			HistoryDays:        365,
			MinBars:            120,
			VolumeRankLimit:    20,
			SemiconductorGroup: 278,
			FlowDays:           5,
			NewsLimit:          5,
			SectorLimit:        10,
			ETFScan:            15,
			ETFLimit:           10,
		},
		Select: SelectConfig{
			CandidateLimit:   10,
			PickLimit:        10,
			MinConsecutive:   3,
			MinChangeRate:    -2,
			TargetMultiplier: 1.07,
			StopMultiplier:   0.95,
		},
		Output: OutputConfig{
			Dir:     "reports",
			Formats: []string{"markdown", "json", "xlsx"},
		},
		Schedule: ScheduleConfig{
			Morning:   "30 7 * * 1-5",
			Afternoon: "40 15 * * 1-5",
			Timezone:  "Asia/Seoul",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// HasFormat 산출물 형식 포함 여부
func (o OutputConfig) HasFormat(name string) bool {
	for _, f := range o.Formats {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// Load .env 파일과 설정 파일을 읽어 검증된 설정을 반환한다.
// path가 비어 있으면 기본값에 환경변수만 적용한다.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles .env.local, .env 순으로 로드 (없으면 무시)
func LoadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	data := []byte(expandEnvVars(string(raw)))

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse toml config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KSTOCK_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("KSTOCK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("KSTOCK_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Location 스케줄 타임존
func (s ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

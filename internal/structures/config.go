package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

// ApiPaths are the upstream endpoints, relative to ApiConfig.BaseUrl.
type ApiPaths struct {
	CreateLead         string `yaml:"createLead"`
	Predictions        string `yaml:"predictions"`
	CollegePredictions string `yaml:"collegePredictions"`
	UserDetails        string `yaml:"userDetails"`
}

type ApiConfig struct {
	BaseUrl      string        `yaml:"baseUrl" validate:"required|fullUrl"`
	Timeout      time.Duration `yaml:"timeout" validate:"required|min:1"`
	MaxIdleConns int           `yaml:"maxIdleConns"`
	Paths        ApiPaths      `yaml:"paths"`
}

type PredictorConfig struct {
	DefaultLimit       int           `yaml:"defaultLimit" validate:"required|min:1"`
	MaxLimit           int           `yaml:"maxLimit" validate:"required|min:1"`
	FullPageSize       int           `yaml:"fullPageSize" validate:"required|min:1"`
	RankPreviewRows    int           `yaml:"rankPreviewRows" validate:"required|min:1"`
	CollegePreviewRows int           `yaml:"collegePreviewRows" validate:"required|min:1"`
	DisclosureTTL      time.Duration `yaml:"disclosureTTL" validate:"required|min:1"`
	IdleTimeout        time.Duration `yaml:"idleTimeout"`
	EvictInterval      time.Duration `yaml:"evictInterval"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server          `yaml:"webServer"`
	Api         ApiConfig       `yaml:"api"`
	Predictor   PredictorConfig `yaml:"predictor"`
	Persistence Persistence     `yaml:"persistence"`
	Logger      LoggerConfig    `yaml:"logger"`
	Cache       CacheConfig     `yaml:"cache"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}

package providers

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"predictor/internal/structures"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	if flags.EnvFile != "" {
		if err := godotenv.Load(flags.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to load env file %s: %w", flags.EnvFile, err)
		}
	}

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	setDefaults(v)

	v.BindEnv("logger.level", "PREDICTOR_LOG_LEVEL")
	v.BindEnv("api.baseUrl", "PREDICTOR_API_URL")
	v.BindEnv("api.timeout", "PREDICTOR_API_TIMEOUT")
	v.BindEnv("persistence.filePath", "PREDICTOR_STORE_FILE")
	v.BindEnv("persistence.saveInterval", "PREDICTOR_SAVE_INTERVAL")
	v.BindEnv("cache.enabled", "PREDICTOR_CACHE_ENABLED")
	v.BindEnv("cache.size", "PREDICTOR_CACHE_SIZE")
	v.BindEnv("webServer.port", "PREDICTOR_PORT")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "AdmissionPredictorGateway"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.maxIdleConns", 100)
	v.SetDefault("api.paths.createLead", "/api/create")
	v.SetDefault("api.paths.predictions", "/api/predictions")
	v.SetDefault("api.paths.collegePredictions", "/api/predictions/college")
	v.SetDefault("api.paths.userDetails", "/api/user-details")

	v.SetDefault("predictor.defaultLimit", 20)
	v.SetDefault("predictor.maxLimit", 100)
	v.SetDefault("predictor.fullPageSize", 20)
	v.SetDefault("predictor.rankPreviewRows", 3)
	v.SetDefault("predictor.collegePreviewRows", 4)
	v.SetDefault("predictor.disclosureTTL", "600h")
	v.SetDefault("predictor.idleTimeout", "30m")
	v.SetDefault("predictor.evictInterval", "1m")

	v.SetDefault("cache.ttl", "30s")
}

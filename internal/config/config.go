package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Defaults applied when neither the environment nor a flag sets a value.
const (
	DefaultSampleRate       = 0.1
	DefaultTimeSliceSeconds = 900
	DefaultOutputFolder     = "output"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath          string
	LogDir            string
	OutputDir         string
	SampleRate        float64
	TimeSliceSeconds  int
	MetricsFile       string
	FreeSpeedFallback bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = "."
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	// OutputDir stays relative; callers resolve it against DataPath.
	outputDir := getEnv("OUTPUT_DIR", DefaultOutputFolder)

	cfg := &AppConfig{
		DataPath:          dataPath,
		LogDir:            logDir,
		OutputDir:         outputDir,
		SampleRate:        getEnvFloat("SAMPLE_RATE", DefaultSampleRate),
		TimeSliceSeconds:  getEnvInt("TIME_SLICE_SECONDS", DefaultTimeSliceSeconds),
		MetricsFile:       getEnv("METRICS_FILE", ""),
		FreeSpeedFallback: getEnvBool("FREE_SPEED_FALLBACK", true),
	}

	return cfg, nil
}

// Resolve makes a relative path relative to the data path.
func (c *AppConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataPath, path)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer environment value")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric environment value")
	}
	return fallback
}

package config

import "os"

type Config struct {
	ListenAddr   string
	DBPath       string
	ImagePath    string
	ImageBaseURL string
	LogLevel     string
	LogFile      string
}

func Load() *Config {
	return &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		DBPath:       getEnv("DB_PATH", "/data/bigos.db"),
		ImagePath:    getEnv("IMAGE_PATH", "/data/bigos"),
		ImageBaseURL: getEnv("IMAGE_BASE_URL", "https://kevsbuilders.co.ke/bigos"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

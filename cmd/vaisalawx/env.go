package main

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	envConfig        = "VAISALAWX_CONFIG"
	envConfigBackend = "VAISALAWX_CONFIG_BACKEND"
	envLogLevel      = "VAISALAWX_LOG_LEVEL"
)

// loadEnv pulls variables from the given dotenv files (./.env when none are
// named) into the process environment. Variables already set win, and a
// missing file is not an error.
func loadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// envOr returns the environment variable key, or def when it is unset or empty.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

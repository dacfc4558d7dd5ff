package config

import (
	"os"
	"strconv"
)

// FromEnv overrides configuration from environment variables.
// Unset variables leave the existing values alone.
func FromEnv(cfg *Config) {
	if val := os.Getenv("STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		cfg.Storage.DataDir = val
	}
	if val := os.Getenv("DATABASE_URL"); val != "" {
		cfg.Storage.DatabaseURL = val
	}
	if val := os.Getenv("REMINDER_TZ"); val != "" {
		cfg.Reminders.Timezone = val
	}
	if val := getEnvInt("REMINDER_TICK_MINUTES"); val > 0 {
		cfg.Reminders.TickMinutes = val
	}
	if val := getEnvInt("REMINDER_FROM_HOUR"); val > 0 {
		cfg.Reminders.FromHour = val
	}
	if val := getEnvInt("REMINDER_UNTIL_HOUR"); val > 0 {
		cfg.Reminders.UntilHour = val
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const defaultPort = 8000

// Config is the central typed configuration struct.
type Config struct {
	App AppConfig
	Log LogConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	Port  string
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // console | json
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  Get("APP_NAME", "LazyIoC"),
			Env:   Get("APP_ENV", "local"),
			Debug: GetBool("APP_DEBUG", true),
			Port:  strconv.Itoa(GetPort("APP_PORT", defaultPort)),
		},
		Log: LogConfig{
			Level:  Get("LOG_LEVEL", "info"),
			Format: Get("LOG_FORMAT", "console"),
		},
	}
}

// Get returns the value of key, or defaultVal when it is unset or empty.
func Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// GetInt parses key as an int. Unset or malformed values yield defaultVal.
func GetInt(key string, defaultVal int) int {
	i, err := strconv.Atoi(Get(key, strconv.Itoa(defaultVal)))
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool parses key with strconv.ParseBool. Unset or malformed values yield
// defaultVal.
func GetBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(Get(key, strconv.FormatBool(defaultVal)))
	if err != nil {
		return defaultVal
	}
	return b
}

// GetPort reads key as a TCP port. Anything outside 0..65535 falls back to
// defaultVal; 0 asks the kernel for a free port.
func GetPort(key string, defaultVal int) int {
	p := GetInt(key, defaultVal)
	if p < 0 || p > 65535 {
		return defaultVal
	}
	return p
}

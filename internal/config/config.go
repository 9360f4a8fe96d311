package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port      int
	LogLevel  string
	LogFormat string

	// StoreDriver selects the persistence backend: "postgres" or "sqlite".
	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	ImageDir       string
	PublicBaseURL  string
	MaxUploadBytes int64

	Locale         string
	AllowedOrigins []string
}

// Load reads configuration from the environment, falling back to defaults.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "postgres://localhost:5432/lithicearth?sslmode=disable")
	v.SetDefault("SQLITE_PATH", "lithicearth.db")
	v.SetDefault("IMAGE_DIR", "./data")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080/files")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("LOCALE", "en")
	v.SetDefault("ALLOWED_ORIGINS", "*")

	return &Config{
		Port:           v.GetInt("PORT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		StoreDriver:    strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		SQLitePath:     v.GetString("SQLITE_PATH"),
		ImageDir:       v.GetString("IMAGE_DIR"),
		PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
		Locale:         v.GetString("LOCALE"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
	}
}

// OriginAllowed reports whether a browser origin may open a websocket.
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

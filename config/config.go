package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort     string
	Environment string
	JWTSecret   string
	// Token lifetime in hours
	JWTExpireHours int
	DatabaseURI    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	// Rate limiting: requests per window per client IP
	RateLimitPerWindow    int
	RateLimitWindowMinute int
	AllowedOrigins        []string
	// Public contact form: seconds between submissions per IP (0 disables)
	ContactCooldownSec int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for caching
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// IsDevelopment reports whether the service runs in development mode.
// Error responses carry stack traces only in this mode.
func IsDevelopment() bool {
	return strings.EqualFold(Get().Environment, "development")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.Environment = getString(app, "Environment")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "JWTExpireHours"); v != 0 {
			out.JWTExpireHours = v
		}
		if v := getInt(app, "RateLimitPerWindow"); v != 0 {
			out.RateLimitPerWindow = v
		}
		if v := getInt(app, "RateLimitWindowMinute"); v != 0 {
			out.RateLimitWindowMinute = v
		}
		if v := getInt(app, "ContactCooldownSec"); v != 0 {
			out.ContactCooldownSec = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		out.GinMode = getString(app, "GinMode")
		out.GinPath = getString(app, "GinPath")
	}

	if db, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(db, "DatabaseURI")
		out.DBHost = getString(db, "DBHost")
		out.DBPort = getString(db, "DBPort")
		out.DBUser = getString(db, "DBUser")
		out.DBPassword = getString(db, "DBPassword")
		out.DBName = getString(db, "DBName")
	}

	if rd, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rd, "RedisHost")
		if v := getInt(rd, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		out.RedisDB = getInt(rd, "RedisDB")
		out.RedisPassword = getString(rd, "RedisPassword")
	}

	if lg, ok := raw["logging"].(map[string]any); ok {
		out.LogLevel = getString(lg, "LogLevel")
		out.LogPath = getString(lg, "LogPath")
		if v := getInt(lg, "LogMaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "LogMaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "LogMaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "LogCompress")
	}

	return nil
}

func applyDefaults(out *AppConfig) {
	if out.AppPort == "" {
		out.AppPort = "5000"
	}
	if out.Environment == "" {
		out.Environment = "production"
	}
	if out.JWTExpireHours <= 0 {
		out.JWTExpireHours = 24
	}
	if out.DBHost == "" {
		out.DBHost = "127.0.0.1"
	}
	if out.DBPort == "" {
		out.DBPort = "3306"
	}
	if out.DBUser == "" {
		out.DBUser = "capitalpay"
	}
	if out.DBName == "" {
		out.DBName = "capitalpay"
	}
	if out.RateLimitPerWindow <= 0 {
		out.RateLimitPerWindow = 100
	}
	if out.RateLimitWindowMinute <= 0 {
		out.RateLimitWindowMinute = 15
	}
	if len(out.AllowedOrigins) == 0 {
		out.AllowedOrigins = []string{"*"}
	}
	if out.GinMode == "" {
		out.GinMode = "release"
	}
	if out.GinPath == "" {
		out.GinPath = "logs/gin.log"
	}
	if out.RedisHost == "" {
		out.RedisHost = "127.0.0.1"
	}
	if out.RedisPort == 0 {
		out.RedisPort = 6379
	}
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	if out.LogPath == "" {
		out.LogPath = "logs/app.log"
	}
	if out.LogMaxSizeMB == 0 {
		out.LogMaxSizeMB = 100
	}
	if out.LogMaxBackups == 0 {
		out.LogMaxBackups = 3
	}
	if out.LogMaxAgeDays == 0 {
		out.LogMaxAgeDays = 7
	}
}

func applyEnvOverrides(out *AppConfig) {
	out.AppPort = getEnv("PORT", out.AppPort)
	out.Environment = getEnv("APP_ENV", out.Environment)
	out.JWTSecret = getEnv("JWT_SECRET", out.JWTSecret)
	if v := os.Getenv("JWT_EXPIRE_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			out.JWTExpireHours = n
		}
	}
	out.DatabaseURI = getEnv("DATABASE_URI", out.DatabaseURI)
	out.DBHost = getEnv("DB_HOST", out.DBHost)
	out.DBPort = getEnv("DB_PORT", out.DBPort)
	out.DBUser = getEnv("DB_USER", out.DBUser)
	out.DBPassword = getEnv("DB_PASSWORD", out.DBPassword)
	out.DBName = getEnv("DB_NAME", out.DBName)
	if v := os.Getenv("RATE_LIMIT_PER_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			out.RateLimitPerWindow = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			out.RateLimitWindowMinute = n
		}
	}
	if v := os.Getenv("CONTACT_COOLDOWN_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			out.ContactCooldownSec = n
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				origins = append(origins, s)
			}
		}
		if len(origins) > 0 {
			out.AllowedOrigins = origins
		}
	}
	out.GinMode = getEnv("GIN_MODE", out.GinMode)
	out.RedisHost = getEnv("REDIS_HOST", out.RedisHost)
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			out.RedisPort = n
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			out.RedisDB = n
		}
	}
	out.RedisPassword = getEnv("REDIS_PASSWORD", out.RedisPassword)
	out.LogLevel = getEnv("LOG_LEVEL", out.LogLevel)
	out.LogPath = getEnv("LOG_PATH", out.LogPath)
}

// SetForTesting replaces the loaded configuration. Test helper only.
func SetForTesting(c AppConfig) {
	cfg = c
	loaded = true
}

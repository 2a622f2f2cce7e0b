package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/yukikurage/taskflow/internal/constants"
)

type Config struct {
	DBDriver          string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBPath            string
	RedisHost         string
	RedisPort         string
	SessionStore      string
	SessionSecret     string
	JWTSecret         string
	TokenTTL          time.Duration
	GinMode           string
	Port              string
	OpenAIAPIKey      string
	StatsCacheEnabled bool
	StatsCacheTTL     time.Duration
}

// ClientConfig configures the headless client.
type ClientConfig struct {
	APIURL         string
	RequestTimeout time.Duration
	SessionFile    string
}

func Load() *Config {
	v := newViper()
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "taskuser")
	v.SetDefault("DB_PASSWORD", "taskpassword")
	v.SetDefault("DB_NAME", "task_management")
	v.SetDefault("DB_PATH", "taskflow.db")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("SESSION_STORE", "redis")
	v.SetDefault("SESSION_SECRET", "default-secret-key-change-me")
	v.SetDefault("JWT_SECRET", "default-jwt-secret-change-me")
	v.SetDefault("TOKEN_TTL", constants.DefaultTokenTTL)
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("PORT", "8080")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("STATS_CACHE_ENABLED", true)
	v.SetDefault("STATS_CACHE_TTL", constants.DefaultStatsCacheTTL)

	return &Config{
		DBDriver:          v.GetString("DB_DRIVER"),
		DBHost:            v.GetString("DB_HOST"),
		DBPort:            v.GetString("DB_PORT"),
		DBUser:            v.GetString("DB_USER"),
		DBPassword:        v.GetString("DB_PASSWORD"),
		DBName:            v.GetString("DB_NAME"),
		DBPath:            v.GetString("DB_PATH"),
		RedisHost:         v.GetString("REDIS_HOST"),
		RedisPort:         v.GetString("REDIS_PORT"),
		SessionStore:      v.GetString("SESSION_STORE"),
		SessionSecret:     v.GetString("SESSION_SECRET"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),
		GinMode:           v.GetString("GIN_MODE"),
		Port:              v.GetString("PORT"),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		StatsCacheEnabled: v.GetBool("STATS_CACHE_ENABLED"),
		StatsCacheTTL:     v.GetDuration("STATS_CACHE_TTL"),
	}
}

// RedisAddr joins the Redis host and port.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// LoadClient reads the client settings. An empty sessionFile leaves the
// choice of location to the caller.
func LoadClient() *ClientConfig {
	v := newViper()
	v.SetDefault("TASKFLOW_API_URL", "http://localhost:8080")
	v.SetDefault("TASKFLOW_REQUEST_TIMEOUT", constants.DefaultRequestTimeout)
	v.SetDefault("TASKFLOW_SESSION_FILE", "")

	return &ClientConfig{
		APIURL:         v.GetString("TASKFLOW_API_URL"),
		RequestTimeout: v.GetDuration("TASKFLOW_REQUEST_TIMEOUT"),
		SessionFile:    v.GetString("TASKFLOW_SESSION_FILE"),
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

package backend

import (
	"fmt"
	"time"

	"gagyebu/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.Backend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.Backend)
	}

	return Config{
		Type: backendType,

		SQLitePath: appConfig.SQLite.Path,

		RedisAddr:     appConfig.Redis.Addr,
		RedisPassword: appConfig.Redis.Password,
		RedisDB:       appConfig.Redis.DB,
		RedisPrefix:   appConfig.Redis.Prefix,
		RedisTimeout:  appConfig.Redis.Timeout,

		AMQPURL:      appConfig.AMQP.URL,
		AMQPExchange: appConfig.AMQP.Exchange,
		AMQPQueue:    appConfig.AMQP.Queue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisAddr == "" {
			return fmt.Errorf("Redis address is required for redis backend")
		}
	case MemoryBackend:
		// nothing to check
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

func (c Config) redisTimeout() time.Duration {
	if c.RedisTimeout <= 0 {
		return 5 * time.Second
	}
	return c.RedisTimeout
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, RedisBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strs := make([]string, len(types))
	for i, t := range types {
		strs[i] = t.String()
	}
	return strs
}

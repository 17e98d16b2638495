// Package config loads the transaction service's configuration. It keeps
// the teacher's "typed Config struct with a NewConfigFromEnv-shaped
// constructor" idiom, but backs it with viper so the larger knob surface
// (retry, circuit breaker, JWT, alerting, currency allow-list) stays
// declarative instead of another hand-rolled getEnv/getEnvAsInt ladder.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Logging      LoggingConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	AccountService AccountServiceConfig
	Retry        RetryConfig
	CircuitBreaker CircuitBreakerConfig
	JWT          JWTConfig
	Alerting     AlertingConfig
	Reversal     ReversalConfig
	Cache        CacheConfig
	Currency     CurrencyConfig
	Kafka        KafkaConfig
	CORS         CORSConfig
}

type ServerConfig struct {
	Port string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type PostgresConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AccountServiceConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RetryConfig struct {
	MaxAttempts int
	WaitDuration time.Duration
	Exponential  bool
}

type CircuitBreakerConfig struct {
	FailureRateThreshold  float64
	SlidingWindowSize     int
	MinimumNumberOfCalls  int
	WaitDurationInOpenState time.Duration
}

type JWTConfig struct {
	Secret         string
	InternalSecret string
	InternalTTL    time.Duration
}

type AlertingConfig struct {
	ErrorRateThreshold           float64
	ResponseTimeThresholdMillis int
	AccountServiceErrorThreshold int
	DailyVolumeThreshold         float64
	SuppressionMinutes           int
}

type ReversalConfig struct {
	WindowDays int
}

type CacheConfig struct {
	AccountTTL time.Duration
	LimitTTL   time.Duration
}

type CurrencyConfig struct {
	Allowed []string
	MaxAmount string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	ClientID string
}

type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
}

// Load reads configuration from environment variables (and an optional
// config file when TRANSACTION_SERVICE_CONFIG_FILE is set), applying the
// same defaults spec §6's configuration table documents.
func Load() *Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8082")

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "json")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.database", "transactions")
	v.SetDefault("postgres.user", "transactions")
	v.SetDefault("postgres.password", "transactions_secure_pass")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.maxopenconns", 25)
	v.SetDefault("postgres.maxidleconns", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("accountservice.baseurl", "http://localhost:8081")
	v.SetDefault("accountservice.timeout", "5s")

	v.SetDefault("retry.maxattempts", 3)
	v.SetDefault("retry.waitduration", "1s")
	v.SetDefault("retry.exponential", false)

	v.SetDefault("cb.failureratethreshold", 50.0)
	v.SetDefault("cb.slidingwindowsize", 10)
	v.SetDefault("cb.minimumnumberofcalls", 5)
	v.SetDefault("cb.waitdurationinopenstate", "30s")

	v.SetDefault("security.jwt.secret", "dev-user-jwt-secret-change-me")
	v.SetDefault("security.jwt.internalsecret", "dev-internal-jwt-secret-change-me")
	v.SetDefault("security.jwt.internalttl", "60s")

	v.SetDefault("alerting.errorrate.threshold", 0.1)
	v.SetDefault("alerting.responsetime.threshold", 2000)
	v.SetDefault("alerting.accountservice.errorthreshold", 5)
	v.SetDefault("alerting.dailyvolume.threshold", 1000000.0)
	v.SetDefault("alerting.suppressionminutes", 15)

	v.SetDefault("reversal.windowdays", 30)

	v.SetDefault("cache.account.ttlseconds", 60)
	v.SetDefault("cache.limit.ttlseconds", 300)

	v.SetDefault("currency.allowed", []string{"USD"})
	v.SetDefault("currency.maxamount", "50000.00")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.clientid", "transaction-service")

	v.SetDefault("cors.alloworigins", []string{"*"})
	v.SetDefault("cors.allowmethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowheaders", []string{"*"})

	if cfgFile := v.GetString("transaction_service_config_file"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		_ = v.ReadInConfig()
	}

	connMaxLifetime, _ := time.ParseDuration(v.GetString("postgres.connmaxlifetime"))
	accountTimeout, _ := time.ParseDuration(v.GetString("accountservice.timeout"))
	retryWait, _ := time.ParseDuration(v.GetString("retry.waitduration"))
	cbWait, _ := time.ParseDuration(v.GetString("cb.waitdurationinopenstate"))
	internalTTL, _ := time.ParseDuration(v.GetString("security.jwt.internalttl"))

	return &Config{
		Server: ServerConfig{Port: v.GetString("server.port")},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Postgres: PostgresConfig{
			Host:            v.GetString("postgres.host"),
			Port:            v.GetInt("postgres.port"),
			Database:        v.GetString("postgres.database"),
			User:            v.GetString("postgres.user"),
			Password:        v.GetString("postgres.password"),
			SSLMode:         v.GetString("postgres.sslmode"),
			MaxOpenConns:    v.GetInt("postgres.maxopenconns"),
			MaxIdleConns:    v.GetInt("postgres.maxidleconns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		AccountService: AccountServiceConfig{
			BaseURL: v.GetString("accountservice.baseurl"),
			Timeout: accountTimeout,
		},
		Retry: RetryConfig{
			MaxAttempts:  v.GetInt("retry.maxattempts"),
			WaitDuration: retryWait,
			Exponential:  v.GetBool("retry.exponential"),
		},
		CircuitBreaker: CircuitBreakerConfig{
			FailureRateThreshold:    v.GetFloat64("cb.failureratethreshold"),
			SlidingWindowSize:       v.GetInt("cb.slidingwindowsize"),
			MinimumNumberOfCalls:    v.GetInt("cb.minimumnumberofcalls"),
			WaitDurationInOpenState: cbWait,
		},
		JWT: JWTConfig{
			Secret:         v.GetString("security.jwt.secret"),
			InternalSecret: v.GetString("security.jwt.internalsecret"),
			InternalTTL:    internalTTL,
		},
		Alerting: AlertingConfig{
			ErrorRateThreshold:           v.GetFloat64("alerting.errorrate.threshold"),
			ResponseTimeThresholdMillis:  v.GetInt("alerting.responsetime.threshold"),
			AccountServiceErrorThreshold: v.GetInt("alerting.accountservice.errorthreshold"),
			DailyVolumeThreshold:         v.GetFloat64("alerting.dailyvolume.threshold"),
			SuppressionMinutes:           v.GetInt("alerting.suppressionminutes"),
		},
		Reversal: ReversalConfig{WindowDays: v.GetInt("reversal.windowdays")},
		Cache: CacheConfig{
			AccountTTL: time.Duration(v.GetInt("cache.account.ttlseconds")) * time.Second,
			LimitTTL:   time.Duration(v.GetInt("cache.limit.ttlseconds")) * time.Second,
		},
		Currency: CurrencyConfig{
			Allowed:   v.GetStringSlice("currency.allowed"),
			MaxAmount: v.GetString("currency.maxamount"),
		},
		Kafka: KafkaConfig{
			Enabled:  v.GetBool("kafka.enabled"),
			Brokers:  v.GetStringSlice("kafka.brokers"),
			ClientID: v.GetString("kafka.clientid"),
		},
		CORS: CORSConfig{
			AllowOrigins: v.GetStringSlice("cors.alloworigins"),
			AllowMethods: v.GetStringSlice("cors.allowmethods"),
			AllowHeaders: v.GetStringSlice("cors.allowheaders"),
		},
	}
}

// ConnectionString builds a PostgreSQL DSN, same shape as the teacher's
// postgres.Config.ConnectionString.
func (c PostgresConfig) ConnectionString() string {
	return "host=" + c.Host +
		" port=" + itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

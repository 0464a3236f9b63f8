package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"app_env" validate:"oneof=development test production"`
	HTTPAddr string `mapstructure:"http_addr" validate:"required"`

	DatabaseDriver string `mapstructure:"database_driver" validate:"oneof=postgres sqlite"`
	DatabaseURL    string `mapstructure:"database_url" validate:"required"`
	DBAutoMigrate  bool   `mapstructure:"db_auto_migrate"`

	RedisAddr     string `mapstructure:"redis_addr" validate:"required"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"min=0"`

	SessionSecret             string        `mapstructure:"session_secret" validate:"required"`
	SessionCookieName         string        `mapstructure:"session_cookie_name" validate:"required"`
	SessionCookieSecure       bool          `mapstructure:"session_cookie_secure"`
	SessionTTL                time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	SessionKeyPrefix          string        `mapstructure:"session_key_prefix" validate:"required"`
	SessionValidationInterval time.Duration `mapstructure:"session_validation_interval" validate:"gt=0"`
	PasswordPepper            string        `mapstructure:"password_pepper"`

	LoginRateLimitPerMinute int    `mapstructure:"login_rate_limit_per_minute" validate:"min=1"`
	APIRateLimitPerMinute   int    `mapstructure:"api_rate_limit_per_minute" validate:"min=1"`
	RateLimitBackend        string `mapstructure:"rate_limit_backend" validate:"oneof=local redis"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port" validate:"min=0,max=65535"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	SMTPFrom     string `mapstructure:"smtp_from"`
	AdminName    string `mapstructure:"admin_name"`
	AdminEmail   string `mapstructure:"admin_email" validate:"omitempty,email"`
	AppBaseURL   string `mapstructure:"app_base_url" validate:"required,url"`

	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`

	OTELServiceName           string        `mapstructure:"otel_service_name" validate:"required"`
	OTELEnvironment           string        `mapstructure:"otel_environment"`
	OTELExporterOTLPEndpoint  string        `mapstructure:"otel_exporter_otlp_endpoint"`
	OTELExporterOTLPInsecure  bool          `mapstructure:"otel_exporter_otlp_insecure"`
	OTELMetricsEnabled        bool          `mapstructure:"otel_metrics_enabled"`
	OTELTracingEnabled        bool          `mapstructure:"otel_tracing_enabled"`
	OTELLogsEnabled           bool          `mapstructure:"otel_logs_enabled"`
	OTELMetricsExportInterval time.Duration `mapstructure:"otel_metrics_export_interval" validate:"gt=0"`
	OTELTraceSamplingRatio    float64       `mapstructure:"otel_trace_sampling_ratio" validate:"min=0,max=1"`

	ReadinessProbeTimeout time.Duration `mapstructure:"readiness_probe_timeout" validate:"gt=0"`
	ShutdownTimeout       time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" {
			return fld.Name
		}
		return strings.ToUpper(name)
	})
	return v
}

// Load reads defaults, an optional config.yaml and the process environment, in that order of precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AutomaticEnv()
	setDefaults(v)

	cfg, err := load(v)
	profile := v.GetString("app_env")
	if err != nil {
		recordConfigValidationEvent(context.Background(), profile, "failure", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(context.Background(), profile, "success", "none")
	return cfg, nil
}

func load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("http_addr", ":3000")

	v.SetDefault("database_driver", "postgres")
	v.SetDefault("database_url", "")
	v.SetDefault("db_auto_migrate", true)

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("session_secret", "")
	v.SetDefault("session_cookie_name", "sid")
	v.SetDefault("session_cookie_secure", false)
	v.SetDefault("session_ttl", 7*24*time.Hour)
	v.SetDefault("session_key_prefix", "sess:")
	v.SetDefault("session_validation_interval", 5*time.Minute)
	v.SetDefault("password_pepper", "")

	v.SetDefault("login_rate_limit_per_minute", 10)
	v.SetDefault("api_rate_limit_per_minute", 300)
	v.SetDefault("rate_limit_backend", "redis")

	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("smtp_from", "")
	v.SetDefault("admin_name", "Admin")
	v.SetDefault("admin_email", "")
	v.SetDefault("app_base_url", "http://localhost:3000")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("otel_service_name", "media-request-tracker")
	v.SetDefault("otel_environment", "development")
	v.SetDefault("otel_exporter_otlp_endpoint", "localhost:4317")
	v.SetDefault("otel_exporter_otlp_insecure", true)
	v.SetDefault("otel_metrics_enabled", false)
	v.SetDefault("otel_tracing_enabled", false)
	v.SetDefault("otel_logs_enabled", false)
	v.SetDefault("otel_metrics_export_interval", 15*time.Second)
	v.SetDefault("otel_trace_sampling_ratio", 1.0)

	v.SetDefault("readiness_probe_timeout", 2*time.Second)
	v.SetDefault("shutdown_timeout", 15*time.Second)
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if c.IsProduction() {
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 bytes in production")
		}
		if !c.SessionCookieSecure {
			return errors.New("SESSION_COOKIE_SECURE must be true in production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// MailEnabled reports whether all SMTP settings needed to send mail are present.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPPort > 0 && c.SMTPUser != "" && c.SMTPPassword != "" && c.SMTPFrom != ""
}

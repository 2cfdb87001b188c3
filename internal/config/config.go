package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type StalenessConfig struct {
	OverdueAfter  time.Duration `mapstructure:"overdue_after"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	UncalledAfter time.Duration `mapstructure:"uncalled_after"`
}

type ActivityConfig struct {
	OnlineWithin  time.Duration `mapstructure:"online_within"`
	IdleWithin    time.Duration `mapstructure:"idle_within"`
	AFKWithin     time.Duration `mapstructure:"afk_within"`
	AlertCooldown time.Duration `mapstructure:"alert_cooldown"`
}

type NotificationsConfig struct {
	// RetentionWindow of zero wipes all notifications on every regeneration.
	RetentionWindow time.Duration `mapstructure:"retention_window"`
}

type SchedulerConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	RegenerateInterval time.Duration `mapstructure:"regenerate_interval"`
	AFKCheckInterval   time.Duration `mapstructure:"afk_check_interval"`
	PurgeInterval      time.Duration `mapstructure:"purge_interval"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type EmailConfig struct {
	From            string   `mapstructure:"from"`
	SMTPHost        string   `mapstructure:"smtp_host"`
	SMTPPort        int      `mapstructure:"smtp_port"`
	Username        string   `mapstructure:"username"`
	Password        string   `mapstructure:"password"`
	AlertRecipients []string `mapstructure:"alert_recipients"`
}

type AMQPConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

type Config struct {
	DatabaseURL   string              `mapstructure:"database_url"`
	ServerPort    string              `mapstructure:"server_port"`
	JWTSecret     string              `mapstructure:"jwt_secret"`
	ServiceKey    string              `mapstructure:"service_key"`
	LogLevel      string              `mapstructure:"log_level"`
	CORSOrigins   []string            `mapstructure:"cors_origins"`
	Staleness     StalenessConfig     `mapstructure:"staleness"`
	Activity      ActivityConfig      `mapstructure:"activity"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Temporal      TemporalConfig      `mapstructure:"temporal"`
	Email         EmailConfig         `mapstructure:"email"`
	AMQP          AMQPConfig          `mapstructure:"amqp"`
	Tracing       TracingConfig       `mapstructure:"tracing"`
}

// Secrets are read from the environment (LEADWATCH_DATABASE_URL and so on)
// and take precedence over the config file.
type Secrets struct {
	DatabaseURL string `envconfig:"database_url"`
	ServiceKey  string `envconfig:"service_key"`
	JWTSecret   string `envconfig:"jwt_secret"`
}

const envPrefix = "leadwatch"

// Load reads config.yaml from the current directory or ./config.
func Load() (*Config, error) {
	return LoadFrom(".", "./config")
}

// LoadFrom reads config.yaml from the given search paths. A missing file is
// not an error; defaults and environment still apply.
func LoadFrom(paths ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	var secrets Secrets
	if err := envconfig.Process(envPrefix, &secrets); err != nil {
		return nil, fmt.Errorf("read secrets from env: %w", err)
	}
	cfg.applySecrets(secrets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applySecrets(s Secrets) {
	if s.DatabaseURL != "" {
		c.DatabaseURL = s.DatabaseURL
	}
	if s.ServiceKey != "" {
		c.ServiceKey = s.ServiceKey
	}
	if s.JWTSecret != "" {
		c.JWTSecret = s.JWTSecret
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("database_url must be set")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if strings.TrimSpace(c.ServiceKey) == "" {
		return fmt.Errorf("service_key must be set")
	}
	if c.Notifications.RetentionWindow < 0 {
		return fmt.Errorf("notifications.retention_window must not be negative")
	}
	if c.Staleness.OverdueAfter >= c.Staleness.StaleAfter {
		return fmt.Errorf("staleness.overdue_after must be shorter than staleness.stale_after")
	}
	a := c.Activity
	if !(a.OnlineWithin < a.IdleWithin && a.IdleWithin < a.AFKWithin) {
		return fmt.Errorf("activity thresholds must increase: online_within < idle_within < afk_within")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("service_key", "")
	v.SetDefault("server_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", []string{"*"})

	v.SetDefault("staleness.overdue_after", 4*24*time.Hour)
	v.SetDefault("staleness.stale_after", 14*24*time.Hour)
	v.SetDefault("staleness.uncalled_after", 14*24*time.Hour)

	v.SetDefault("activity.online_within", 5*time.Minute)
	v.SetDefault("activity.idle_within", 10*time.Minute)
	v.SetDefault("activity.afk_within", 30*time.Minute)
	v.SetDefault("activity.alert_cooldown", 30*time.Minute)

	v.SetDefault("notifications.retention_window", 24*time.Hour)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.regenerate_interval", time.Hour)
	v.SetDefault("scheduler.afk_check_interval", 2*time.Minute)
	v.SetDefault("scheduler.purge_interval", time.Hour)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "leadwatch-notifications")

	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from", "")
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.alert_recipients", []string{})

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "leadwatch.notifications")
	v.SetDefault("amqp.routing_key", "notification.afk")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "leadwatch-api")
	v.SetDefault("tracing.insecure", true)
}

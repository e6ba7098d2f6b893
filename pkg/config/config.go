package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	Notifications NotificationsConfig
	Digest        DigestConfig
	Mail          MailConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GOALMATES_APP_ENV" required:"true"`
	Port         string `envconfig:"GOALMATES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GOALMATES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GOALMATES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GOALMATES_DB_DSN"`
	Driver string `envconfig:"GOALMATES_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GOALMATES_DB_HOST"`
	LegacyPort     int    `envconfig:"GOALMATES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GOALMATES_DB_USER"`
	LegacyPassword string `envconfig:"GOALMATES_DB_PASSWORD"`
	LegacyName     string `envconfig:"GOALMATES_DB_NAME"`
	LegacySSLMode  string `envconfig:"GOALMATES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GOALMATES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GOALMATES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GOALMATES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GOALMATES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GOALMATES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GOALMATES_REDIS_ADDR"`
	Password     string        `envconfig:"GOALMATES_REDIS_PASSWORD"`
	DB           int           `envconfig:"GOALMATES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GOALMATES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GOALMATES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GOALMATES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GOALMATES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GOALMATES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GOALMATES_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GOALMATES_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GOALMATES_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GOALMATES_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GOALMATES_AUTO_MIGRATE" default:"false"`
}

type NotificationsConfig struct {
	ListCap int `envconfig:"GOALMATES_NOTIFICATIONS_LIST_CAP" default:"50"`
}

type DigestConfig struct {
	// JobTimeout bounds a single digest job; zero disables the bound and a
	// stuck mail send then blocks the drain loop on that one job.
	JobTimeout time.Duration `envconfig:"GOALMATES_DIGEST_JOB_TIMEOUT" default:"0"`
}

type MailConfig struct {
	From            string `envconfig:"GOALMATES_MAIL_FROM" default:"GoalMates <noreply@goalmates.local>"`
	FrontendBaseURL string `envconfig:"GOALMATES_FRONTEND_URL" default:"http://localhost:4200"`

	SMTPHost     string `envconfig:"GOALMATES_SMTP_HOST"`
	SMTPPort     int    `envconfig:"GOALMATES_SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"GOALMATES_SMTP_USER"`
	SMTPPassword string `envconfig:"GOALMATES_SMTP_PASSWORD"`
}

// Enabled reports whether an outbound transport is configured. Without one
// the mailer falls back to logging deliveries.
func (m MailConfig) Enabled() bool {
	return m.SMTPHost != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

package config

import (
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
	"github.com/Astemirdum/library-catalog/pkg/logger"
	"github.com/Astemirdum/library-catalog/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `envconfig:"HTTP_HOST"`
	Port         string        `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE"`
}

type Auth struct {
	JWTSecret       string        `envconfig:"JWT_SECRET"`
	TokenTTL        time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	SessionLifetime time.Duration `envconfig:"SESSION_LIFETIME" default:"12h"`
	CSRFKey         string        `envconfig:"CSRF_KEY"`
	SecureCookies   bool          `envconfig:"SECURE_COOKIES"`
}

type Library struct {
	LoanPeriod      time.Duration      `envconfig:"LOAN_PERIOD" default:"336h"`
	ReviewPolicy    model.ReviewPolicy `envconfig:"REVIEW_POLICY" default:"reject"`
	OverdueScanSpec string             `envconfig:"OVERDUE_SCAN_SPEC" default:"@every 1h"`
}

type Config struct {
	Server   HTTPServer
	Database postgres.DB
	Log      logger.Log
	Kafka    kafka.Config
	Auth     Auth
	Library  Library
}

// ValidateServe checks the secrets only the HTTP server needs.
func (c *Config) ValidateServe() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.Auth.CSRFKey) != 32 {
		return errors.New("CSRF_KEY must be 32 bytes")
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Library.ReviewPolicy {
	case model.ReviewPolicyReject, model.ReviewPolicyUpsert:
	default:
		return errors.Errorf("REVIEW_POLICY %q is not reject or upsert", c.Library.ReviewPolicy)
	}
	if c.Library.LoanPeriod <= 0 {
		return errors.New("LOAN_PERIOD must be positive")
	}
	return nil
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// NewConfig reads config from environment once. Options fill values the environment leaves unset.
func NewConfig(ops ...Option) (*Config, error) {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("", &config); err != nil {
			cfgErr = errors.Wrap(err, "envconfig")
			return
		}
		if err := config.validate(); err != nil {
			cfgErr = err
			return
		}
		cfg = &config
	})

	return cfg, cfgErr
}

package config

import (
	stderrors "errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "INVITE_"

type Config struct {
	Server       Server       `envPrefix:"SERVER_"`
	Invite       Invite
	Auth         Auth         `envPrefix:"JWT_"`
	Persistence  Persistence  `envPrefix:"DB_"`
	ObjectStore  ObjectStore  `envPrefix:"MINIO_"`
	Mail         Mail         `envPrefix:"SMTP_"`
	Notification Notification `envPrefix:"NOTIFY_"`
}

type Server struct {
	Address         string        `env:"ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"20s"`
	Debug           bool          `env:"DEBUG" envDefault:"false"`
}

type Invite struct {
	BaseURL          string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	RedirectOnAccept bool          `env:"REDIRECT_ON_ACCEPT" envDefault:"false"`
	StorageTimeout   time.Duration `env:"STORAGE_TIMEOUT" envDefault:"10s"`
	QRSize           int           `env:"QR_SIZE" envDefault:"256"`
	EmailTemplate    string        `env:"EMAIL_TEMPLATE" envDefault:"invite"`
}

type Auth struct {
	SigningKey      string   `env:"SIGNING_KEY"`
	TokenExpiration int      `env:"EXPIRATION_HOURS" envDefault:"24"`
	Issuer          string   `env:"ISSUER" envDefault:"go-invite"`
	Audience        []string `env:"AUDIENCE" envDefault:"go-invite" envSeparator:","`
	TokenLookup     string   `env:"TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme      string   `env:"AUTH_SCHEME" envDefault:"Bearer"`
}

type Persistence struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"file:invite.db?cache=shared&_pragma=foreign_keys(1)"`
	Debug  bool   `env:"DEBUG" envDefault:"false"`
}

type ObjectStore struct {
	Endpoint      string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	Bucket        string `env:"BUCKET" envDefault:"invites"`
	Secure        bool   `env:"SECURE" envDefault:"false"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

type Mail struct {
	Server       string `env:"SERVER" envDefault:"localhost"`
	Port         int    `env:"PORT" envDefault:"587"`
	Username     string `env:"USERNAME"`
	Password     string `env:"PASSWORD"`
	From         string `env:"FROM" envDefault:"no-reply@example.com"`
	SendRealMail bool   `env:"SEND_REAL_MAIL" envDefault:"false"`
	TLS          bool   `env:"TLS" envDefault:"true"`
}

type Notification struct {
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"15s"`
	Workers   int           `env:"WORKERS" envDefault:"2"`
	QueueSize int           `env:"QUEUE_SIZE" envDefault:"128"`
}

// Load reads .env files when present and parses INVITE_* variables. A
// missing file is skipped, one that cannot be read or parsed is an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to load env file").
			WithMetadata(map[string]any{"files": files})
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse environment configuration")
	}

	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}

	return cfg, nil
}

// Validate will run validation rules
func (c *Config) Validate() *errors.Error {
	smtpRules := []validation.Rule{}
	if c.Mail.SendRealMail {
		smtpRules = append(smtpRules, validation.Required)
	}

	return errors.ValidateWithOzzo(func() error {
		return validation.Errors{
			"invite": validation.ValidateStruct(&c.Invite,
				validation.Field(&c.Invite.BaseURL, validation.Required, is.URL),
				validation.Field(&c.Invite.StorageTimeout, validation.Required),
				validation.Field(&c.Invite.QRSize, validation.Required, validation.Min(64)),
			),
			"jwt": validation.ValidateStruct(&c.Auth,
				validation.Field(&c.Auth.SigningKey, validation.Required, validation.Length(16, 0)),
				validation.Field(&c.Auth.TokenExpiration, validation.Required, validation.Min(1)),
			),
			"db": validation.ValidateStruct(&c.Persistence,
				validation.Field(&c.Persistence.Driver, validation.Required, validation.In("sqlite", "postgres")),
				validation.Field(&c.Persistence.DSN, validation.Required),
			),
			"minio": validation.ValidateStruct(&c.ObjectStore,
				validation.Field(&c.ObjectStore.Endpoint, validation.Required),
				validation.Field(&c.ObjectStore.Bucket, validation.Required),
				validation.Field(&c.ObjectStore.PublicBaseURL, is.URL),
			),
			"smtp": validation.ValidateStruct(&c.Mail,
				validation.Field(&c.Mail.From, validation.Required, is.Email),
				validation.Field(&c.Mail.Server, smtpRules...),
				validation.Field(&c.Mail.Port, smtpRules...),
			),
			"notify": validation.ValidateStruct(&c.Notification,
				validation.Field(&c.Notification.Workers, validation.Required, validation.Min(1)),
				validation.Field(&c.Notification.QueueSize, validation.Required, validation.Min(1)),
			),
		}.Filter()
	}, "Invalid configuration")
}

func (c *Config) GetInviteBaseURL() string {
	return c.Invite.BaseURL
}

func (c *Config) GetRedirectOnAccept() bool {
	return c.Invite.RedirectOnAccept
}

func (c *Config) GetStorageTimeout() time.Duration {
	return c.Invite.StorageTimeout
}

func (c *Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c *Config) GetTokenExpiration() int {
	return c.Auth.TokenExpiration
}

func (c *Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c *Config) GetAudience() []string {
	return c.Auth.Audience
}

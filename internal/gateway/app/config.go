package app

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/registry"
	"github.com/aussiebroadwan/m2mgate/pkg/httpx"
	"github.com/aussiebroadwan/m2mgate/pkg/ratelimit"
)

type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"8080"`

	DatabaseFile string `env:"GATEWAY_DATABASE_FILE" envDefault:"gateway.db"`

	// JWTSecret signs and verifies access tokens. It is required outside
	// ENV=dev; in dev an empty secret starts the server but every token
	// request fails with server_error.
	JWTSecret string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"m2m-gateway"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	// Client registry sources, first non-empty wins. The legacy
	// ORDER_SERVICE_* and MEASUREMENT_SERVICE_* variables are read last.
	Clients     string `env:"OAUTH2_CLIENTS"`
	ClientsFile string `env:"OAUTH2_CLIENTS_FILE"`

	AllowedIPs   []string `env:"M2M_ALLOWED_IPS" envSeparator:","`
	IPPermissive bool     `env:"M2M_IP_PERMISSIVE" envDefault:"false"`

	RateLimitAlgorithm     string        `env:"RATELIMIT_ALGORITHM" envDefault:"fixed"`
	RateLimitSweepInterval time.Duration `env:"RATELIMIT_SWEEP_INTERVAL" envDefault:"1m"`
	ReadRequests           int           `env:"RATELIMIT_READ_REQUESTS" envDefault:"100"`
	ReadWindow             time.Duration `env:"RATELIMIT_READ_WINDOW" envDefault:"1m"`
	WriteRequests          int           `env:"RATELIMIT_WRITE_REQUESTS" envDefault:"20"`
	WriteWindow            time.Duration `env:"RATELIMIT_WRITE_WINDOW" envDefault:"1m"`
	TokenRequests          int           `env:"RATELIMIT_TOKEN_REQUESTS" envDefault:"20"`
	TokenWindow            time.Duration `env:"RATELIMIT_TOKEN_WINDOW" envDefault:"1m"`

	UserContextTimeout time.Duration `env:"USER_CONTEXT_TIMEOUT" envDefault:"5s"`
	AutoProvision      bool          `env:"AUTO_PROVISION" envDefault:"true"`

	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads a .env file when present and parses the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.JWTSecret == "" && c.Env != "dev" {
		errs = append(errs, errors.New("JWT_SECRET is required outside ENV=dev"))
	}
	if c.Issuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.IPPermissive && c.Env == "prod" {
		errs = append(errs, errors.New("M2M_IP_PERMISSIVE cannot be enabled when ENV=prod"))
	}
	if !slices.Contains([]string{ratelimit.AlgorithmFixedWindow, ratelimit.AlgorithmTokenBucket}, c.RateLimitAlgorithm) {
		errs = append(errs, fmt.Errorf("RATELIMIT_ALGORITHM must be %q or %q", ratelimit.AlgorithmFixedWindow, ratelimit.AlgorithmTokenBucket))
	}
	for name, p := range map[string]httpx.RateLimitPolicy{
		"READ":  c.ReadPolicy(),
		"WRITE": c.WritePolicy(),
		"TOKEN": c.TokenPolicy(),
	} {
		if p.Requests <= 0 || p.Window <= 0 {
			errs = append(errs, fmt.Errorf("RATELIMIT_%s_REQUESTS and RATELIMIT_%s_WINDOW must be positive", name, name))
		}
	}
	if c.UserContextTimeout <= 0 {
		errs = append(errs, errors.New("USER_CONTEXT_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) ReadPolicy() httpx.RateLimitPolicy {
	return httpx.RateLimitPolicy{Requests: c.ReadRequests, Window: c.ReadWindow}
}

func (c Config) WritePolicy() httpx.RateLimitPolicy {
	return httpx.RateLimitPolicy{Requests: c.WriteRequests, Window: c.WriteWindow}
}

func (c Config) TokenPolicy() httpx.RateLimitPolicy {
	return httpx.RateLimitPolicy{Requests: c.TokenRequests, Window: c.TokenWindow}
}

// RegistrySources maps the client configuration onto registry sources.
func (c Config) RegistrySources() registry.Sources {
	return registry.Sources{
		JSON:   c.Clients,
		File:   c.ClientsFile,
		Lookup: os.LookupEnv,
	}
}

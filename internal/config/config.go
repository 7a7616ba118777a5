// Package config loads the server's runtime settings.
//
// Values are layered, each source overriding the one before it:
//
//	Default() → YAML file (--config or CONFIG_FILE) → environment → flags
//
// Only flags that were explicitly passed override; a flag's default value
// never clobbers something set in the file or the environment.
//
// The JWT secret has no default. It must come from the file, JWT_SECRET or
// --jwt-secret, and Validate rejects anything shorter than
// auth.MinSecretLength.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/sakif/hackernews/internal/auth"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every setting cmd/server needs to assemble the app.
type Config struct {
	// Port the HTTP server listens on.
	Port int `yaml:"port"`

	// DBDriver selects the store: "sqlite" (default) or "postgres".
	DBDriver string `yaml:"db_driver"`

	// DBPath is the SQLite file. ":memory:" works for throwaway runs.
	DBPath string `yaml:"db_path"`

	// DatabaseURL is the PostgreSQL connection string, required when
	// DBDriver is "postgres".
	DatabaseURL string `yaml:"database_url"`

	// JWTSecret signs session tokens.
	JWTSecret string `yaml:"jwt_secret"`

	// TokenTTL bounds token lifetime. Zero issues tokens that never expire.
	TokenTTL time.Duration `yaml:"token_ttl"`

	BcryptCost int `yaml:"bcrypt_cost"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`

	CORSOrigins []string `yaml:"cors_origins"`

	// Playground serves the API explorer page on GET /.
	Playground bool `yaml:"playground"`
}

// Default returns the development defaults. JWTSecret is deliberately empty.
func Default() *Config {
	return &Config{
		Port:        3000,
		DBDriver:    DriverSQLite,
		DBPath:      "data/hackernews.db",
		BcryptCost:  bcrypt.DefaultCost,
		LogLevel:    "info",
		LogFormat:   "text",
		CORSOrigins: []string{"*"},
		Playground:  true,
	}
}

// flagValues receives parsed flags before they are merged into a Config.
type flagValues struct {
	configFile  string
	port        int
	dbDriver    string
	dbPath      string
	databaseURL string
	jwtSecret   string
	tokenTTL    time.Duration
	bcryptCost  int
	logLevel    string
	logFormat   string
	corsOrigins []string
	playground  bool
}

func newFlagSet(defaults *Config, fv *flagValues) *pflag.FlagSet {
	fs := pflag.NewFlagSet("hackernews", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVarP(&fv.configFile, "config", "c", "", "path to a YAML config file")
	fs.IntVarP(&fv.port, "port", "p", defaults.Port, "HTTP listen port")
	fs.StringVar(&fv.dbDriver, "db-driver", defaults.DBDriver, "database driver (sqlite|postgres)")
	fs.StringVar(&fv.dbPath, "db-path", defaults.DBPath, "SQLite database file")
	fs.StringVar(&fv.databaseURL, "database-url", "", "PostgreSQL connection string")
	fs.StringVar(&fv.jwtSecret, "jwt-secret", "", "secret used to sign tokens")
	fs.DurationVar(&fv.tokenTTL, "token-ttl", defaults.TokenTTL, "token lifetime (0 = no expiry)")
	fs.IntVar(&fv.bcryptCost, "bcrypt-cost", defaults.BcryptCost, "bcrypt work factor")
	fs.StringVar(&fv.logLevel, "log-level", defaults.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&fv.logFormat, "log-format", defaults.LogFormat, "log format (text|json)")
	fs.StringSliceVar(&fv.corsOrigins, "cors-origins", defaults.CORSOrigins, "allowed CORS origins")
	fs.BoolVar(&fv.playground, "playground", defaults.Playground, "serve the API explorer on /")

	return fs
}

// Load builds a Config from args (normally os.Args[1:]), the environment
// and an optional YAML file. The result is validated.
func Load(args []string) (*Config, error) {
	cfg := Default()

	var fv flagValues
	fs := newFlagSet(cfg, &fv)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path := os.Getenv("CONFIG_FILE")
	if fs.Changed("config") {
		path = fv.configFile
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.applyFlags(fs, &fv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"DB_DRIVER":    &c.DBDriver,
		"DB_PATH":      &c.DBPath,
		"DATABASE_URL": &c.DatabaseURL,
		"JWT_SECRET":   &c.JWTSecret,
		"LOG_LEVEL":    &c.LogLevel,
		"LOG_FORMAT":   &c.LogFormat,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":        &c.Port,
		"BCRYPT_COST": &c.BcryptCost,
	}
	for key, dst := range ints {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}

	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid TOKEN_TTL %q: %w", v, err)
		}
		c.TokenTTL = d
	}

	if v := getenv("PLAYGROUND"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid PLAYGROUND %q: %w", v, err)
		}
		c.Playground = b
	}

	if v := getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	return nil
}

func (c *Config) applyFlags(fs *pflag.FlagSet, fv *flagValues) {
	if fs.Changed("port") {
		c.Port = fv.port
	}
	if fs.Changed("db-driver") {
		c.DBDriver = fv.dbDriver
	}
	if fs.Changed("db-path") {
		c.DBPath = fv.dbPath
	}
	if fs.Changed("database-url") {
		c.DatabaseURL = fv.databaseURL
	}
	if fs.Changed("jwt-secret") {
		c.JWTSecret = fv.jwtSecret
	}
	if fs.Changed("token-ttl") {
		c.TokenTTL = fv.tokenTTL
	}
	if fs.Changed("bcrypt-cost") {
		c.BcryptCost = fv.bcryptCost
	}
	if fs.Changed("log-level") {
		c.LogLevel = fv.logLevel
	}
	if fs.Changed("log-format") {
		c.LogFormat = fv.logFormat
	}
	if fs.Changed("cors-origins") {
		c.CORSOrigins = fv.corsOrigins
	}
	if fs.Changed("playground") {
		c.Playground = fv.playground
	}
}

// Validate reports every problem at once, joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("db_path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database_url is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown db_driver %q (want sqlite or postgres)", c.DBDriver))
	}

	if len(c.JWTSecret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d characters (set JWT_SECRET)", auth.MinSecretLength))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, errors.New("token_ttl must not be negative"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if _, err := c.level(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log_format %q (want text or json)", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Logger builds the application logger described by LogLevel and LogFormat.
// Call it after Validate; an unknown level falls back to info.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return level, nil
}

// LogValue keeps secrets out of the startup log line.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("port", c.Port),
		slog.String("db_driver", c.DBDriver),
		slog.String("db_path", c.DBPath),
		slog.Bool("database_url_set", c.DatabaseURL != ""),
		slog.Duration("token_ttl", c.TokenTTL),
		slog.Int("bcrypt_cost", c.BcryptCost),
		slog.String("log_level", c.LogLevel),
		slog.String("log_format", c.LogFormat),
		slog.Any("cors_origins", c.CORSOrigins),
		slog.Bool("playground", c.Playground),
	)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "config.yaml"

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		IdleTimeout     time.Duration `yaml:"idleTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		MaxUploadMB     int           `yaml:"maxUploadMB"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
	} `yaml:"server"`

	Auth struct {
		Enabled bool              `yaml:"enabled"`
		APIKeys map[string]string `yaml:"apiKeys"` // caller -> key
	} `yaml:"auth"`

	RateLimit struct {
		Enabled         bool    `yaml:"enabled"`
		Capacity        int     `yaml:"capacity"`
		RefillPerSecond float64 `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`

	Vision struct {
		Provider   string        `yaml:"provider"` // gemini | openai
		Model      string        `yaml:"model"`
		APIKey     string        `yaml:"apiKey"`
		BaseURL    string        `yaml:"baseURL"`
		MaxRetries int           `yaml:"maxRetries"`
		Backoff    time.Duration `yaml:"backoff"`
		Timeout    time.Duration `yaml:"timeout"` // per attempt
	} `yaml:"vision"`

	Database struct {
		Backend  string `yaml:"backend"` // mysql | postgres | sqlite | none
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Path     string `yaml:"path"` // sqlite file
		Migrate  bool   `yaml:"migrate"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool          `yaml:"enabled"`
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey"`
		SecretKey  string        `yaml:"secretKey"`
		BucketName string        `yaml:"bucketName"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL"`
		URLExpiry  time.Duration `yaml:"urlExpiry"`
	} `yaml:"minio"`

	Analytics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"analytics"`

	Standards struct {
		Path string `yaml:"path"` // empty uses the embedded dataset
	} `yaml:"standards"`

	Risk struct {
		Rounding string `yaml:"rounding"` // half_up | half_even
	} `yaml:"risk"`
}

// Path returns CONFIG_PATH or the default.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// LoadDotEnv loads .env files into the environment. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load baca file config, lalu env override dan default.
// File yang tidak ada dianggap kosong.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	switch strings.ToLower(c.Vision.Provider) {
	case "openai":
		setFromEnv(&c.Vision.APIKey, "OPENAI_API_KEY")
	default:
		setFromEnv(&c.Vision.APIKey, "GEMINI_API_KEY")
	}
	setFromEnv(&c.Database.Password, "CONSTRITE_DB_PASSWORD")
	setFromEnv(&c.Database.DSN, "CONSTRITE_DB_DSN")
	setFromEnv(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setFromEnv(&c.Minio.SecretKey, "MINIO_SECRET_KEY")

	if v := os.Getenv("CONSTRITE_API_KEYS"); v != "" {
		keys := ParseAPIKeys(v)
		if len(keys) > 0 {
			c.Auth.APIKeys = keys
			c.Auth.Enabled = true
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ParseAPIKeys reads "name:key,name:key". Entries without a name or key are skipped.
func ParseAPIKeys(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		name, key, ok := strings.Cut(strings.TrimSpace(pair), ":")
		name, key = strings.TrimSpace(name), strings.TrimSpace(key)
		if !ok || name == "" || key == "" {
			continue
		}
		out[name] = key
	}
	return out
}

func (c *Config) applyDefaults() {
	s := &c.Server
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	// vision calls with retries take well over a minute
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 3 * time.Minute
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = 60 * time.Second
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 15 * time.Second
	}
	if s.MaxUploadMB == 0 {
		s.MaxUploadMB = 10
	}
	if len(s.CORSOrigins) == 0 {
		s.CORSOrigins = []string{"*"}
	}

	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillPerSecond == 0 {
		c.RateLimit.RefillPerSecond = 1
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	v := &c.Vision
	v.Provider = strings.ToLower(strings.TrimSpace(v.Provider))
	if v.Provider == "" {
		v.Provider = "gemini"
	}
	if v.Model == "" {
		switch v.Provider {
		case "openai":
			v.Model = "gpt-4o"
		default:
			v.Model = "gemini-2.5-flash"
		}
	}
	if v.MaxRetries == 0 {
		v.MaxRetries = 3
	}
	if v.Backoff == 0 {
		v.Backoff = 2 * time.Second
	}
	if v.Timeout == 0 {
		v.Timeout = 60 * time.Second
	}

	d := &c.Database
	d.Backend = strings.ToLower(strings.TrimSpace(d.Backend))
	if d.Backend == "" {
		d.Backend = "none"
	}
	if d.Host == "" {
		d.Host = "localhost"
	}
	if d.Port == 0 {
		switch d.Backend {
		case "postgres":
			d.Port = 5432
		default:
			d.Port = 3306
		}
	}
	if d.Name == "" {
		d.Name = "constrite"
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.Path == "" {
		d.Path = "constrite.db"
	}

	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "constrite-images"
	}
	if c.Minio.URLExpiry == 0 {
		c.Minio.URLExpiry = 7 * 24 * time.Hour
	}

	if c.Risk.Rounding == "" {
		c.Risk.Rounding = string(risk.RoundHalfUp)
	}
}

// Validate rejects unknown names and out-of-range limits.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadMB < 1 || c.Server.MaxUploadMB > 50 {
		errs = append(errs, fmt.Errorf("server.maxUploadMB %d must be 1-50", c.Server.MaxUploadMB))
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, errors.New("auth.enabled needs at least one apiKeys entry"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity < 1 || c.RateLimit.RefillPerSecond <= 0) {
		errs = append(errs, errors.New("rateLimit.capacity and refillPerSecond must be positive"))
	}
	switch c.Vision.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("vision.provider %q: want gemini or openai", c.Vision.Provider))
	}
	if c.Vision.MaxRetries < 1 || c.Vision.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("vision.maxRetries %d must be 1-10", c.Vision.MaxRetries))
	}
	switch c.Database.Backend {
	case "mysql", "postgres", "sqlite", "none":
	default:
		errs = append(errs, fmt.Errorf("database.backend %q: want mysql, postgres, sqlite or none", c.Database.Backend))
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.AccessKey == "" || c.Minio.SecretKey == "") {
		errs = append(errs, errors.New("minio.enabled needs endpoint, accessKey and secretKey"))
	}
	if c.Minio.URLExpiry < time.Second || c.Minio.URLExpiry > 7*24*time.Hour {
		errs = append(errs, fmt.Errorf("minio.urlExpiry %s must be between 1s and 168h", c.Minio.URLExpiry))
	}
	if c.Analytics.Enabled && c.Database.Backend == "none" {
		errs = append(errs, errors.New("analytics.enabled needs a database backend"))
	}
	if _, err := risk.ParseRounding(c.Risk.Rounding); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// Rounding returns the parsed rounding mode.
func (c *Config) Rounding() risk.Rounding {
	r, _ := risk.ParseRounding(c.Risk.Rounding)
	return r
}

// Helper untuk build DSN MySQL. multiStatements dibutuhkan migrasi.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC&multiStatements=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq URL DSN.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + strconv.Itoa(c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

// SQLitePath is the database file for the sqlite backend.
func (c *Config) SQLitePath() string {
	return c.Database.Path
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Environment variables that take precedence over the file for secrets.
const (
	EnvYouTubeAPIKey = "YOUTUBE_API_KEY"
	EnvVKAccessToken = "VK_ACCESS_TOKEN"
)

type Config struct {
	Env            string `yaml:"env"`
	LookupIDLength int    `yaml:"lookup_id_length"`
	HTTPServer     `yaml:"http_server"`
	Postgres       `yaml:"postgres"`
	Fetcher        `yaml:"fetcher"`
	YouTube        `yaml:"youtube"`
	VK             `yaml:"vk"`
	Dzen           `yaml:"dzen"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

// Lookups of a long list take a while, so the write timeout is generous.
var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   2 * time.Minute,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	Enabled         bool          `yaml:"enabled"`
	MigrationsPath  string        `yaml:"migrations_path"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	MigrationsPath:  "file://migrations",
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// Fetcher configures outbound requests to the video platforms.
type Fetcher struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	ProxyURL  string        `yaml:"proxy_url"`
	Workers   int           `yaml:"workers"`
}

var defaultFetcher = Fetcher{
	Timeout: 25 * time.Second,
	Workers: 4,
}

type YouTube struct {
	APIKey string `yaml:"api_key"`
}

type VK struct {
	AccessToken string `yaml:"access_token"`
	APIVersion  string `yaml:"api_version"`
}

var defaultVK = VK{
	APIVersion: "5.199",
}

type Dzen struct {
	BrowserFallback bool          `yaml:"browser_fallback"`
	BrowserTimeout  time.Duration `yaml:"browser_timeout"`
	ChromePath      string        `yaml:"chrome_path"`
}

var defaultDzen = Dzen{
	BrowserTimeout: 30 * time.Second,
}

// Load reads the config file at path. An empty path yields the defaults.
// Secrets found in the environment override the file in both cases.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	applyEnv(&cfg)

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.LookupIDLength = 12
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Fetcher = defaultFetcher
	cfg.VK = defaultVK
	cfg.Dzen = defaultDzen
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvYouTubeAPIKey); v != "" {
		cfg.YouTube.APIKey = v
	}
	if v := os.Getenv(EnvVKAccessToken); v != "" {
		cfg.VK.AccessToken = v
	}
}

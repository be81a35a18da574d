package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SandboxBaseURL = "https://apisb.etrade.com"
	ProdBaseURL    = "https://api.etrade.com"
)

// Config es la configuración completa del scanner.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ScannerConfig controla qué se escanea y con qué umbrales.
type ScannerConfig struct {
	Symbol          string  `yaml:"symbol"`
	IntervalSeconds int     `yaml:"interval_seconds"`
	StrikePriceNear float64 `yaml:"strike_price_near"` // 0 = la API elige
	NoOfStrikes     int     `yaml:"no_of_strikes"`
	ExpiryDate      string  `yaml:"expiry_date"` // YYYY-MM-DD, vacío = próximo vencimiento
	Multiplier      int64   `yaml:"multiplier"`
	MinVolume       *int64  `yaml:"min_volume"`   // nil = 100; 0 es válido (el filtro es estricto)
	MinAskSize      *int64  `yaml:"min_ask_size"` // nil = 10
	MaxSpread       float64 `yaml:"max_spread"`
	OnMalformed     string  `yaml:"on_malformed"` // skip | abort
	Workers         int     `yaml:"workers"`
	AlertMinResult  float64 `yaml:"alert_min_result"` // 0 = sin alertas
}

// APIConfig contiene las credenciales y URLs de E*TRADE.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`       // market API; depende de sandbox
	OAuthBaseURL   string `yaml:"oauth_base_url"` // tokens; siempre producción por defecto
	AuthorizeURL   string `yaml:"authorize_url"`
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	Sandbox        bool   `yaml:"sandbox"`
}

// StorageConfig controla dónde se graban los snapshots de market data.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// Expiry parsea ExpiryDate. ok=false si no está definido.
func (c *Config) Expiry() (t time.Time, ok bool, err error) {
	if c.Scanner.ExpiryDate == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse("2006-01-02", c.Scanner.ExpiryDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expiry_date %q: %w", c.Scanner.ExpiryDate, err)
	}
	return t, true, nil
}

func (c *Config) validate() error {
	if _, _, err := c.Expiry(); err != nil {
		return err
	}
	if v := c.Scanner.MinVolume; v != nil && *v < 0 {
		return fmt.Errorf("min_volume must be >= 0, got %d", *v)
	}
	if v := c.Scanner.MinAskSize; v != nil && *v < 0 {
		return fmt.Errorf("min_ask_size must be >= 0, got %d", *v)
	}
	switch c.Scanner.OnMalformed {
	case "skip", "abort":
	default:
		return fmt.Errorf("on_malformed must be skip or abort, got %q", c.Scanner.OnMalformed)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ETRADE_CONSUMER_KEY"); v != "" {
		cfg.API.ConsumerKey = v
	}
	if v := os.Getenv("ETRADE_CONSUMER_SECRET"); v != "" {
		cfg.API.ConsumerSecret = v
	}
	if v := os.Getenv("ETRADE_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("ETRADE_OAUTH_BASE_URL"); v != "" {
		cfg.API.OAuthBaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// Los umbrales de liquidez no tienen respaldo teórico: son puntos de partida a ajustar
// por instrumento.
func setDefaults(cfg *Config) {
	if cfg.Scanner.Symbol == "" {
		cfg.Scanner.Symbol = "AAPL"
	}
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 60
	}
	if cfg.Scanner.NoOfStrikes <= 0 {
		cfg.Scanner.NoOfStrikes = 10
	}
	if cfg.Scanner.Multiplier <= 0 {
		cfg.Scanner.Multiplier = 100
	}
	if cfg.Scanner.MinVolume == nil {
		cfg.Scanner.MinVolume = int64Ptr(100)
	}
	if cfg.Scanner.MinAskSize == nil {
		cfg.Scanner.MinAskSize = int64Ptr(10)
	}
	if cfg.Scanner.MaxSpread <= 0 {
		cfg.Scanner.MaxSpread = 0.5
	}
	if cfg.Scanner.OnMalformed == "" {
		cfg.Scanner.OnMalformed = "skip"
	}
	if cfg.API.BaseURL == "" {
		if cfg.API.Sandbox {
			cfg.API.BaseURL = SandboxBaseURL
		} else {
			cfg.API.BaseURL = ProdBaseURL
		}
	}
	if cfg.API.OAuthBaseURL == "" {
		cfg.API.OAuthBaseURL = ProdBaseURL
	}
	if cfg.API.AuthorizeURL == "" {
		cfg.API.AuthorizeURL = "https://us.etrade.com/e/t/etws/authorize"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "paritybot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func int64Ptr(v int64) *int64 { return &v }

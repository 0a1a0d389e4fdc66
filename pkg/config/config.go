package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	DB       DBConfig
	Redis    RedisConfig
	Template TemplateConfig
	Export   ExportConfig
	PDF      PDFConfig
	Metrics  MetricsConfig
	CLI      CLIConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules envconfig cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Backend == StorageRedis && c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("either %s or %s is required for the redis backend", EnvRedisURL, EnvRedisAddr)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"PRICELIST_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"PRICELIST_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PRICELIST_LOG_FORMAT" default:"json" validate:"oneof=json console"`
	LogWarnStack bool   `envconfig:"PRICELIST_LOG_WARN_STACK" default:"false"`
	Locale       string `envconfig:"PRICELIST_LOCALE" default:"en"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StorageConfig struct {
	Backend string `envconfig:"PRICELIST_STORAGE_BACKEND" default:"sqlite" validate:"oneof=memory sqlite postgres redis"`
}

type DBConfig struct {
	DSN string `envconfig:"PRICELIST_DB_DSN" default:"pricelist.db"`

	MaxOpenConns    int           `envconfig:"PRICELIST_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"PRICELIST_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"PRICELIST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRICELIST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRICELIST_REDIS_URL"`
	Address      string        `envconfig:"PRICELIST_REDIS_ADDR"`
	Password     string        `envconfig:"PRICELIST_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRICELIST_REDIS_DB" default:"0"`
	Namespace    string        `envconfig:"PRICELIST_REDIS_NAMESPACE" default:"pl"`
	PoolSize     int           `envconfig:"PRICELIST_REDIS_POOL_SIZE" default:"4"`
	DialTimeout  time.Duration `envconfig:"PRICELIST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRICELIST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRICELIST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type TemplateConfig struct {
	BaseDir    string   `envconfig:"PRICELIST_TEMPLATE_BASE_DIR" default:"."`
	Candidates []string `envconfig:"PRICELIST_TEMPLATE_CANDIDATES" default:"format.docx,./format.docx,web/format.docx,../format.docx" validate:"required,min=1,dive,required"`
}

// CandidatePaths resolves the ordered candidates against BaseDir.
func (t TemplateConfig) CandidatePaths() []string {
	paths := make([]string, 0, len(t.Candidates))
	for _, candidate := range t.Candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if filepath.IsAbs(candidate) || t.BaseDir == "" {
			paths = append(paths, candidate)
			continue
		}
		paths = append(paths, filepath.Join(t.BaseDir, candidate))
	}
	return paths
}

type ExportConfig struct {
	OutputDir       string `envconfig:"PRICELIST_EXPORT_OUTPUT_DIR" default:"."`
	CurrencyPrefix  string `envconfig:"PRICELIST_EXPORT_CURRENCY_PREFIX" default:"$ "`
	CurrencyCode    string `envconfig:"PRICELIST_EXPORT_CURRENCY_CODE" default:"USD" validate:"len=3"`
	DefaultCustomer string `envconfig:"PRICELIST_EXPORT_DEFAULT_CUSTOMER" default:"Customer"`
	DateLayout      string `envconfig:"PRICELIST_EXPORT_DATE_LAYOUT" default:"02/01/2006" validate:"required"`
}

type PDFConfig struct {
	FontPath string `envconfig:"PRICELIST_PDF_FONT_PATH"`
}

type MetricsConfig struct {
	Textfile string `envconfig:"PRICELIST_METRICS_TEXTFILE"`
}

type CLIConfig struct {
	Style string `envconfig:"PRICELIST_CLI_STYLE" default:"auto"`
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"pnl_prover/internal/models"
	"pnl_prover/pkg/logger"
	"pnl_prover/pkg/tracing"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	anchorKeyENV      = "ANCHOR_PRIVATE_KEY"
	artifactsDirENV   = "ARTIFACTS_DIR"

	defaultConfigFile = "values_local.yaml"
	defaultConfigDir  = "configs"
)

// Config ...
type Config struct {
	Telegram struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"telegram"`
	// DB пустой: квитанции живут в памяти.
	DB      string `mapstructure:"db_dsn"`
	Service struct {
		Host      string `mapstructure:"host"`
		AdminPort int    `mapstructure:"admin_port" validate:"gte=0,lte=65535"`
	} `mapstructure:"service"`

	Prover  Prover         `mapstructure:"prover"`
	Anchor  Anchor         `mapstructure:"anchor"`
	Log     logger.Config  `mapstructure:"log"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

type Prover struct {
	ArtifactsDir  string                `mapstructure:"artifacts_dir" validate:"required"`
	Timeout       time.Duration         `mapstructure:"timeout" validate:"gt=0"`
	DefaultPolicy string                `mapstructure:"default_policy" validate:"required"`
	Policies      []models.PolicyConfig `mapstructure:"policies" validate:"dive"`
	// AutoSetup собирает отсутствующие программы при старте бота.
	AutoSetup bool `mapstructure:"auto_setup"`
}

type Anchor struct {
	Enabled  bool   `mapstructure:"enabled"`
	RPCURL   string `mapstructure:"rpc_url" validate:"required_if=Enabled true"`
	Contract string `mapstructure:"contract" validate:"required_if=Enabled true"`
	// PrivateKey: hex без 0x; обычно приходит из ANCHOR_PRIVATE_KEY.
	PrivateKey string        `mapstructure:"private_key" validate:"required_if=Enabled true"`
	ChainID    int64         `mapstructure:"chain_id"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// Explorer: шаблон ссылки на транзакцию, %s заменяется хешем.
	Explorer string `mapstructure:"explorer"`
}

// AdminAddr is the listen address of the admin HTTP server.
func (c *Config) AdminAddr() string {
	return c.Service.Host + ":" + strconv.Itoa(c.Service.AdminPort)
}

// Policy looks up a configured policy by name.
func (c *Config) Policy(name string) (models.PolicyConfig, bool) {
	return models.FindPolicy(c.Prover.Policies, name)
}

func NewConfig() (*Config, error) {
	configFileName := getenvDefault(configFilePathENV, defaultConfigFile)
	path := configFileName
	if !filepath.IsAbs(path) && !strings.Contains(path, string(os.PathSeparator)) {
		path = filepath.Join(getenvDefault(configDirENV, defaultConfigDir), configFileName)
	}
	return Load(path)
}

// Load reads a yaml config file; a missing file leaves the defaults.
func Load(path string) (*Config, error) {
	engine := viper.New()
	setDefaults(engine)

	engine.SetConfigFile(path)
	if err := engine.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var config Config
	if err := engine.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if len(config.Prover.Policies) == 0 {
		config.Prover.Policies = models.DefaultPolicies()
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if key := os.Getenv(anchorKeyENV); key != "" {
		config.Anchor.PrivateKey = key
	}
	if dir := os.Getenv(artifactsDirENV); dir != "" {
		config.Prover.ArtifactsDir = dir
	}
	config.Prover.Timeout = durationFromEnv("PROVE_TIMEOUT", config.Prover.Timeout)

	if err := validator.New().Struct(&config); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if _, ok := config.Policy(config.Prover.DefaultPolicy); !ok {
		return nil, errors.Errorf("default policy %q is not configured", config.Prover.DefaultPolicy)
	}

	return &config, nil
}

func setDefaults(engine *viper.Viper) {
	engine.SetDefault("service.host", "")
	engine.SetDefault("service.admin_port", 8080)
	engine.SetDefault("prover.artifacts_dir", "artifacts")
	engine.SetDefault("prover.timeout", "2m")
	engine.SetDefault("prover.default_policy", models.PolicyLeveraged)
	engine.SetDefault("anchor.chain_id", 1337)
	engine.SetDefault("anchor.timeout", "1m")
	engine.SetDefault("log.level", "info")
	engine.SetDefault("log.max_size_mb", 100)
	engine.SetDefault("log.max_backups", 3)
	engine.SetDefault("log.max_age_days", 28)
	engine.SetDefault("tracing.host", "localhost")
	engine.SetDefault("tracing.port", 6831)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

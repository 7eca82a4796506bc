package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported storage drivers.
const (
	PostgresDriver = "postgres"
	BoltDriver     = "bolt"
	RedisDriver    = "redis"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string         `yaml:"git_commit" envconfig:"APIV_GIT_COMMIT"`
	GitTag                  string         `yaml:"git_tag" envconfig:"APIV_GIT_TAG"`
	BuildTime               string         `yaml:"build_time" envconfig:"APIV_BUILD_TIME"`
	IsProduction            bool           `yaml:"is_production" envconfig:"APIV_IS_PRODUCTION"`
	LogLevel                zapcore.Level  `yaml:"log_level" envconfig:"APIV_LOG_LEVEL"`
	LogFolder               string         `yaml:"log_folder" envconfig:"APIV_LOG_FOLDER"`
	LogMaxSize              int            `yaml:"log_max_size" envconfig:"APIV_LOG_MAX_SIZE"`
	OpsEndpointsEnable      bool           `yaml:"ops_endpoints_enable" envconfig:"APIV_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool           `yaml:"profiler_endpoints_enable" envconfig:"APIV_PROFILER_ENDPOINTS_ENABLE"`
	SwaggerEnable           bool           `yaml:"swagger_enable" envconfig:"APIV_SWAGGER_ENABLE"`
	Server                  ServerConfig   `yaml:"server"`
	Storage                 StorageConfig  `yaml:"storage"`
	Postgres                PostgresConfig `yaml:"postgres"`
	Redis                   RedisConfig    `yaml:"redis"`
	BoltDB                  BoltDBConfig   `yaml:"boltdb"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"APIV_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"APIV_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"APIV_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"APIV_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"APIV_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"APIV_SERVER_SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"APIV_SERVER_MAX_BODY_BYTES"`
}

type StorageConfig struct {
	Driver           string        `yaml:"driver" envconfig:"APIV_STORAGE_DRIVER"`
	OperationTimeout time.Duration `yaml:"operation_timeout" envconfig:"APIV_STORAGE_OPERATION_TIMEOUT"`
}

type PostgresConfig struct {
	DSN             string        `yaml:"dsn" envconfig:"APIV_POSTGRES_DSN" json:"-"`
	Table           string        `yaml:"table" envconfig:"APIV_POSTGRES_TABLE"`
	MaxConns        int32         `yaml:"max_conns" envconfig:"APIV_POSTGRES_MAX_CONNS"`
	MinConns        int32         `yaml:"min_conns" envconfig:"APIV_POSTGRES_MIN_CONNS"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" envconfig:"APIV_POSTGRES_MAX_CONN_IDLE_TIME"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" envconfig:"APIV_POSTGRES_CONNECT_TIMEOUT"`
	AutoMigrate     bool          `yaml:"auto_migrate" envconfig:"APIV_POSTGRES_AUTO_MIGRATE"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"APIV_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"APIV_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"APIV_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"APIV_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"APIV_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"APIV_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"APIV_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"APIV_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"APIV_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"APIV_REDIS_DATABASE_INDEX"`
	HashKey       string        `yaml:"hash_key" envconfig:"APIV_REDIS_HASH_KEY"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"APIV_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"APIV_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"APIV_BOLTDB_BUCKET_NAME"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	setDefaults(config)

	switch config.Storage.Driver {
	case PostgresDriver:
		if len(config.Postgres.DSN) == 0 {
			return errors.New("make sure to set a valid postgres dsn in configuration file")
		}
	case BoltDriver:
		if len(config.BoltDB.FilePath) == 0 {
			return errors.New("make sure to set a valid boltdb file path in configuration file")
		}
	case RedisDriver:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	return nil
}

func setDefaults(config *Config) {
	if config.Storage.Driver == "" {
		config.Storage.Driver = PostgresDriver
	}
	if config.Storage.OperationTimeout == 0 {
		config.Storage.OperationTimeout = 5 * time.Second
	}
	if config.Server.MaxBodyBytes == 0 {
		config.Server.MaxBodyBytes = 1 << 20
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}
	if config.Postgres.Table == "" {
		config.Postgres.Table = "books"
	}
	if config.Redis.HashKey == "" {
		config.Redis.HashKey = "books"
	}
	if config.BoltDB.BucketName == "" {
		config.BoltDB.BucketName = "books"
	}
	if config.BoltDB.Timeout == 0 {
		config.BoltDB.Timeout = time.Second
	}
	if config.LogFolder == "" {
		config.LogFolder = "./logs"
	}
	if config.LogMaxSize == 0 {
		config.LogMaxSize = 10
	}
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration. The file is optional.
	err = godotenv.Load("./config.env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `APIV`.
	err = LoadConfigEnvs("APIV", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}

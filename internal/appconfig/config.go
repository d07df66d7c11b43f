// Package appconfig loads the process-wide, read-only configuration used by
// every component: the orchestrator URL and credentials, the object-store
// endpoint/credentials/external host, the Postgres DSN, the DAG output
// directory, and the manifest clone timeout. It is loaded once at startup
// via github.com/spf13/viper and passed explicitly into components,
// nothing in this repository imports a global config instance.
package appconfig

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/validation"
)

// Config is the fully loaded, validated process configuration.
type Config struct {
	PostgresDSN string `mapstructure:"postgres_dsn" validate:"required"`

	OrchestratorBaseURL  string        `mapstructure:"orchestrator_base_url" validate:"required,url"`
	OrchestratorUser     string        `mapstructure:"orchestrator_user" validate:"required"`
	OrchestratorPassword string        `mapstructure:"orchestrator_password" validate:"required"`
	OrchestratorTimeout  time.Duration `mapstructure:"orchestrator_timeout" validate:"required"`
	RegistrationTimeout  time.Duration `mapstructure:"registration_timeout" validate:"required"`
	RegistrationInterval time.Duration `mapstructure:"registration_interval" validate:"required"`

	ObjectStoreEndpoint     string `mapstructure:"object_store_endpoint" validate:"required"`
	ObjectStoreAccessKey    string `mapstructure:"object_store_access_key" validate:"required"`
	ObjectStoreSecretKey    string `mapstructure:"object_store_secret_key" validate:"required"`
	ObjectStoreUseSSL       bool   `mapstructure:"object_store_use_ssl"`
	ObjectStoreExternalHost string `mapstructure:"object_store_external_host" validate:"required"`
	DefaultBucketName       string `mapstructure:"default_bucket_name" validate:"required"`

	DefaultPGUser string `mapstructure:"default_pg_user" validate:"required"`
	DefaultPGPass string `mapstructure:"default_pg_pass" validate:"required"`
	DefaultPGHost string `mapstructure:"default_pg_host" validate:"required"`
	DefaultPGPort string `mapstructure:"default_pg_port" validate:"required"`

	DAGOutputDir    string        `mapstructure:"dag_output_dir" validate:"required"`
	ManifestCloneTimeout time.Duration `mapstructure:"manifest_clone_timeout" validate:"required"`

	HTTPAddr string `mapstructure:"http_addr" validate:"required"`

	PresignedURLTTL time.Duration `mapstructure:"presigned_url_ttl" validate:"required"`

	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("orchestrator_timeout", 10*time.Second)
	v.SetDefault("registration_timeout", 10*time.Second)
	v.SetDefault("registration_interval", 500*time.Millisecond)
	v.SetDefault("object_store_use_ssl", false)
	v.SetDefault("manifest_clone_timeout", 30*time.Second)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("presigned_url_ttl", 24*time.Hour)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("dag_output_dir", "/var/lib/pipeflow/dags")
}

// Load reads configuration from environment variables (prefixed
// PIPEFLOW_) and an optional file at configPath, applies defaults, and
// validates the result. configPath may be empty.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PIPEFLOW")
	v.AutomaticEnv()
	defaults(v)
	// Unmarshal only sees keys viper already knows, so bind every field's
	// key to its PIPEFLOW_ env var explicitly.
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			if err := v.BindEnv(key); err != nil {
				return nil, fmt.Errorf("bind env %s: %w", key, err)
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validation.Get().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DefaultConfigSettings projects the relevant fields into
// defaultconfig.Settings, the shape the Default-Config Provider consumes.
func (c *Config) DefaultConfigSettings() defaultconfig.Settings {
	return defaultconfig.Settings{
		S3Host:      c.ObjectStoreEndpoint,
		S3Port:      "", // embedded in ObjectStoreEndpoint; ports use namespaced keys that the substring rule still matches
		S3AccessKey: c.ObjectStoreAccessKey,
		S3SecretKey: c.ObjectStoreSecretKey,
		BucketName:  c.DefaultBucketName,
		PGUser:      c.DefaultPGUser,
		PGPass:      c.DefaultPGPass,
		PGHost:      c.DefaultPGHost,
		PGPort:      c.DefaultPGPort,
	}
}

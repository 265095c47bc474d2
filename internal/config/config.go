package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	S3          S3Config          `mapstructure:"s3"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines token signing and lifetime settings. Expiration values
// use Go duration strings in the config file ("8h", "720h").
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	Expiration         time.Duration `mapstructure:"expiration"`
	ExtendedExpiration time.Duration `mapstructure:"extended_expiration"`
}

// MaintenanceConfig controls the background integrity sweep that repairs
// plan documents holding references to deleted blocks.
type MaintenanceConfig struct {
	SweepEnabled  bool   `mapstructure:"sweep_enabled"`
	SweepSchedule string `mapstructure:"sweep_schedule"` // cron expression
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variables override file values, nested keys flattened
	// with underscores (jwt.secret -> JWT_SECRET).
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "rf_online")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("jwt.expiration", "8h")
	viper.SetDefault("jwt.extended_expiration", "720h")
	viper.SetDefault("maintenance.sweep_enabled", true)
	viper.SetDefault("maintenance.sweep_schedule", "0 4 * * *")

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Missing file is fine, env vars plus defaults may be enough.
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/ryteapp/ryte-gateway/globals"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultSessionTTL     = 86400 // seconds
	defaultCleanupSpec    = "@every 10m"
	defaultUserCacheSize  = 1024
	defaultListenAddr     = "localhost:8000"
	defaultSessionBackend = "postgres"
)

// Config is the global configuration object which is filled via the
// configuration file, environment (RYTE_ prefix) and command-line flags.
type Config struct {
	ServerConfig      ServerConfig      `mapstructure:"server"`
	PersistenceConfig PersistenceConfig `mapstructure:"persistence"`
	SessionsConfig    SessionsConfig    `mapstructure:"sessions"`
	LogLevel          string            `mapstructure:"log_level"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	SSLCert string `mapstructure:"ssl_cert"`
	SSLKey  string `mapstructure:"ssl_key"`
}

// PersistenceConfig configures the domain database the gateway reads chats
// and users from and writes messages to. Type is one of "postgres", "sqlite".
type PersistenceConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

// SessionsConfig configures the shared session table. Type is one of
// "postgres" (shared relational table, the production setup) and "buntdb"
// (single file, used for development and tests). TTL is in seconds,
// CleanupSpec is a cron spec for the expiry sweep.
type SessionsConfig struct {
	Type          string `mapstructure:"type"`
	DSN           string `mapstructure:"dsn"`
	TTL           int    `mapstructure:"ttl"`
	CleanupSpec   string `mapstructure:"cleanup_spec"`
	UserCacheSize int    `mapstructure:"user_cache_size"`
}

func GetFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	flagSet.String("log-level", "", "log level (TRACE/DEBUG/INFO/WARN/ERROR)")
	return flagSet
}

// wordSepNormalizeFunc allows for normalization of the flag names (which use - as a separator)
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.Replace(name, "-", "_", -1)
	return pflag.NormalizedName(name)
}

// ReadConfiguration reads and parses the configuration located at configPath,
// which can either point to a single TOML file or to a directory, in which
// case all *.toml files in this directory are concatenated. It returns a
// Config object.
func ReadConfiguration(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	cfg := Config{}
	flagSet.SetNormalizeFunc(wordSepNormalizeFunc)
	viper.SetDefault("server.addr", defaultListenAddr)
	viper.SetDefault("sessions.type", defaultSessionBackend)
	viper.SetDefault("sessions.ttl", defaultSessionTTL)
	viper.SetDefault("sessions.cleanup_spec", defaultCleanupSpec)
	viper.SetDefault("sessions.user_cache_size", defaultUserCacheSize)
	err := viper.BindPFlags(flagSet)
	if err != nil {
		globals.AppLogger.Error("could not bind flags (ignored)", "error", err)
	}
	viper.SetEnvPrefix("RYTE")
	viper.AutomaticEnv()
	if configPath != "" {
		fi, err := os.Stat(configPath)
		if err != nil {
			return nil, err
		}
		contents := make([]byte, 0)
		files := []string{configPath}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(configPath, "*.toml"))
			if err != nil {
				return nil, err
			}
		}
		for _, configFile := range files {
			fileContents, err := os.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			contents = append(contents, fileContents...)
			contents = append(contents, '\n')
		}
		viper.SetConfigType("toml")
		err = viper.ReadConfig(bytes.NewBuffer(contents))
		if err != nil {
			globals.AppLogger.Error("could not read config:", "error", err)
		}
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		globals.AppLogger.Error("could not unmarshal config:", "error", err)
	}

	globals.AppLogger.Debug("config", "cfg", cfg)
	return &cfg, nil
}

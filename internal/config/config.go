// Package config holds the viper configuration keys and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// RootKey is a configuration key.
type RootKey string

var (
	// ServerAddress is the gRPC listen address for serve
	ServerAddress = RootKey("server.address")
	// ServerMaxRequests caps the requests in one exchange (0 = unlimited)
	ServerMaxRequests = RootKey("server.maxRequests")
	// ClientAddress is the server the fetch commands dial
	ClientAddress = RootKey("client.address")
	// ClientTimeout bounds a whole fetch, including dial
	ClientTimeout = RootKey("client.timeout")
	// StorePath is the leveldb directory
	StorePath = RootKey("store.path")
	// StoreSyncWrites fsyncs every leveldb write
	StoreSyncWrites = RootKey("store.syncWrites")
	// StoreMaxHandles caps the leveldb open file cache
	StoreMaxHandles = RootKey("store.maxHandles")
	// CacheSize is the number of responses kept by the client response cache
	CacheSize = RootKey("cache.size")
	// LogLevel is the logrus level name
	LogLevel = RootKey("log.level")
	// MetricsAddress is the prometheus listen address; empty disables it
	MetricsAddress = RootKey("metrics.address")
)

const envPrefix = "LIGHTREQ"

func setDefaults() {
	viper.SetDefault(string(ServerAddress), "127.0.0.1:5740")
	viper.SetDefault(string(ServerMaxRequests), 256)
	viper.SetDefault(string(ClientAddress), "127.0.0.1:5740")
	viper.SetDefault(string(ClientTimeout), "30s")
	viper.SetDefault(string(StorePath), "./lightreq-data")
	viper.SetDefault(string(StoreSyncWrites), false)
	viper.SetDefault(string(StoreMaxHandles), 100)
	viper.SetDefault(string(CacheSize), 1000)
	viper.SetDefault(string(LogLevel), "info")
	viper.SetDefault(string(MetricsAddress), "")
}

// Reset clears all configuration and restores the defaults.
func Reset() {
	viper.Reset()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()
}

// ReadConfig loads cfgFile, or lightreq.yaml from the working
// directory when cfgFile is empty. A missing default file is not an
// error.
func ReadConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lightreq")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", cfgFile, err)
	}
	return nil
}

// SetupLogging applies the configured log level to logrus.
func SetupLogging() error {
	level, err := logrus.ParseLevel(GetString(LogLevel))
	if err != nil {
		return fmt.Errorf("config: %s: %w", LogLevel, err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

func Set(key RootKey, value any) { viper.Set(string(key), value) }

func GetString(key RootKey) string { return viper.GetString(string(key)) }

func GetInt(key RootKey) int { return viper.GetInt(string(key)) }

func GetBool(key RootKey) bool { return viper.GetBool(string(key)) }

func GetDuration(key RootKey) time.Duration { return viper.GetDuration(string(key)) }

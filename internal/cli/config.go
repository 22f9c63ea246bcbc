package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/shelf/internal/paths"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir        = "data_dir"
	cfgKeySnapshotFormat = "snapshot_format"
	cfgKeyBuckets        = "buckets"
	cfgKeyMaxLoadFactor  = "max_load_factor"
	cfgKeyTitlePolicy    = "title_policy"
	cfgKeyLogLevel       = "log_level"
	cfgKeyRedisAddr      = "redis_addr"
	cfgKeyActivityLimit  = "activity_limit"

	envPrefix = "SHELF"
)

// loadConfig reads config.yaml from configDir with Viper and returns the
// resulting Config. A missing config.yaml is not an error. Every key except
// data_dir may also be set from a SHELF_-prefixed environment variable;
// data_dir follows the precedence in paths.ResolveDataDir.
func loadConfig(configDir, dataDirFlag string) (types.Config, error) {
	v := viper.New()
	defaults := types.DefaultConfig("")
	v.SetDefault(cfgKeySnapshotFormat, defaults.SnapshotFormat)
	v.SetDefault(cfgKeyBuckets, defaults.Buckets)
	v.SetDefault(cfgKeyMaxLoadFactor, defaults.MaxLoadFactor)
	v.SetDefault(cfgKeyTitlePolicy, defaults.TitlePolicy)
	v.SetDefault(cfgKeyLogLevel, defaults.LogLevel)
	v.SetDefault(cfgKeyRedisAddr, defaults.RedisAddr)
	v.SetDefault(cfgKeyActivityLimit, defaults.ActivityLimit)

	v.SetEnvPrefix(envPrefix)
	envKeys := []string{
		cfgKeySnapshotFormat,
		cfgKeyBuckets,
		cfgKeyMaxLoadFactor,
		cfgKeyTitlePolicy,
		cfgKeyLogLevel,
		cfgKeyRedisAddr,
		cfgKeyActivityLimit,
	}
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}

	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, err
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

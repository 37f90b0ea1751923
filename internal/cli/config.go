package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tablesync/internal/paths"
	"github.com/mesh-intelligence/tablesync/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend     = "backend"
	cfgKeyDataDir     = "data_dir"
	cfgKeyLockTimeout = "lock_timeout"
	cfgKeyLockLease   = "lock_lease"
	cfgKeyLogLevel    = "log.level"
	cfgKeySeqURL      = "log.seq_url"
)

// configFile is the structure written to a fresh config.yaml.
type configFile struct {
	Backend     string    `yaml:"backend"`
	DataDir     string    `yaml:"data_dir,omitempty"`
	LockTimeout string    `yaml:"lock_timeout"`
	LockLease   string    `yaml:"lock_lease"`
	Log         logConfig `yaml:"log"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	SeqURL string `yaml:"seq_url,omitempty"`
}

// settings is the resolved configuration of one invocation.
type settings struct {
	configDir string
	config    types.Config
	logLevel  string
	seqURL    string
}

// loadConfig reads config.yaml from configDir, creating the directory and
// a default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(configDir, ""); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLockTimeout, types.DefaultLockTimeout)
	v.SetDefault(cfgKeyLockLease, types.DefaultLockLease)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone.
func writeConfigIfMissing(configDir, dataDir string) error {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend:     types.BackendSQLite,
		DataDir:     dataDir,
		LockTimeout: types.DefaultLockTimeout.String(),
		LockLease:   types.DefaultLockLease.String(),
		Log:         logConfig{Level: "warn"},
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# tablesync configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}

// resolveSettings combines flags, config.yaml and the environment.
func resolveSettings(flags *rootFlags) (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend:     v.GetString(cfgKeyBackend),
		DataDir:     dataDir,
		LockTimeout: v.GetDuration(cfgKeyLockTimeout),
		LockLease:   v.GetDuration(cfgKeyLockLease),
	}
	if err := cfg.Validate(); err != nil {
		return settings{}, fmt.Errorf("config %s: %w", filepath.Join(configDir, configFileExt), err)
	}
	return settings{
		configDir: configDir,
		config:    cfg,
		logLevel:  v.GetString(cfgKeyLogLevel),
		seqURL:    v.GetString(cfgKeySeqURL),
	}, nil
}

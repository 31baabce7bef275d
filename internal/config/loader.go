package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ASSETPACK_OUTPUT.
const EnvPrefix = "ASSETPACK"

// KeyConfigFile names the config file path in Viper (--config, ASSETPACK_CONFIG_FILE).
const KeyConfigFile = "config_file"

// DefaultFiles are tried in order when no config file is named.
var DefaultFiles = []string{"assetpack.yml", "assetpack.yaml", "assetpack.toml", "assetpack.json"}

// Keys Viper may override after the file is decoded.
const (
	KeyOutput     = "output"
	KeySearch     = "search"
	KeyPrefix     = "prefix"
	KeyBaseDir    = "base_dir"
	KeyCharset    = "charset"
	KeyWorkers    = "workers"
	KeyServerHost = "server.host"
	KeyServerPort = "server.port"
	KeyServerRoot = "server.root"
	KeyLogLevel   = "log.level"
	KeyLogFormat  = "log.format"
	KeyLogFile    = "log.file"
	KeyLogPersist = "log.persist"
)

// NewViper returns a Viper instance reading ASSETPACK_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Loader reads the configuration file and applies overrides. A Loader may be
// called repeatedly; every Load re-reads the file.
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewLoader returns a loader. A nil viper gets NewViper and a nil fs the OS filesystem.
func NewLoader(v *viper.Viper, fs afero.Fs) *Loader {
	if v == nil {
		v = NewViper()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{v: v, fs: fs}
}

// Viper exposes the override layer so commands can bind flags to it.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// FindFile returns the configuration file to read. explicit reports whether
// the path was named by the user, in which case it must exist.
func (l *Loader) FindFile() (path string, explicit bool, err error) {
	if named := l.v.GetString(KeyConfigFile); named != "" {
		return named, true, nil
	}

	for _, candidate := range DefaultFiles {
		if ok, err := afero.Exists(l.fs, candidate); err != nil {
			return "", false, err
		} else if ok {
			return candidate, false, nil
		}
	}
	return "", false, nil
}

// Load reads the configuration file, if any, and applies overrides.
func (l *Loader) Load() (*Config, error) {
	path, explicit, err := l.FindFile()
	if err != nil {
		return nil, apperrors.WrapIO(err, apperrors.ErrCodeReadFailed, "searching for config file")
	}

	cfg := &Config{}
	if path != "" {
		cfg, err = l.readFile(path, explicit)
		if err != nil {
			return nil, err
		}
	}

	l.applyOverrides(cfg)
	return cfg, nil
}

func (l *Loader) readFile(path string, explicit bool) (*Config, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return &Config{}, nil
		}
		return nil, apperrors.ErrReadFailed(path, err)
	}

	format, err := FormatForPath(path)
	if err != nil {
		return nil, apperrors.WrapConfig(err, apperrors.ErrCodeConfigInvalid, "unknown config file type")
	}

	cfg, err := Decode(data, format)
	if err != nil {
		return nil, apperrors.WrapConfig(err, apperrors.ErrCodeConfigInvalid, "invalid config file "+path)
	}

	if abs, err := filepath.Abs(path); err == nil {
		cfg.File = abs
	} else {
		cfg.File = path
	}

	// Relative paths in a config file are relative to the file itself.
	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(cfg.File)
	} else if !filepath.IsAbs(cfg.BaseDir) {
		cfg.BaseDir = filepath.Join(filepath.Dir(cfg.File), cfg.BaseDir)
	}
	return cfg, nil
}

// applyOverrides copies explicitly set flag or environment values over the
// file's values.
func (l *Loader) applyOverrides(cfg *Config) {
	v := l.v

	if v.IsSet(KeyOutput) {
		cfg.Output = v.GetString(KeyOutput)
	}
	if v.IsSet(KeySearch) {
		cfg.Search = v.GetStringSlice(KeySearch)
	}
	if v.IsSet(KeyPrefix) {
		cfg.Prefix = v.GetString(KeyPrefix)
	}
	if v.IsSet(KeyBaseDir) {
		cfg.BaseDir = v.GetString(KeyBaseDir)
	}
	if v.IsSet(KeyCharset) {
		cfg.Charset = v.GetString(KeyCharset)
	}
	if v.IsSet(KeyWorkers) {
		cfg.Workers = v.GetInt(KeyWorkers)
	}
	if v.IsSet(KeyServerHost) {
		cfg.Server.Host = v.GetString(KeyServerHost)
	}
	if v.IsSet(KeyServerPort) {
		cfg.Server.Port = v.GetInt(KeyServerPort)
	}
	if v.IsSet(KeyServerRoot) {
		cfg.Server.Root = v.GetString(KeyServerRoot)
	}
	if v.IsSet(KeyLogLevel) {
		cfg.Log.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogFormat) {
		cfg.Log.Format = v.GetString(KeyLogFormat)
	}
	if v.IsSet(KeyLogFile) {
		cfg.Log.File = v.GetString(KeyLogFile)
	}
	if v.IsSet(KeyLogPersist) {
		cfg.Log.Persist = v.GetBool(KeyLogPersist)
	}
}

// String summarizes where the configuration came from.
func (c *Config) String() string {
	if c.File == "" {
		return "<no config file>"
	}
	return fmt.Sprintf("%s (%d assets)", c.File, len(c.Assets))
}

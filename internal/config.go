package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type PageStoreConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		BaseDir string `mapstructure:"base_dir"`
	} `mapstructure:"storage"`

	Log struct {
		Level      string `mapstructure:"level"`
		Format     string `mapstructure:"format"`
		OutputFile string `mapstructure:"output_file"`
	} `mapstructure:"log"`

	Telemetry struct {
		Enabled        bool   `mapstructure:"enabled"`
		ServiceName    string `mapstructure:"service_name"`
		PrometheusAddr string `mapstructure:"prometheus_addr"`
	} `mapstructure:"telemetry"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "pagestore")
	v.SetDefault("storage.base_dir", "./store")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "stderr")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "pagestore")
	v.SetDefault("telemetry.prometheus_addr", "")
}

// LoadConfig reads the YAML file at path on top of the defaults. An empty path
// loads defaults only. PAGESTORE_* environment variables override both,
// e.g. PAGESTORE_STORAGE_BASE_DIR.
func LoadConfig(path string) (*PageStoreConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("pagestore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg PageStoreConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

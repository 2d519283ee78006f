// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for itemcf.
type Config struct {
	Cache   CacheConfig   `mapstructure:"cache"`
	Server  ServerConfig  `mapstructure:"server"`
	Dataset DatasetConfig `mapstructure:"dataset"`
}

// CacheConfig is the configuration for the similarity cache.
type CacheConfig struct {
	Store    string        `mapstructure:"store" validate:"omitempty,startswith=memory://|startswith=redis://|startswith=rediss://"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Capacity int           `mapstructure:"capacity" validate:"gte=0"`
}

// ServerConfig is the configuration for the REST server.
type ServerConfig struct {
	Host      string  `mapstructure:"host" validate:"required"`
	Port      int     `mapstructure:"port" validate:"gte=1,lte=65535"`
	DefaultN  int     `mapstructure:"default_n" validate:"gt=0"`
	APIKey    string  `mapstructure:"api_key"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// DatasetConfig is the configuration for loading feedback files.
type DatasetConfig struct {
	Separator        string `mapstructure:"separator" validate:"required,len=1"`
	HasHeader        bool   `mapstructure:"has_header"`
	PositiveFeedback string `mapstructure:"positive_feedback" validate:"required"`
}

// SeparatorRune returns the separator as a rune.
func (c *DatasetConfig) SeparatorRune() rune {
	for _, r := range c.Separator {
		return r
	}
	return ','
}

func GetDefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Store:    "memory://",
			TTL:      time.Hour,
			Capacity: 100,
		},
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     8087,
			DefaultN: 10,
		},
		Dataset: DatasetConfig{
			Separator:        ",",
			PositiveFeedback: "value > 0",
		},
	}
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			english := en.New()
			uni := ut.New(english, english)
			trans, _ := uni.GetTranslator("en")
			if err = en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
				return errors.Trace(err)
			}
			e := validationErrors[0]
			return errors.NotValidf("%s: %s", e.Namespace(), e.Translate(trans))
		}
		return errors.Trace(err)
	}
	return nil
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [cache]
	viper.SetDefault("cache.store", defaultConfig.Cache.Store)
	viper.SetDefault("cache.ttl", defaultConfig.Cache.TTL)
	viper.SetDefault("cache.capacity", defaultConfig.Cache.Capacity)
	// [server]
	viper.SetDefault("server.host", defaultConfig.Server.Host)
	viper.SetDefault("server.port", defaultConfig.Server.Port)
	viper.SetDefault("server.default_n", defaultConfig.Server.DefaultN)
	viper.SetDefault("server.api_key", defaultConfig.Server.APIKey)
	viper.SetDefault("server.rate_limit", defaultConfig.Server.RateLimit)
	// [dataset]
	viper.SetDefault("dataset.separator", defaultConfig.Dataset.Separator)
	viper.SetDefault("dataset.has_header", defaultConfig.Dataset.HasHeader)
	viper.SetDefault("dataset.positive_feedback", defaultConfig.Dataset.PositiveFeedback)
}

type configBinding struct {
	key string
	env string
}

// LoadConfig loads configuration from toml file. Default values are used if the path is empty.
func LoadConfig(path string) (*Config, error) {
	// set default config
	setDefault()

	// bind environment bindings
	bindings := []configBinding{
		{"cache.store", "ITEMCF_CACHE_STORE"},
		{"server.host", "ITEMCF_SERVER_HOST"},
		{"server.port", "ITEMCF_SERVER_PORT"},
		{"server.api_key", "ITEMCF_SERVER_API_KEY"},
	}
	for _, binding := range bindings {
		if err := viper.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// load config file
	if path != "" {
		viper.SetConfigType("toml")
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// unmarshal config file
	var conf Config
	if err := viper.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPort          = "8080"
	DefaultThreshold     = 0.85
	DefaultWorkers       = 4
	DefaultCacheTTL      = time.Hour
	DefaultCacheCapacity = 1000
	DefaultMaxTargets    = 5000
	DefaultLogLevel      = "info"
)

// DBCreds holds the Postgres connection settings.
type DBCreds struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// URL returns the connection string for the credentials.
func (c DBCreds) URL() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s", c.Username, c.Password, c.Host, c.Port, c.Database)
}

type Config struct {
	DBCreds     DBCreds `yaml:"db_creds"`
	DatabaseURL string  `yaml:"database_url"`

	Server struct {
		Port string `yaml:"port" validate:"required,numeric"`
	} `yaml:"server"`

	Matching struct {
		ShortlistSize int `yaml:"shortlist_size" validate:"gte=0"`
	} `yaml:"matching"`

	Grouping struct {
		Threshold float64 `yaml:"threshold" validate:"gte=0,lte=1"`
		Workers   int     `yaml:"workers" validate:"gte=1"`
	} `yaml:"grouping"`

	Cache struct {
		TTL      time.Duration `yaml:"ttl" validate:"gt=0"`
		Capacity int           `yaml:"capacity" validate:"gte=1"`
	} `yaml:"cache"`

	Limits struct {
		MaxTargets int `yaml:"max_targets" validate:"gte=1"`
	} `yaml:"limits"`

	RulesFile string `yaml:"rules_file"`

	Log struct {
		Level       string `yaml:"level" validate:"oneof=debug info warn error"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Grouping.Threshold == 0 {
		c.Grouping.Threshold = DefaultThreshold
	}
	if c.Grouping.Workers == 0 {
		c.Grouping.Workers = DefaultWorkers
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = DefaultCacheCapacity
	}
	if c.Limits.MaxTargets == 0 {
		c.Limits.MaxTargets = DefaultMaxTargets
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// ConnString returns DatabaseURL when set, else the URL built from DBCreds.
func (c *Config) ConnString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DBCreds.URL()
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// LoadConfig loads the configuration from a YAML file. An empty path yields
// the defaults. DATABASE_URL overrides the file's database settings.
func LoadConfig(configPath string) (*Config, error) {
	var config Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read config file")
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrap(err, "unable to unmarshal config file")
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.DatabaseURL = url
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

/*
 * Copyright 2025 The Kernel Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/scieloorg/kernel/internal/settings"
	"github.com/scieloorg/kernel/server/backend"
	"github.com/scieloorg/kernel/server/backend/database/mongo"
	"github.com/scieloorg/kernel/server/backend/messagebroker"
	"github.com/scieloorg/kernel/server/logging"
	"github.com/scieloorg/kernel/server/profiling"
	"github.com/scieloorg/kernel/server/rest"
)

// Below are the values of the default values of the kernel config.
const (
	DefaultRESTPort            = 6543
	DefaultRESTCORSOrigins     = "*"
	DefaultRESTPingInterval    = 30 * time.Second
	DefaultRESTShutdownTimeout = 10 * time.Second

	DefaultProfilingPort = 6544

	DefaultRetryLimit           = 3
	DefaultChangesLimit         = 500
	DefaultFetchTimeout         = 10 * time.Second
	DefaultFetchCacheSize       = 256
	DefaultFetchMaxRetries      = 3
	DefaultFetchMaxWaitInterval = time.Second
	DefaultWatchBufferSize      = 64

	DefaultMongoConnectionURI     = "mongodb://localhost:27017"
	DefaultMongoConnectionTimeout = 5 * time.Second
	DefaultMongoPingTimeout       = 5 * time.Second
	DefaultMongoDatabase          = "document-store"

	DefaultKafkaTopic        = "kernel-changes"
	DefaultKafkaWriteTimeout = 5 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = logging.FormatConsole
)

// Below are the keys of the settings read from the environment.
const (
	SettingHTTPPort         = "kernel.app.http.port"
	SettingMongoDSN         = "kernel.app.mongodb.dsn"
	SettingMongoDBName      = "kernel.app.mongodb.dbname"
	SettingRetryLimit       = "kernel.app.retry.limit"
	SettingChangesLimit     = "kernel.app.changes.limit"
	SettingFetchTimeout     = "kernel.app.fetch.timeout"
	SettingKafkaAddresses   = "kernel.app.kafka.addresses"
	SettingKafkaTopic       = "kernel.app.kafka.topic"
	SettingCORSOrigins      = "kernel.app.cors.origins"
	SettingProfilingEnabled = "kernel.app.profiling.enabled"
	SettingLogLevel         = "kernel.log.level"
	SettingLogFormat        = "kernel.log.format"
)

// Settings is the table of settings with their default values.
var Settings = NewConfig().Settings()

// Config is the configuration for creating a Kernel instance.
type Config struct {
	REST *rest.Config `yaml:"REST"`

	// Profiling is nil when the profiling server is disabled.
	Profiling *profiling.Config `yaml:"Profiling"`

	Backend *backend.Config `yaml:"Backend"`

	// Mongo is nil when the memory database is used.
	Mongo *mongo.Config `yaml:"Mongo"`

	// Kafka is nil when events are not published.
	Kafka *messagebroker.Config `yaml:"Kafka"`

	LogLevel  string `yaml:"LogLevel"`
	LogFormat string `yaml:"LogFormat"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRESTPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// RESTAddr returns the address of the HTTP server.
func (c *Config) RESTAddr() string {
	return fmt.Sprintf("localhost:%d", c.REST.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.REST.Validate(); err != nil {
		return err
	}

	if c.Profiling != nil {
		if err := c.Profiling.Validate(); err != nil {
			return err
		}
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Mongo != nil {
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
	}

	if c.Kafka != nil {
		if err := c.Kafka.Validate(); err != nil {
			return err
		}
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return fmt.Errorf(`invalid argument "%s" for "--log-level" flag: %w`, c.LogLevel, err)
	}
	if c.LogFormat != logging.FormatConsole && c.LogFormat != logging.FormatJSON {
		return fmt.Errorf(`invalid argument "%s" for "--log-format" flag`, c.LogFormat)
	}

	return nil
}

// Settings returns the table of settings whose defaults are the current
// values of this config.
func (c *Config) Settings() []settings.Setting {
	dsn, dbname := "", DefaultMongoDatabase
	if c.Mongo != nil {
		dsn, dbname = c.Mongo.ConnectionURI, c.Mongo.Database
	}

	addresses, topic := "", DefaultKafkaTopic
	if c.Kafka != nil {
		addresses, topic = c.Kafka.Addresses, c.Kafka.Topic
	}

	return []settings.Setting{
		{Key: SettingHTTPPort, Env: envOf(SettingHTTPPort), Kind: settings.Int, Default: c.REST.Port},
		{Key: SettingMongoDSN, Env: envOf(SettingMongoDSN), Kind: settings.String, Default: dsn},
		{Key: SettingMongoDBName, Env: envOf(SettingMongoDBName), Kind: settings.String, Default: dbname},
		{Key: SettingRetryLimit, Env: envOf(SettingRetryLimit), Kind: settings.Int, Default: c.Backend.RetryLimit},
		{Key: SettingChangesLimit, Env: envOf(SettingChangesLimit), Kind: settings.Int, Default: c.Backend.ChangesLimit},
		{Key: SettingFetchTimeout, Env: envOf(SettingFetchTimeout), Kind: settings.Duration, Default: c.Backend.FetchTimeout},
		{Key: SettingKafkaAddresses, Env: envOf(SettingKafkaAddresses), Kind: settings.String, Default: addresses},
		{Key: SettingKafkaTopic, Env: envOf(SettingKafkaTopic), Kind: settings.String, Default: topic},
		{
			Key:     SettingCORSOrigins,
			Env:     envOf(SettingCORSOrigins),
			Kind:    settings.String,
			Default: strings.Join(c.REST.CORSOrigins, ","),
		},
		{
			Key:     SettingProfilingEnabled,
			Env:     envOf(SettingProfilingEnabled),
			Kind:    settings.Bool,
			Default: c.Profiling != nil,
		},
		{Key: SettingLogLevel, Env: envOf(SettingLogLevel), Kind: settings.String, Default: c.LogLevel},
		{Key: SettingLogFormat, Env: envOf(SettingLogFormat), Kind: settings.String, Default: c.LogFormat},
	}
}

// ApplySettings overlays the resolved settings on this config.
func (c *Config) ApplySettings(values settings.Values) {
	c.REST.Port = values.Int(SettingHTTPPort)
	c.REST.CORSOrigins = splitOrigins(values.String(SettingCORSOrigins))

	c.Backend.RetryLimit = values.Int(SettingRetryLimit)
	c.Backend.ChangesLimit = values.Int(SettingChangesLimit)
	c.Backend.FetchTimeout = values.Duration(SettingFetchTimeout).String()

	if dsn := values.String(SettingMongoDSN); dsn != "" {
		if c.Mongo == nil {
			c.Mongo = &mongo.Config{}
		}
		c.Mongo.ConnectionURI = dsn
		c.Mongo.Database = values.String(SettingMongoDBName)
	} else {
		c.Mongo = nil
	}

	if addresses := values.String(SettingKafkaAddresses); addresses != "" {
		if c.Kafka == nil {
			c.Kafka = &messagebroker.Config{}
		}
		c.Kafka.Addresses = addresses
		c.Kafka.Topic = values.String(SettingKafkaTopic)
	} else {
		c.Kafka = nil
	}

	if values.Bool(SettingProfilingEnabled) {
		if c.Profiling == nil {
			c.Profiling = &profiling.Config{}
		}
	} else {
		c.Profiling = nil
	}

	c.LogLevel = values.String(SettingLogLevel)
	c.LogFormat = values.String(SettingLogFormat)

	c.ensureDefaultValue()
}

// envOf returns the name of the environment variable of the given key,
// e.g. "KERNEL_APP_HTTP_PORT" for "kernel.app.http.port".
func envOf(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func splitOrigins(origins string) []string {
	var result []string
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.REST == nil {
		c.REST = &rest.Config{}
	}
	if c.REST.Port == 0 {
		c.REST.Port = DefaultRESTPort
	}
	if len(c.REST.CORSOrigins) == 0 {
		c.REST.CORSOrigins = []string{DefaultRESTCORSOrigins}
	}
	if c.REST.PingInterval == "" {
		c.REST.PingInterval = DefaultRESTPingInterval.String()
	}
	if c.REST.ShutdownTimeout == "" {
		c.REST.ShutdownTimeout = DefaultRESTShutdownTimeout.String()
	}

	if c.Profiling != nil && c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Backend == nil {
		c.Backend = &backend.Config{}
	}
	if c.Backend.RetryLimit == 0 {
		c.Backend.RetryLimit = DefaultRetryLimit
	}
	if c.Backend.ChangesLimit == 0 {
		c.Backend.ChangesLimit = DefaultChangesLimit
	}
	if c.Backend.FetchTimeout == "" {
		c.Backend.FetchTimeout = DefaultFetchTimeout.String()
	}
	if c.Backend.FetchCacheSize == 0 {
		c.Backend.FetchCacheSize = DefaultFetchCacheSize
	}
	if c.Backend.FetchMaxRetries == 0 {
		c.Backend.FetchMaxRetries = DefaultFetchMaxRetries
	}
	if c.Backend.FetchMaxWaitInterval == "" {
		c.Backend.FetchMaxWaitInterval = DefaultFetchMaxWaitInterval.String()
	}
	if c.Backend.WatchBufferSize == 0 {
		c.Backend.WatchBufferSize = DefaultWatchBufferSize
	}

	if c.Mongo != nil {
		if c.Mongo.ConnectionURI == "" {
			c.Mongo.ConnectionURI = DefaultMongoConnectionURI
		}
		if c.Mongo.ConnectionTimeout == "" {
			c.Mongo.ConnectionTimeout = DefaultMongoConnectionTimeout.String()
		}
		if c.Mongo.Database == "" {
			c.Mongo.Database = DefaultMongoDatabase
		}
		if c.Mongo.PingTimeout == "" {
			c.Mongo.PingTimeout = DefaultMongoPingTimeout.String()
		}
	}

	if c.Kafka != nil && c.Kafka.Addresses != "" {
		if c.Kafka.Topic == "" {
			c.Kafka.Topic = DefaultKafkaTopic
		}
		if c.Kafka.WriteTimeout == "" {
			c.Kafka.WriteTimeout = DefaultKafkaWriteTimeout.String()
		}
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

func newConfig(port int) *Config {
	conf := &Config{
		REST: &rest.Config{
			Port: port,
		},
	}
	conf.ensureDefaultValue()
	return conf
}

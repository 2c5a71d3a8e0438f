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

package mongo

import (
	"fmt"
	"time"
)

// Config is the configuration for creating a Client instance.
type Config struct {
	ConnectionTimeout string `yaml:"ConnectionTimeout"`
	ConnectionURI     string `yaml:"ConnectionURI"`
	Database          string `yaml:"Database"`
	PingTimeout       string `yaml:"PingTimeout"`
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if c.ConnectionURI == "" {
		return fmt.Errorf(`invalid argument "" for "--mongo-connection-uri" flag`)
	}

	if c.Database == "" {
		return fmt.Errorf(`invalid argument "" for "--mongo-database" flag`)
	}

	if _, err := time.ParseDuration(c.ConnectionTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--mongo-connection-timeout" flag: %w`,
			c.ConnectionTimeout,
			err,
		)
	}

	if _, err := time.ParseDuration(c.PingTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--mongo-ping-timeout" flag: %w`,
			c.PingTimeout,
			err,
		)
	}

	return nil
}

// ParseConnectionTimeout returns connection timeout duration. It must be
// called on a validated Config.
func (c *Config) ParseConnectionTimeout() time.Duration {
	result, err := time.ParseDuration(c.ConnectionTimeout)
	if err != nil {
		panic(fmt.Sprintf("parse connection timeout: %v", err))
	}

	return result
}

// ParsePingTimeout returns ping timeout duration. It must be called on a
// validated Config.
func (c *Config) ParsePingTimeout() time.Duration {
	result, err := time.ParseDuration(c.PingTimeout)
	if err != nil {
		panic(fmt.Sprintf("parse ping timeout: %v", err))
	}

	return result
}

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

package rest

import (
	"errors"
	"fmt"
	gotime "time"
)

var (
	// ErrInvalidRESTPort occurs when the port in the config is invalid.
	ErrInvalidRESTPort = errors.New("invalid port number for REST server")

	// ErrInvalidCORSOrigins occurs when no origin is allowed.
	ErrInvalidCORSOrigins = errors.New("invalid CORS origins for REST server")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	// Port is the port of the HTTP server.
	Port int `yaml:"Port"`

	// CORSOrigins are the origins allowed by CORS. "*" allows any origin.
	CORSOrigins []string `yaml:"CORSOrigins"`

	// PingInterval is the interval between the pings sent to watchers of the
	// change stream.
	PingInterval string `yaml:"PingInterval"`

	// ShutdownTimeout is the time a graceful shutdown waits for requests in
	// flight.
	ShutdownTimeout string `yaml:"ShutdownTimeout"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidRESTPort)
	}

	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("at least one origin must be given: %w", ErrInvalidCORSOrigins)
	}

	if _, err := gotime.ParseDuration(c.PingInterval); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--rest-ping-interval" flag: %w`,
			c.PingInterval,
			err,
		)
	}

	if _, err := gotime.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--rest-shutdown-timeout" flag: %w`,
			c.ShutdownTimeout,
			err,
		)
	}

	return nil
}

// ParsePingInterval returns the ping interval.
func (c *Config) ParsePingInterval() gotime.Duration {
	result, err := gotime.ParseDuration(c.PingInterval)
	if err != nil {
		panic(err)
	}

	return result
}

// ParseShutdownTimeout returns the shutdown timeout.
func (c *Config) ParseShutdownTimeout() gotime.Duration {
	result, err := gotime.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		panic(err)
	}

	return result
}

// allowsAnyOrigin returns whether the origins contain the wildcard.
func (c *Config) allowsAnyOrigin() bool {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

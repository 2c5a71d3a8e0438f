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

package backend

import (
	"fmt"
	"time"
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// RetryLimit is the number of times a command is retried after a
	// concurrent update before it gives up.
	RetryLimit int `yaml:"RetryLimit"`

	// ChangesLimit is the number of changes returned when the caller gives
	// no limit.
	ChangesLimit int `yaml:"ChangesLimit"`

	// FetchTimeout bounds each request made to fetch the data of documents.
	FetchTimeout string `yaml:"FetchTimeout"`

	// FetchCacheSize is the number of fetched payloads kept in memory.
	FetchCacheSize int `yaml:"FetchCacheSize"`

	// FetchMaxRetries is the max count that retries a failed fetch.
	FetchMaxRetries uint64 `yaml:"FetchMaxRetries"`

	// FetchMaxWaitInterval is the max interval that waits before retrying a
	// fetch.
	FetchMaxWaitInterval string `yaml:"FetchMaxWaitInterval"`

	// WatchBufferSize is the number of events buffered per watcher of the
	// change stream.
	WatchBufferSize int `yaml:"WatchBufferSize"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.RetryLimit < 1 {
		return fmt.Errorf(`invalid argument "%d" for "--retry-limit" flag`, c.RetryLimit)
	}

	if c.ChangesLimit < 1 {
		return fmt.Errorf(`invalid argument "%d" for "--changes-limit" flag`, c.ChangesLimit)
	}

	if _, err := time.ParseDuration(c.FetchTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--fetch-timeout" flag: %w`,
			c.FetchTimeout,
			err,
		)
	}

	if c.FetchCacheSize < 1 {
		return fmt.Errorf(`invalid argument "%d" for "--fetch-cache-size" flag`, c.FetchCacheSize)
	}

	if _, err := time.ParseDuration(c.FetchMaxWaitInterval); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--fetch-max-wait-interval" flag: %w`,
			c.FetchMaxWaitInterval,
			err,
		)
	}

	if c.WatchBufferSize < 1 {
		return fmt.Errorf(`invalid argument "%d" for "--watch-buffer-size" flag`, c.WatchBufferSize)
	}

	return nil
}

// ParseFetchTimeout returns the timeout of fetch requests. It must be called
// on a validated Config.
func (c *Config) ParseFetchTimeout() time.Duration {
	result, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		panic(fmt.Sprintf("parse fetch timeout: %v", err))
	}

	return result
}

// ParseFetchMaxWaitInterval returns the max wait interval between fetch
// retries. It must be called on a validated Config.
func (c *Config) ParseFetchMaxWaitInterval() time.Duration {
	result, err := time.ParseDuration(c.FetchMaxWaitInterval)
	if err != nil {
		panic(fmt.Sprintf("parse fetch max wait interval: %v", err))
	}

	return result
}

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

// Package helper provides the fixtures shared by the tests of the kernel.
package helper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/require"

	"github.com/scieloorg/kernel/pkg/clock"
	"github.com/scieloorg/kernel/server"
	"github.com/scieloorg/kernel/server/backend"
	"github.com/scieloorg/kernel/server/backend/database/mongo"
	"github.com/scieloorg/kernel/server/profiling"
	"github.com/scieloorg/kernel/server/profiling/prometheus"
	"github.com/scieloorg/kernel/server/rest"
)

var testStartedAt int64

// Below are the values of the test configuration.
var (
	RetryLimit           = 3
	ChangesLimit         = 500
	FetchTimeout         = 2 * gotime.Second
	FetchCacheSize       = 64
	FetchMaxRetries      = uint64(0)
	FetchMaxWaitInterval = 10 * gotime.Millisecond
	WatchBufferSize      = 16

	RESTPort            = 21101
	RESTPingInterval    = 100 * gotime.Millisecond
	RESTShutdownTimeout = gotime.Second

	ProfilingPort = 21102

	MongoConnectionURI     = "mongodb://localhost:27017"
	MongoConnectionTimeout = "2s"
	MongoPingTimeout       = "2s"
)

// StartedAt is the instant the clocks of tests start at.
var StartedAt = gotime.Date(2030, 1, 1, 0, 0, 0, 0, gotime.UTC)

func init() {
	testStartedAt = gotime.Now().Unix()
}

// TestDBName returns the name of test database with timestamp.
func TestDBName() string {
	return fmt.Sprintf("test-kernel-%d", testStartedAt)
}

// TestClock returns a clock that starts at StartedAt and advances one
// second per reading.
func TestClock() *clock.Fake {
	return clock.NewFake(StartedAt, gotime.Second)
}

// TestBackendConfig returns the backend config used by tests.
func TestBackendConfig() *backend.Config {
	return &backend.Config{
		RetryLimit:           RetryLimit,
		ChangesLimit:         ChangesLimit,
		FetchTimeout:         FetchTimeout.String(),
		FetchCacheSize:       FetchCacheSize,
		FetchMaxRetries:      FetchMaxRetries,
		FetchMaxWaitInterval: FetchMaxWaitInterval.String(),
		WatchBufferSize:      WatchBufferSize,
	}
}

// TestRESTConfig returns the config of the HTTP server used by tests.
func TestRESTConfig() *rest.Config {
	return &rest.Config{
		Port:            RESTPort,
		CORSOrigins:     []string{"*"},
		PingInterval:    RESTPingInterval.String(),
		ShutdownTimeout: RESTShutdownTimeout.String(),
	}
}

// TestConfig returns the config of a kernel server on the memory database.
func TestConfig() *server.Config {
	return &server.Config{
		REST:      TestRESTConfig(),
		Profiling: &profiling.Config{Port: ProfilingPort},
		Backend:   TestBackendConfig(),
		LogLevel:  server.DefaultLogLevel,
		LogFormat: server.DefaultLogFormat,
	}
}

// TestMongoConfig returns the config of the test MongoDB.
func TestMongoConfig() *mongo.Config {
	return &mongo.Config{
		ConnectionURI:     MongoConnectionURI,
		ConnectionTimeout: MongoConnectionTimeout,
		PingTimeout:       MongoPingTimeout,
		Database:          TestDBName(),
	}
}

// TestBackend returns a backend on the memory database driven by the given
// clock. It is shut down when the test ends.
func TestBackend(t testing.TB, clk clock.Clock) *backend.Backend {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	be, err := backend.New(TestBackendConfig(), nil, nil, metrics, clk)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = be.Shutdown()
	})

	return be
}

// DataServer serves the given payloads by path, e.g. "/a.xml". The returned
// function builds the URL of a path. The server is closed when the test
// ends.
func DataServer(t testing.TB, payloads map[string]string) (*httptest.Server, func(path string) string) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := payloads[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)

	return server, func(path string) string {
		return server.URL + path
	}
}

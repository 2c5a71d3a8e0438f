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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scieloorg/kernel/internal/settings"
	"github.com/scieloorg/kernel/server"
	"github.com/scieloorg/kernel/server/backend/database/mongo"
	"github.com/scieloorg/kernel/server/backend/messagebroker"
	"github.com/scieloorg/kernel/server/logging"
	"github.com/scieloorg/kernel/server/profiling"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath string
	flagSettings map[string]string

	restPingInterval    time.Duration
	restShutdownTimeout time.Duration

	enableProfiling bool
	profilingPort   int
	enablePprof     bool

	fetchTimeout         time.Duration
	fetchMaxWaitInterval time.Duration

	mongoConnectionURI     string
	mongoConnectionTimeout time.Duration
	mongoDatabase          string
	mongoPingTimeout       time.Duration

	kafkaAddresses    string
	kafkaTopic        string
	kafkaWriteTimeout time.Duration

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start the kernel server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.REST.PingInterval = restPingInterval.String()
			conf.REST.ShutdownTimeout = restShutdownTimeout.String()

			conf.Backend.FetchTimeout = fetchTimeout.String()
			conf.Backend.FetchMaxWaitInterval = fetchMaxWaitInterval.String()

			if enableProfiling {
				conf.Profiling = &profiling.Config{
					Port:        profilingPort,
					EnablePprof: enablePprof,
				}
			}

			if mongoConnectionURI != "" {
				conf.Mongo = &mongo.Config{
					ConnectionURI:     mongoConnectionURI,
					ConnectionTimeout: mongoConnectionTimeout.String(),
					Database:          mongoDatabase,
					PingTimeout:       mongoPingTimeout.String(),
				}
			}

			if kafkaAddresses != "" {
				conf.Kafka = &messagebroker.Config{
					Addresses:    kafkaAddresses,
					Topic:        kafkaTopic,
					WriteTimeout: kafkaWriteTimeout.String(),
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			// The environment and --setting take precedence over both.
			values, err := settings.Parse(flagSettings, conf.Settings())
			if err != nil {
				return err
			}
			conf.ApplySettings(values)

			if err := logging.SetLogLevel(conf.LogLevel); err != nil {
				return err
			}
			if err := logging.SetFormat(conf.LogFormat); err != nil {
				return err
			}

			k, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := k.Start(); err != nil {
				return err
			}

			if code := handleSignal(k); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(k *server.Kernel) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-k.ShutdownCh():
		// the kernel is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := k.Shutdown(graceful); err != nil {
			logging.DefaultLogger().Errorf("shutdown: %v", err)
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringToStringVar(
		&flagSettings,
		"setting",
		nil,
		"Setting given as key=value, e.g. kernel.app.http.port=6543. Environment variables take precedence.",
	)
	cmd.Flags().StringVarP(
		&conf.LogLevel,
		"log-level",
		"l",
		server.DefaultLogLevel,
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().StringVar(
		&conf.LogFormat,
		"log-format",
		server.DefaultLogFormat,
		"Log format: console, json",
	)
	cmd.Flags().IntVar(
		&conf.REST.Port,
		"rest-port",
		server.DefaultRESTPort,
		"HTTP port",
	)
	cmd.Flags().StringSliceVar(
		&conf.REST.CORSOrigins,
		"cors-origins",
		[]string{server.DefaultRESTCORSOrigins},
		"Origins allowed by CORS, '*' allows any origin.",
	)
	cmd.Flags().DurationVar(
		&restPingInterval,
		"rest-ping-interval",
		server.DefaultRESTPingInterval,
		"Interval between the pings sent to watchers of the change stream.",
	)
	cmd.Flags().DurationVar(
		&restShutdownTimeout,
		"rest-shutdown-timeout",
		server.DefaultRESTShutdownTimeout,
		"Time a graceful shutdown waits for requests in flight.",
	)
	cmd.Flags().BoolVar(
		&enableProfiling,
		"enable-profiling",
		false,
		"Enable the profiling server that exposes metrics.",
	)
	cmd.Flags().IntVar(
		&profilingPort,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&enablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.RetryLimit,
		"retry-limit",
		server.DefaultRetryLimit,
		"Number of times a command is retried after a concurrent update.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.ChangesLimit,
		"changes-limit",
		server.DefaultChangesLimit,
		"Number of changes returned when no limit is given.",
	)
	cmd.Flags().DurationVar(
		&fetchTimeout,
		"fetch-timeout",
		server.DefaultFetchTimeout,
		"Timeout of each request fetching the data of documents.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.FetchCacheSize,
		"fetch-cache-size",
		server.DefaultFetchCacheSize,
		"Number of fetched payloads kept in memory.",
	)
	cmd.Flags().Uint64Var(
		&conf.Backend.FetchMaxRetries,
		"fetch-max-retries",
		server.DefaultFetchMaxRetries,
		"Maximum number of retries of a failed fetch.",
	)
	cmd.Flags().DurationVar(
		&fetchMaxWaitInterval,
		"fetch-max-wait-interval",
		server.DefaultFetchMaxWaitInterval,
		"Maximum wait interval between fetch retries.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.WatchBufferSize,
		"watch-buffer-size",
		server.DefaultWatchBufferSize,
		"Number of events buffered per watcher of the change stream.",
	)
	cmd.Flags().StringVar(
		&mongoConnectionURI,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI. The memory database is used when empty.",
	)
	cmd.Flags().DurationVar(
		&mongoConnectionTimeout,
		"mongo-connection-timeout",
		server.DefaultMongoConnectionTimeout,
		"Mongo DB's connection timeout",
	)
	cmd.Flags().StringVar(
		&mongoDatabase,
		"mongo-database",
		server.DefaultMongoDatabase,
		"Kernel's database name in MongoDB",
	)
	cmd.Flags().DurationVar(
		&mongoPingTimeout,
		"mongo-ping-timeout",
		server.DefaultMongoPingTimeout,
		"Mongo DB's ping timeout",
	)
	cmd.Flags().StringVar(
		&kafkaAddresses,
		"kafka-addresses",
		"",
		"Comma-separated addresses of Kafka brokers. Events are not published when empty.",
	)
	cmd.Flags().StringVar(
		&kafkaTopic,
		"kafka-topic",
		server.DefaultKafkaTopic,
		"Kafka topic the events are published to.",
	)
	cmd.Flags().DurationVar(
		&kafkaWriteTimeout,
		"kafka-write-timeout",
		server.DefaultKafkaWriteTimeout,
		"Timeout of writing events to Kafka.",
	)

	rootCmd.AddCommand(cmd)
}

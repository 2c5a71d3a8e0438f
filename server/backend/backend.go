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

// Package backend provides the backend of the kernel. It owns the database
// and the other resources shared by the sessions of every command.
package backend

import (
	"errors"

	"github.com/scieloorg/kernel/pkg/clock"
	"github.com/scieloorg/kernel/server/backend/background"
	"github.com/scieloorg/kernel/server/backend/database"
	memdb "github.com/scieloorg/kernel/server/backend/database/memory"
	"github.com/scieloorg/kernel/server/backend/database/mongo"
	"github.com/scieloorg/kernel/server/backend/fetcher"
	"github.com/scieloorg/kernel/server/backend/messagebroker"
	"github.com/scieloorg/kernel/server/backend/sync"
	"github.com/scieloorg/kernel/server/backend/watch"
	"github.com/scieloorg/kernel/server/changes"
	"github.com/scieloorg/kernel/server/logging"
	"github.com/scieloorg/kernel/server/profiling/prometheus"
)

// Backend manages the kernel's backend such as the database, the change log
// and the per-id lockers.
type Backend struct {
	Config *Config

	// Clock stamps versions and changes.
	Clock clock.Clock
	// DB is the database instance.
	DB database.Database
	// Changes is the change log.
	Changes *changes.Log

	// Lockers is used to lock/unlock aggregates.
	Lockers *sync.LockerManager
	// Fetcher fetches the data of documents.
	Fetcher *fetcher.Fetcher
	// MsgBroker is the message producer instance.
	MsgBroker messagebroker.Broker
	// Watch fans events out to the watchers of the change stream.
	Watch *watch.Hub
	// Background runs the goroutines of long-lived requests.
	Background *background.Background

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
}

// New creates a new instance of Backend. If mongoConf is nil, the memory
// database is used.
func New(
	conf *Config,
	mongoConf *mongo.Config,
	kafkaConf *messagebroker.Config,
	metrics *prometheus.Metrics,
	clk clock.Clock,
) (*Backend, error) {
	// 01. Create the database instance. If the MongoDB configuration is given,
	// create a MongoDB instance. Otherwise, create a memory database instance.
	var db database.Database
	var err error
	if mongoConf != nil {
		db, err = mongo.Dial(mongoConf)
	} else {
		db, err = memdb.New()
	}
	if err != nil {
		return nil, err
	}

	// 02. Create the fetcher of document data.
	f, err := fetcher.New(fetcher.Options{
		Timeout:         conf.ParseFetchTimeout(),
		CacheSize:       conf.FetchCacheSize,
		MaxRetries:      conf.FetchMaxRetries,
		MaxWaitInterval: conf.ParseFetchMaxWaitInterval(),
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if clk == nil {
		clk = clock.NewSystem()
	}

	dbInfo := "memory"
	if mongoConf != nil {
		dbInfo = mongoConf.ConnectionURI
	}
	logging.DefaultLogger().Infof("backend created: db: %s", dbInfo)

	return &Backend{
		Config: conf,

		Clock:   clk,
		DB:      db,
		Changes: changes.New(db, clk),

		Lockers:    sync.New(),
		Fetcher:    f,
		MsgBroker:  messagebroker.Ensure(kafkaConf),
		Watch:      watch.New(conf.WatchBufferSize),
		Background: background.New(metrics),

		Metrics: metrics,
	}, nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	var errs []error

	// Closing the hub ends the writers of the change stream, which the
	// background waits for.
	b.Watch.Close()
	b.Background.Close()

	if err := b.MsgBroker.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.DB.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}

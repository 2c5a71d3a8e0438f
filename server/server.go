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

// Package server provides the kernel server which is the main entry point of
// the document store. The server is responsible for starting the HTTP server
// and the profiling server.
package server

import (
	gosync "sync"

	"github.com/scieloorg/kernel/server/backend"
	"github.com/scieloorg/kernel/server/commands"
	"github.com/scieloorg/kernel/server/profiling"
	"github.com/scieloorg/kernel/server/profiling/prometheus"
	"github.com/scieloorg/kernel/server/rest"
	"github.com/scieloorg/kernel/server/subscribers"
)

// Kernel is a server of the document store.
// The server receives commands over HTTP, records the new versions of the
// aggregates and appends their changes to the change log.
type Kernel struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	handlers        *commands.Handlers
	restServer      *rest.Server
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of Kernel.
func New(conf *Config) (*Kernel, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(conf.Backend, conf.Mongo, conf.Kafka, metrics, nil)
	if err != nil {
		return nil, err
	}

	handlers := commands.New(be, subscribers.Default(be))

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &Kernel{
		conf:            conf,
		backend:         be,
		handlers:        handlers,
		restServer:      rest.NewServer(conf.REST, be, handlers),
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server by opening the HTTP port.
func (k *Kernel) Start() error {
	k.lock.Lock()
	defer k.lock.Unlock()

	if k.profilingServer != nil {
		if err := k.profilingServer.Start(); err != nil {
			return err
		}
	}

	return k.restServer.Start()
}

// Shutdown shuts down this kernel server.
func (k *Kernel) Shutdown(graceful bool) error {
	k.lock.Lock()
	defer k.lock.Unlock()
	if k.shutdown {
		return nil
	}

	k.restServer.Shutdown(graceful)
	if k.profilingServer != nil {
		k.profilingServer.Shutdown(graceful)
	}

	if err := k.backend.Shutdown(); err != nil {
		return err
	}

	close(k.shutdownCh)
	k.shutdown = true
	return nil
}

// ShutdownCh returns the shutdown channel.
func (k *Kernel) ShutdownCh() <-chan struct{} {
	return k.shutdownCh
}

// RESTAddr returns the address of the HTTP server.
func (k *Kernel) RESTAddr() string {
	return k.conf.RESTAddr()
}

// Handlers returns the command handlers of this server. It is used for
// testing.
func (k *Kernel) Handlers() *commands.Handlers {
	return k.handlers
}

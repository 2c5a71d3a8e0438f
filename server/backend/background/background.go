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

// Package background tracks the goroutines the backend starts on behalf of
// long-lived requests, so that shutting down waits for them.
package background

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/scieloorg/kernel/server/logging"
	"github.com/scieloorg/kernel/server/profiling/prometheus"
)

type routineID int32

func (c *routineID) next() string {
	next := atomic.AddInt32((*int32)(c), 1)
	return "bg" + strconv.Itoa(int(next))
}

// Background runs and tracks goroutines until it is closed.
type Background struct {
	// closing is closed when the backend shuts down.
	closing chan struct{}

	// wgMu blocks Attach while Close is waiting.
	wgMu sync.RWMutex
	wg   sync.WaitGroup

	routineID routineID
	metrics   *prometheus.Metrics
}

// New creates a new instance of Background.
func New(metrics *prometheus.Metrics) *Background {
	return &Background{
		closing: make(chan struct{}),
		metrics: metrics,
	}
}

// Attach runs the given function in a goroutine. The context given to it
// carries a logger named after the routine and is cancelled when the
// background closes. It returns false if the background is already closed.
func (b *Background) Attach(f func(ctx context.Context), taskType string) bool {
	b.wgMu.RLock()
	defer b.wgMu.RUnlock()

	select {
	case <-b.closing:
		logging.DefaultLogger().Warnf("backend has closed; skipping %s", taskType)
		return false
	default:
	}

	b.wg.Add(1)
	ctx, cancel := context.WithCancel(logging.With(context.Background(), logging.New(b.routineID.next())))
	if b.metrics != nil {
		b.metrics.AddBackgroundGoroutines(taskType)
	}

	go func() {
		defer func() {
			cancel()
			if b.metrics != nil {
				b.metrics.RemoveBackgroundGoroutines(taskType)
			}
			b.wg.Done()
		}()

		go func() {
			select {
			case <-b.closing:
				cancel()
			case <-ctx.Done():
			}
		}()

		f(ctx)
	}()

	return true
}

// Close stops accepting new goroutines and waits for the attached ones to
// return.
func (b *Background) Close() {
	b.wgMu.Lock()
	select {
	case <-b.closing:
	default:
		close(b.closing)
	}
	b.wgMu.Unlock()

	b.wg.Wait()
}

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

// Package commands provides the use cases of the kernel. Each write runs
// under the lock of its aggregate in a fresh session, is retried after a
// concurrent update and notifies the subscribers once committed.
package commands

import (
	"context"
	goerrors "errors"
	"fmt"
	gotime "time"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/pkg/document"
	"github.com/scieloorg/kernel/pkg/errors"
	"github.com/scieloorg/kernel/server/backend"
	"github.com/scieloorg/kernel/server/backend/database"
	"github.com/scieloorg/kernel/server/backend/sync"
	"github.com/scieloorg/kernel/server/logging"
	"github.com/scieloorg/kernel/server/profiling/prometheus"
	"github.com/scieloorg/kernel/server/session"
)

// Handlers executes the commands of the kernel.
type Handlers struct {
	sessions     *session.Factory
	lockers      *sync.LockerManager
	fetcher      document.Fetcher
	metrics      *prometheus.Metrics
	retryLimit   int
	changesLimit int
}

// New creates the handlers of the given backend. The subscribers are
// notified in the order they are given.
func New(be *backend.Backend, subscribers []session.Subscriber) *Handlers {
	return &Handlers{
		sessions:     session.NewFactory(be, subscribers),
		lockers:      be.Lockers,
		fetcher:      be.Fetcher,
		metrics:      be.Metrics,
		retryLimit:   be.Config.RetryLimit,
		changesLimit: be.Config.ChangesLimit,
	}
}

// ChangesLimit returns the number of changes listed when the caller gives no
// limit.
func (h *Handlers) ChangesLimit() int {
	return h.changesLimit
}

// mutation changes one aggregate through the given session. It returns the
// event to notify once the change is committed, or "" to notify nothing.
type mutation func(ctx context.Context, s *session.Session) (events.Type, session.Payload, error)

// execute runs the given mutation under the lock of the key. The mutation
// is run again from the start after a concurrent update, up to the retry
// limit. Subscribers are notified once the lock is released.
func (h *Handlers) execute(
	ctx context.Context,
	name string,
	key sync.Key,
	fn mutation,
) (err error) {
	start := gotime.Now()
	defer func() {
		h.observe(name, start, err)
	}()

	sess := h.sessions.New()
	ctx = logging.With(ctx, sess.Logger())

	event, payload, err := h.commit(ctx, name, key, sess, fn)
	if err != nil {
		return err
	}

	if event != "" {
		sess.Notify(ctx, event, payload)
	}
	return nil
}

// commit runs the mutation while holding the lock of the key.
func (h *Handlers) commit(
	ctx context.Context,
	name string,
	key sync.Key,
	sess *session.Session,
	fn mutation,
) (events.Type, session.Payload, error) {
	locker := h.lockers.NewLocker(key)
	if err := locker.Lock(ctx); err != nil {
		return "", nil, err
	}
	defer func() {
		if err := locker.Unlock(); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	for attempt := 0; ; attempt++ {
		event, payload, err := fn(ctx, sess)
		if goerrors.Is(err, database.ErrConflictOnUpdate) {
			if attempt >= h.retryLimit {
				return "", nil, fmt.Errorf("%s %s after %d retries: %w", name, key, attempt, types.ErrRetryable)
			}
			if h.metrics != nil {
				h.metrics.AddCommandRetry(name)
			}
			sess.Logger().Debugf("%s %s: retrying after concurrent update", name, key)
			continue
		}
		if err != nil {
			return "", nil, err
		}
		return event, payload, nil
	}
}

// query runs a read in a fresh session.
func query[T any](
	ctx context.Context,
	h *Handlers,
	name string,
	fn func(ctx context.Context, s *session.Session) (T, error),
) (result T, err error) {
	start := gotime.Now()
	defer func() {
		h.observe(name, start, err)
	}()

	sess := h.sessions.New()
	return fn(logging.With(ctx, sess.Logger()), sess)
}

func (h *Handlers) observe(name string, start gotime.Time, err error) {
	if h.metrics == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "unknown"
		if code := errors.StatusOf(err); code != 0 {
			status = code.String()
		}
	}
	h.metrics.ObserveCommand(name, status, gotime.Since(start).Seconds())
}

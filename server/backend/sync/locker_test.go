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

package sync_test

import (
	"context"
	gosync "sync"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"

	"github.com/scieloorg/kernel/server/backend/sync"
)

func TestLockerManager(t *testing.T) {
	t.Run("serialize the same key test", func(t *testing.T) {
		manager := sync.New()
		key := sync.NewKey("documents", "S0034-89102014000200347")
		assert.Equal(t, "documents/S0034-89102014000200347", key.String())

		const workers = 16
		counter := 0
		var wg gosync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				locker := manager.NewLocker(key)
				assert.NoError(t, locker.Lock(context.Background()))
				counter++
				assert.NoError(t, locker.Unlock())
			}()
		}
		wg.Wait()

		assert.Equal(t, workers, counter)
	})

	t.Run("lock with done context test", func(t *testing.T) {
		manager := sync.New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		locker := manager.NewLocker(sync.NewKey("journals", "0034-8910-rsp"))
		assert.ErrorIs(t, locker.Lock(ctx), context.Canceled)
	})

	t.Run("give up waiting when context is done test", func(t *testing.T) {
		manager := sync.New()
		key := sync.NewKey("journals", "0034-8910-rsp")

		holder := manager.NewLocker(key)
		assert.NoError(t, holder.Lock(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 50*gotime.Millisecond)
		defer cancel()
		start := gotime.Now()
		waiter := manager.NewLocker(key)
		assert.ErrorIs(t, waiter.Lock(ctx), context.DeadlineExceeded)
		assert.Less(t, gotime.Since(start), gotime.Second)

		assert.NoError(t, holder.Unlock())

		next := manager.NewLocker(key)
		acquireCtx, cancelAcquire := context.WithTimeout(context.Background(), gotime.Second)
		defer cancelAcquire()
		assert.NoError(t, next.Lock(acquireCtx))
		assert.NoError(t, next.Unlock())
	})

	t.Run("unlock without lock test", func(t *testing.T) {
		manager := sync.New()
		locker := manager.NewLocker(sync.NewKey("bundles", "0034-8910-rsp-48-2"))
		assert.Error(t, locker.Unlock())
	})
}

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

package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/server/backend/fetcher"
)

func newFetcher(t *testing.T) *fetcher.Fetcher {
	f, err := fetcher.New(fetcher.Options{
		Timeout:         time.Second,
		CacheSize:       16,
		MaxRetries:      2,
		MaxWaitInterval: 10 * time.Millisecond,
	})
	assert.NoError(t, err)
	return f
}

func TestFetcher(t *testing.T) {
	t.Run("fetch and cache test", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			_, _ = w.Write([]byte("<article/>"))
		}))
		defer server.Close()

		f := newFetcher(t)
		ctx := context.Background()

		data, err := f.Fetch(ctx, server.URL+"/0034-8910-rsp-48-2-0347.xml")
		assert.NoError(t, err)
		assert.Equal(t, "<article/>", string(data))

		data, err = f.Fetch(ctx, server.URL+"/0034-8910-rsp-48-2-0347.xml")
		assert.NoError(t, err)
		assert.Equal(t, "<article/>", string(data))
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("not found test", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		_, err := newFetcher(t).Fetch(context.Background(), server.URL+"/missing.xml")
		assert.ErrorIs(t, err, types.ErrDoesNotExist)
	})

	t.Run("retry on server error test", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("<article/>"))
		}))
		defer server.Close()

		data, err := newFetcher(t).Fetch(context.Background(), server.URL+"/flaky.xml")
		assert.NoError(t, err)
		assert.Equal(t, "<article/>", string(data))
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})

	t.Run("give up after retries test", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newFetcher(t).Fetch(context.Background(), server.URL+"/broken.xml")
		assert.ErrorIs(t, err, fetcher.ErrUnexpectedStatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})
}

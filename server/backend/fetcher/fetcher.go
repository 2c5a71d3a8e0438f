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

// Package fetcher retrieves the bytes that data urls point to. Responses are
// cached by url and concurrent requests of the same url share one round trip.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/server/logging"
)

// ErrUnexpectedStatusCode is returned when the remote answers with a status
// other than 200.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// Options are the options for the fetcher.
type Options struct {
	// Timeout bounds each round trip.
	Timeout time.Duration

	// CacheSize is the number of responses kept in memory.
	CacheSize int

	MaxRetries      uint64
	MaxWaitInterval time.Duration
}

// Fetcher fetches the bytes of urls over HTTP.
type Fetcher struct {
	client  *http.Client
	cache   *lru.Cache[string, []byte]
	group   singleflight.Group
	options Options
}

// New creates a new instance of Fetcher.
func New(options Options) (*Fetcher, error) {
	cache, err := lru.New[string, []byte](options.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("initialize fetch cache: %w", err)
	}

	return &Fetcher{
		client:  &http.Client{Timeout: options.Timeout},
		cache:   cache,
		options: options,
	}, nil
}

// Fetch returns the bytes the given url points to. A 404 answer is reported
// as a missing entity.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if data, ok := f.cache.Get(url); ok {
		return data, nil
	}

	result, err, _ := f.group.Do(url, func() (interface{}, error) {
		var data []byte
		err := f.withExponentialBackoff(ctx, func() (int, error) {
			var status int
			var err error
			data, status, err = f.get(ctx, url)
			return status, err
		})
		if err != nil {
			return nil, err
		}

		f.cache.Add(url, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request of %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, resp.StatusCode, fmt.Errorf("%s: %w", url, types.ErrDoesNotExist)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%s %d: %w", url, resp.StatusCode, ErrUnexpectedStatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s: %w", url, err)
	}

	return data, resp.StatusCode, nil
}

func (f *Fetcher) withExponentialBackoff(ctx context.Context, fn func() (int, error)) error {
	var retries uint64
	for {
		status, err := fn()
		if !shouldRetry(status, err) || retries >= f.options.MaxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitInterval(retries, f.options.MaxWaitInterval)):
		}

		retries++
	}
}

// waitInterval returns the interval of given retries. (2^retries * 100) milliseconds.
func waitInterval(retries uint64, maxWaitInterval time.Duration) time.Duration {
	interval := time.Duration(math.Pow(2, float64(retries))) * 100 * time.Millisecond
	if maxWaitInterval < interval {
		return maxWaitInterval
	}

	return interval
}

// shouldRetry returns true for transport failures and server side answers.
func shouldRetry(status int, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return status == 0 || status >= http.StatusInternalServerError
}

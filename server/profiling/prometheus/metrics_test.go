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

package prometheus_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/scieloorg/kernel/server/profiling/prometheus"
)

func TestMetrics(t *testing.T) {
	t.Run("collect test", func(t *testing.T) {
		metrics, err := prometheus.NewMetrics()
		assert.NoError(t, err)

		metrics.ObserveCommand("RegisterDocument", "OK", 0.01)
		metrics.ObserveCommand("RegisterDocument", "OK", 0.02)
		metrics.AddCommandRetry("RegisterDocument")
		metrics.AddEventNotified("DOCUMENT_REGISTERED")
		metrics.AddSubscriberFailure("DOCUMENT_REGISTERED", "broker")
		metrics.ObserveHTTPRequest("PUT", "/documents/:id", 201, 0.03)
		metrics.AddWatchConnections()

		count, err := testutil.GatherAndCount(metrics.Registry(), "kernel_commands_handled_total")
		assert.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = testutil.GatherAndCount(metrics.Registry(), "kernel_events_subscriber_failures_total")
		assert.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = testutil.GatherAndCount(metrics.Registry(), "kernel_server_version")
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

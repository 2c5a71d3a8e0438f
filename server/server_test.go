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

package server_test

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/kernel/server"
	"github.com/scieloorg/kernel/test/helper"
)

func TestKernel(t *testing.T) {
	t.Run("start and shutdown test", func(t *testing.T) {
		k, err := server.New(helper.TestConfig())
		require.NoError(t, err)
		require.NoError(t, k.Start())
		assert.NotNil(t, k.Handlers())

		resp, err := http.Get(fmt.Sprintf("http://%s/healthz", k.RESTAddr()))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "SERVING")

		assert.NoError(t, k.Shutdown(true))
		<-k.ShutdownCh()

		// shutting down twice is a no-op.
		assert.NoError(t, k.Shutdown(true))
	})

	t.Run("invalid config test", func(t *testing.T) {
		conf := helper.TestConfig()
		conf.Backend.RetryLimit = 0
		_, err := server.New(conf)
		assert.Error(t, err)
	})
}

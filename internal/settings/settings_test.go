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

package settings_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/internal/settings"
	"github.com/scieloorg/kernel/pkg/errors"
)

var defs = []settings.Setting{
	{Key: "kernel.test.port", Env: "KERNEL_TEST_PORT", Kind: settings.Int, Default: 6543},
	{Key: "kernel.test.name", Env: "KERNEL_TEST_NAME", Kind: settings.String, Default: "document-store"},
	{Key: "kernel.test.enabled", Env: "KERNEL_TEST_ENABLED", Kind: settings.Bool, Default: false},
	{Key: "kernel.test.timeout", Env: "KERNEL_TEST_TIMEOUT", Kind: settings.Duration, Default: "10s"},
}

func TestParse(t *testing.T) {
	t.Run("defaults test", func(t *testing.T) {
		values, err := settings.Parse(nil, defs)
		require.NoError(t, err)

		assert.Equal(t, 6543, values.Int("kernel.test.port"))
		assert.Equal(t, "document-store", values.String("kernel.test.name"))
		assert.False(t, values.Bool("kernel.test.enabled"))
		assert.Equal(t, 10*time.Second, values.Duration("kernel.test.timeout"))
	})

	t.Run("supplied values override defaults test", func(t *testing.T) {
		values, err := settings.Parse(map[string]string{
			"kernel.test.port":    "8080",
			"kernel.test.enabled": "true",
			"kernel.test.timeout": "1m",
		}, defs)
		require.NoError(t, err)

		assert.Equal(t, 8080, values.Int("kernel.test.port"))
		assert.True(t, values.Bool("kernel.test.enabled"))
		assert.Equal(t, time.Minute, values.Duration("kernel.test.timeout"))
		assert.Equal(t, "document-store", values.String("kernel.test.name"))
	})

	t.Run("environment overrides supplied values test", func(t *testing.T) {
		t.Setenv("KERNEL_TEST_PORT", "9090")
		t.Setenv("KERNEL_TEST_NAME", "articles")

		values, err := settings.Parse(map[string]string{
			"kernel.test.port": "8080",
		}, defs)
		require.NoError(t, err)

		assert.Equal(t, 9090, values.Int("kernel.test.port"))
		assert.Equal(t, "articles", values.String("kernel.test.name"))
	})

	t.Run("malformed value test", func(t *testing.T) {
		t.Setenv("KERNEL_TEST_PORT", "not-a-number")

		_, err := settings.Parse(nil, defs)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		assert.True(t, errors.IsStatus(err, errors.ErrCodeInvalidArgument))
	})

	t.Run("unknown supplied keys are ignored test", func(t *testing.T) {
		values, err := settings.Parse(map[string]string{"kernel.test.other": "x"}, defs)
		require.NoError(t, err)
		assert.Len(t, values, len(defs))
	})
}

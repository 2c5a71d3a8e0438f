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

package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/scieloorg/kernel/server/logging"
)

func TestLogging(t *testing.T) {
	t.Run("set log level test", func(t *testing.T) {
		assert.NoError(t, logging.SetLogLevel("WARN"))
		assert.False(t, logging.Enabled(zapcore.InfoLevel))
		assert.True(t, logging.Enabled(zapcore.ErrorLevel))

		assert.Error(t, logging.SetLogLevel("verbose"))
		assert.NoError(t, logging.SetLogLevel("info"))
		assert.True(t, logging.Enabled(zapcore.InfoLevel))
	})

	t.Run("set format test", func(t *testing.T) {
		assert.NoError(t, logging.SetFormat(logging.FormatJSON))
		assert.NoError(t, logging.SetFormat(logging.FormatConsole))
		assert.Error(t, logging.SetFormat("xml"))
	})

	t.Run("context logger test", func(t *testing.T) {
		assert.Equal(t, logging.DefaultLogger(), logging.From(context.Background()))

		logger := logging.New("test", logging.NewField("session", "abc"))
		ctx := logging.With(context.Background(), logger)
		assert.Equal(t, logger, logging.From(ctx))
	})
}

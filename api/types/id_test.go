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

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scieloorg/kernel/api/types"
)

func TestID(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		assert.NoError(t, types.ID("0034-8910-rsp-48-2-0347").Validate())
		assert.NoError(t, types.ID("S0034-89102014000200347").Validate())

		assert.ErrorIs(t, types.ID("").Validate(), types.ErrInvalidArgument)
		assert.ErrorIs(t, types.ID("with space").Validate(), types.ErrInvalidArgument)
		assert.ErrorIs(t, types.ID("tab\tid").Validate(), types.ErrInvalidArgument)
		assert.ErrorIs(t, types.ID("ação").Validate(), types.ErrInvalidArgument)
	})

	t.Run("validate ids test", func(t *testing.T) {
		assert.NoError(t, types.ValidateIDs("a", "b"))
		assert.ErrorIs(t, types.ValidateIDs("a", ""), types.ErrInvalidArgument)
	})

	t.Run("entity path test", func(t *testing.T) {
		assert.Equal(t, "/documents/d1", types.EntityDocument.Path("d1"))
		assert.Equal(t, "/bundles/b1", types.EntityBundle.Path("b1"))
		assert.Equal(t, "/journals/j1", types.EntityJournal.Path("j1"))
	})
}

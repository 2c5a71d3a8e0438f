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

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/server/backend/database"
)

func TestPrintChanges(t *testing.T) {
	infos := []*database.ChangeInfo{
		{ID: "64b0", Entity: types.EntityDocument, EntityID: "S0034", Timestamp: "2030-01-01T00:00:00.000000Z"},
		{ID: "64b1", Entity: types.EntityJournal, EntityID: "0034-8910", Timestamp: "2030-01-01T00:00:01.000000Z", Deleted: true},
	}

	t.Run("table test", func(t *testing.T) {
		out := &bytes.Buffer{}
		cmd := &cobra.Command{}
		cmd.SetOut(out)

		require.NoError(t, printChanges(cmd, "", infos))
		assert.Contains(t, out.String(), "/documents/S0034")
		assert.Contains(t, out.String(), "/journals/0034-8910")
	})

	t.Run("json test", func(t *testing.T) {
		out := &bytes.Buffer{}
		cmd := &cobra.Command{}
		cmd.SetOut(out)

		require.NoError(t, printChanges(cmd, "json", infos))
		var rows []changeRow
		require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
		assert.Len(t, rows, 2)
		assert.True(t, rows[1].Deleted)
	})

	t.Run("unknown output test", func(t *testing.T) {
		assert.Error(t, printChanges(&cobra.Command{}, "xml", infos))
	})
}

func TestVersion(t *testing.T) {
	t.Run("validate output test", func(t *testing.T) {
		assert.NoError(t, validateOutput(""))
		assert.NoError(t, validateOutput("json"))
		assert.Error(t, validateOutput("xml"))
	})

	t.Run("version detail test", func(t *testing.T) {
		detail := versionDetail()
		assert.NotEmpty(t, detail.KernelVersion)
		assert.NotEmpty(t, detail.GoVersion)
	})
}

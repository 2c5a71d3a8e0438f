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

package bundle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/pkg/bundle"
	"github.com/scieloorg/kernel/pkg/clock"
	"github.com/scieloorg/kernel/pkg/metadata"
)

func newBundle(t *testing.T) *bundle.Bundle {
	clk := clock.NewFake(time.Date(2018, 8, 5, 0, 0, 0, 0, time.UTC), time.Second)
	b := bundle.New("0034-8910-2018-v52", clk)
	manifest := b.Manifest()
	assert.Equal(t, manifest.Created, manifest.Updated)
	assert.Empty(t, manifest.Items)
	return b
}

func TestBundleItems(t *testing.T) {
	t.Run("add document test", func(t *testing.T) {
		b := newBundle(t)
		require.NoError(t, b.AddDocument("/documents/0034-8910-rsp-48-2-0275"))
		require.NoError(t, b.AddDocument("/documents/0034-8910-rsp-48-2-0276"))
		assert.Equal(t, []string{
			"/documents/0034-8910-rsp-48-2-0275",
			"/documents/0034-8910-rsp-48-2-0276",
		}, b.Documents())

		err := b.AddDocument("/documents/0034-8910-rsp-48-2-0275")
		assert.ErrorIs(t, err, types.ErrAlreadyExists)
		assert.Contains(t, err.Error(), `cannot add documents bundle item "/documents/0034-8910-rsp-48-2-0275"`)
		assert.Len(t, b.Documents(), 2)
	})

	t.Run("every mutation bumps updated test", func(t *testing.T) {
		b := newBundle(t)
		before := b.Manifest().Updated
		require.NoError(t, b.AddDocument("d1"))
		after := b.Manifest().Updated
		assert.True(t, before < after)
		assert.Equal(t, before, b.Manifest().Created)

		require.NoError(t, b.RemoveDocument("d1"))
		assert.True(t, after < b.Manifest().Updated)
	})

	t.Run("insert document test", func(t *testing.T) {
		b := newBundle(t)
		require.NoError(t, b.AddDocument("d1"))
		require.NoError(t, b.AddDocument("d2"))
		require.NoError(t, b.InsertDocument(1, "d3"))
		require.NoError(t, b.InsertDocument(-10, "d4"))
		require.NoError(t, b.InsertDocument(10, "d5"))
		assert.Equal(t, []string{"d4", "d1", "d3", "d2", "d5"}, b.Documents())

		assert.ErrorIs(t, b.InsertDocument(0, "d2"), types.ErrAlreadyExists)
	})

	t.Run("remove document test", func(t *testing.T) {
		b := newBundle(t)
		require.NoError(t, b.AddDocument("d1"))
		require.NoError(t, b.RemoveDocument("d1"))
		assert.Empty(t, b.Documents())

		err := b.RemoveDocument("d1")
		assert.ErrorIs(t, err, types.ErrDoesNotExist)
		assert.Contains(t, err.Error(), `cannot remove documents bundle item "d1"`)
	})

	t.Run("update documents test", func(t *testing.T) {
		b := newBundle(t)
		require.NoError(t, b.AddDocument("d1"))
		require.NoError(t, b.UpdateDocuments([]string{"d2", "d3"}))
		assert.Equal(t, []string{"d2", "d3"}, b.Documents())

		updated := b.Manifest().Updated
		assert.ErrorIs(t, b.UpdateDocuments([]string{"d4", "d4"}), types.ErrAlreadyExists)
		assert.Equal(t, []string{"d2", "d3"}, b.Documents())
		assert.Equal(t, updated, b.Manifest().Updated)

		require.NoError(t, b.UpdateDocuments(nil))
		assert.Equal(t, []string{}, b.Documents())
	})
}

func TestBundleMetadata(t *testing.T) {
	t.Run("set known keys test", func(t *testing.T) {
		b := newBundle(t)
		applied, err := b.SetMetadata("publication_year", metadata.Number(2018))
		require.NoError(t, err)
		assert.True(t, applied)

		_, err = b.SetMetadata("volume", metadata.String("52"))
		require.NoError(t, err)
		_, err = b.SetMetadata("titles", metadata.List(metadata.Record(map[string]metadata.Value{
			"language": metadata.String("en"),
			"value":    metadata.String("Dossier"),
		})))
		require.NoError(t, err)

		m := b.Metadata()
		assert.Equal(t, metadata.String("2018"), m["publication_year"])
		assert.Equal(t, metadata.String("52"), m["volume"])
		assert.Len(t, m["titles"].Items(), 1)
	})

	t.Run("unknown keys are ignored test", func(t *testing.T) {
		b := newBundle(t)
		updated := b.Manifest().Updated
		applied, err := b.SetMetadata("editor", metadata.String("someone"))
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Empty(t, b.Metadata())
		assert.Equal(t, updated, b.Manifest().Updated)
	})

	t.Run("invalid publication months test", func(t *testing.T) {
		b := newBundle(t)
		_, err := b.SetMetadata("publication_months", metadata.Record(map[string]metadata.Value{
			"month": metadata.Number(1),
			"range": metadata.List(metadata.Number(1), metadata.Number(2)),
		}))
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		assert.Empty(t, b.Metadata())
	})

	t.Run("restore from manifest test", func(t *testing.T) {
		b := newBundle(t)
		require.NoError(t, b.AddDocument("d1"))
		_, err := b.SetMetadata("number", metadata.String("2"))
		require.NoError(t, err)

		restored := bundle.FromManifest(b.Manifest(), clock.NewSystem())
		assert.Equal(t, b.Manifest(), restored.Manifest())
		assert.Equal(t, b.ID(), restored.ID())
	})
}

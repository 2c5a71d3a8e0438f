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

package metadata_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/pkg/metadata"
)

func TestValue(t *testing.T) {
	t.Run("from decoded json test", func(t *testing.T) {
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(`{
			"volume": "25",
			"publication_year": 2018,
			"titles": [{"language": "en", "value": "Title"}],
			"publication_months": {"range": [1, 3]}
		}`), &body))

		values, err := metadata.FromMap(body)
		require.NoError(t, err)
		assert.Equal(t, metadata.KindString, values["volume"].Kind())
		assert.Equal(t, metadata.KindNumber, values["publication_year"].Kind())
		assert.Equal(t, metadata.KindList, values["titles"].Kind())
		assert.Equal(t, metadata.KindRecord, values["publication_months"].Kind())

		_, err = metadata.FromMap(map[string]interface{}{"flag": true})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("json encoding test", func(t *testing.T) {
		m := metadata.Metadata{
			"volume": metadata.String("25"),
			"months": metadata.Record(map[string]metadata.Value{
				"range": metadata.List(metadata.Number(1), metadata.Number(3)),
			}),
		}
		encoded, err := json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, `{"volume": "25", "months": {"range": [1, 3]}}`, string(encoded))

		var decoded metadata.Metadata
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		assert.Equal(t, m, decoded)
	})

	t.Run("bson encoding keeps values test", func(t *testing.T) {
		type holder struct {
			Metadata metadata.Metadata `bson:"metadata"`
		}
		in := holder{Metadata: metadata.Metadata{
			"titles": metadata.List(metadata.Record(map[string]metadata.Value{
				"language": metadata.String("pt"),
				"value":    metadata.String("Título"),
			})),
			"subject_areas": metadata.Strings("HEALTH SCIENCES"),
		}}

		data, err := bson.Marshal(in)
		require.NoError(t, err)

		var out holder
		require.NoError(t, bson.Unmarshal(data, &out))
		assert.Equal(t, in.Metadata.DeepCopy(), out.Metadata)
	})

	t.Run("deep copy test", func(t *testing.T) {
		m := metadata.Metadata{"subject_areas": metadata.Strings("A", "B")}
		clone := m.DeepCopy()
		clone["subject_areas"] = metadata.Strings("C")
		assert.Equal(t, "A", m["subject_areas"].Items()[0].Str())
	})
}

func TestSchema(t *testing.T) {
	schema := metadata.Schema{
		"publication_year":   metadata.AsString,
		"titles":             metadata.AsLanguageValues,
		"publication_months": metadata.AsPublicationMonths,
		"subject_areas":      metadata.AsStrings,
	}

	t.Run("unknown keys are ignored test", func(t *testing.T) {
		m := metadata.Metadata{}
		applied, err := schema.Apply(m, "unknown", metadata.String("x"))
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.Empty(t, m)
	})

	t.Run("numbers become strings test", func(t *testing.T) {
		m := metadata.Metadata{}
		applied, err := schema.Apply(m, "publication_year", metadata.Number(2018))
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, metadata.String("2018"), m["publication_year"])
	})

	t.Run("empty strings are kept test", func(t *testing.T) {
		m := metadata.Metadata{"publication_year": metadata.String("2018")}
		_, err := schema.Apply(m, "publication_year", metadata.String(""))
		require.NoError(t, err)
		assert.Equal(t, metadata.String(""), m["publication_year"])
	})

	t.Run("publication months test", func(t *testing.T) {
		m := metadata.Metadata{}
		_, err := schema.Apply(m, "publication_months", metadata.Record(map[string]metadata.Value{
			"month": metadata.Number(9),
		}))
		assert.NoError(t, err)

		_, err = schema.Apply(m, "publication_months", metadata.Record(map[string]metadata.Value{
			"month": metadata.Number(9),
			"range": metadata.List(metadata.Number(1), metadata.Number(3)),
		}))
		assert.ErrorIs(t, err, types.ErrInvalidArgument)

		_, err = schema.Apply(m, "publication_months", metadata.Record(map[string]metadata.Value{
			"range": metadata.List(metadata.Number(1)),
		}))
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("wrong shapes are rejected test", func(t *testing.T) {
		m := metadata.Metadata{}
		_, err := schema.Apply(m, "titles", metadata.Strings("Title"))
		assert.ErrorIs(t, err, types.ErrInvalidArgument)

		_, err = schema.Apply(m, "subject_areas", metadata.String("HEALTH"))
		assert.ErrorIs(t, err, types.ErrInvalidArgument)

		_, err = schema.Apply(m, "publication_year", metadata.Strings("2018"))
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		assert.Empty(t, m)
	})
}

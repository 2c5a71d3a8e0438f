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

// Package bundle provides the DocumentsBundle aggregate: an ordered set of
// documents, such as the articles of an issue, with its descriptive metadata.
package bundle

import (
	"fmt"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/internal/refs"
	"github.com/scieloorg/kernel/pkg/clock"
	"github.com/scieloorg/kernel/pkg/metadata"
)

// Schema is the metadata accepted by documents bundles.
var Schema = metadata.Schema{
	"publication_year":   metadata.AsString,
	"supplement":         metadata.AsString,
	"volume":             metadata.AsString,
	"number":             metadata.AsString,
	"pid":                metadata.AsString,
	"publication_months": metadata.AsPublicationMonths,
	"titles":             metadata.AsLanguageValues,
}

// Manifest is the serializable state of a bundle.
type Manifest struct {
	ID       string            `json:"id" bson:"id"`
	Created  string            `json:"created" bson:"created"`
	Updated  string            `json:"updated" bson:"updated"`
	Items    []string          `json:"items" bson:"items"`
	Metadata metadata.Metadata `json:"metadata" bson:"metadata"`
}

// DeepCopy returns a copy of this manifest.
func (m Manifest) DeepCopy() Manifest {
	return Manifest{
		ID:       m.ID,
		Created:  m.Created,
		Updated:  m.Updated,
		Items:    refs.Clone(m.Items),
		Metadata: m.Metadata.DeepCopy(),
	}
}

// Bundle is the aggregate of a documents bundle.
type Bundle struct {
	manifest Manifest
	clock    clock.Clock
	revision int64
}

// New creates a new empty bundle.
func New(id string, clk clock.Clock) *Bundle {
	now := clock.Now(clk)
	return &Bundle{
		manifest: Manifest{
			ID:       id,
			Created:  now,
			Updated:  now,
			Items:    []string{},
			Metadata: metadata.Metadata{},
		},
		clock: clk,
	}
}

// FromManifest restores a bundle from its manifest.
func FromManifest(m Manifest, clk clock.Clock) *Bundle {
	return &Bundle{
		manifest: m.DeepCopy(),
		clock:    clk,
	}
}

// ID returns the id of this bundle.
func (b *Bundle) ID() string {
	return b.manifest.ID
}

// Revision returns the stored revision this bundle was read at.
func (b *Bundle) Revision() int64 {
	return b.revision
}

// SetRevision sets the stored revision of this bundle.
func (b *Bundle) SetRevision(revision int64) {
	b.revision = revision
}

// Manifest returns a copy of the state of this bundle.
func (b *Bundle) Manifest() Manifest {
	return b.manifest.DeepCopy()
}

// Documents returns the ids of the documents of this bundle in order.
func (b *Bundle) Documents() []string {
	return refs.Clone(b.manifest.Items)
}

// AddDocument appends a document to this bundle.
func (b *Bundle) AddDocument(id string) error {
	if refs.Contains(b.manifest.Items, id) {
		return fmt.Errorf("cannot add documents bundle item %q: %w", id, types.ErrAlreadyExists)
	}

	b.manifest.Items = append(b.manifest.Items, id)
	b.touch()
	return nil
}

// InsertDocument inserts a document before the given index.
func (b *Bundle) InsertDocument(index int, id string) error {
	if refs.Contains(b.manifest.Items, id) {
		return fmt.Errorf("cannot insert documents bundle item %q: %w", id, types.ErrAlreadyExists)
	}

	b.manifest.Items = refs.Insert(b.manifest.Items, index, id)
	b.touch()
	return nil
}

// RemoveDocument removes a document from this bundle.
func (b *Bundle) RemoveDocument(id string) error {
	items, ok := refs.Remove(b.manifest.Items, id)
	if !ok {
		return fmt.Errorf("cannot remove documents bundle item %q: %w", id, types.ErrDoesNotExist)
	}

	b.manifest.Items = items
	b.touch()
	return nil
}

// UpdateDocuments replaces the documents of this bundle. The bundle is left
// untouched if the given ids hold a duplicate.
func (b *Bundle) UpdateDocuments(ids []string) error {
	if dup, ok := refs.Duplicate(ids); ok {
		return fmt.Errorf("cannot update documents bundle items with duplicate %q: %w", dup, types.ErrAlreadyExists)
	}

	b.manifest.Items = refs.Clone(ids)
	b.touch()
	return nil
}

// Metadata returns a copy of the metadata of this bundle.
func (b *Bundle) Metadata() metadata.Metadata {
	return b.manifest.Metadata.DeepCopy()
}

// SetMetadata sets the value of a metadata key. Keys outside of Schema are
// ignored and false is returned.
func (b *Bundle) SetMetadata(key string, value metadata.Value) (bool, error) {
	if b.manifest.Metadata == nil {
		b.manifest.Metadata = metadata.Metadata{}
	}

	applied, err := Schema.Apply(b.manifest.Metadata, key, value)
	if err != nil {
		return false, err
	}
	if applied {
		b.touch()
	}
	return applied, nil
}

func (b *Bundle) touch() {
	b.manifest.Updated = clock.Now(b.clock)
}

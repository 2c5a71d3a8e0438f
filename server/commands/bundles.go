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

package commands

import (
	"context"
	"sort"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/pkg/bundle"
	"github.com/scieloorg/kernel/pkg/metadata"
	"github.com/scieloorg/kernel/server/backend/sync"
	"github.com/scieloorg/kernel/server/session"
)

// metadataSetter is implemented by the aggregates carrying metadata.
type metadataSetter interface {
	SetMetadata(key string, value metadata.Value) (bool, error)
}

// applyMetadata sets the given values in key order. Keys unknown to the
// aggregate are ignored.
func applyMetadata(aggregate metadataSetter, values map[string]metadata.Value) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := aggregate.SetMetadata(key, values[key]); err != nil {
			return err
		}
	}
	return nil
}

func bundleKey(id string) sync.Key {
	return sync.NewKey(string(types.EntityBundle), id)
}

// CreateDocumentsBundle creates a bundle holding the given documents. It
// fails with AlreadyExists if the id is taken.
func (h *Handlers) CreateDocumentsBundle(
	ctx context.Context,
	id string,
	docs []string,
	values map[string]metadata.Value,
) error {
	if err := types.ValidateIDs(id); err != nil {
		return err
	}
	if err := types.ValidateIDs(docs...); err != nil {
		return err
	}

	return h.execute(ctx, "CreateDocumentsBundle", bundleKey(id), func(
		ctx context.Context,
		s *session.Session,
	) (events.Type, session.Payload, error) {
		b := bundle.New(id, s.Clock)
		for _, doc := range docs {
			if err := b.AddDocument(doc); err != nil {
				return "", nil, err
			}
		}
		if err := applyMetadata(b, values); err != nil {
			return "", nil, err
		}
		if err := s.Bundles.Add(ctx, b); err != nil {
			return "", nil, err
		}

		return events.DocumentsBundleCreated, session.Payload{
			"id":              id,
			"docs":            docs,
			"metadata":        values,
			session.BundleKey: b.Manifest(),
		}, nil
	})
}

// FetchDocumentsBundle returns the manifest of a bundle.
func (h *Handlers) FetchDocumentsBundle(ctx context.Context, id string) (bundle.Manifest, error) {
	return query(ctx, h, "FetchDocumentsBundle", func(ctx context.Context, s *session.Session) (bundle.Manifest, error) {
		b, err := s.Bundles.Fetch(ctx, id)
		if err != nil {
			return bundle.Manifest{}, err
		}
		return b.Manifest(), nil
	})
}

// updateBundle fetches the bundle, applies fn and stores the result. The
// notified payload holds the given arguments and the committed bundle.
func (h *Handlers) updateBundle(
	ctx context.Context,
	name, id string,
	event events.Type,
	payload session.Payload,
	fn func(b *bundle.Bundle) error,
) error {
	if err := types.ValidateIDs(id); err != nil {
		return err
	}
	payload["id"] = id

	return h.execute(ctx, name, bundleKey(id), func(
		ctx context.Context,
		s *session.Session,
	) (events.Type, session.Payload, error) {
		b, err := s.Bundles.Fetch(ctx, id)
		if err != nil {
			return "", nil, err
		}
		if err := fn(b); err != nil {
			return "", nil, err
		}
		if err := s.Bundles.Update(ctx, b); err != nil {
			return "", nil, err
		}
		return event, payload.With(session.BundleKey, b.Manifest()), nil
	})
}

// UpdateDocumentsBundleMetadata sets the given metadata of a bundle.
func (h *Handlers) UpdateDocumentsBundleMetadata(
	ctx context.Context,
	id string,
	values map[string]metadata.Value,
) error {
	return h.updateBundle(
		ctx,
		"UpdateDocumentsBundleMetadata",
		id,
		events.DocumentsBundleMetadataUpdated,
		session.Payload{"metadata": values},
		func(b *bundle.Bundle) error {
			return applyMetadata(b, values)
		},
	)
}

// AddDocumentToDocumentsBundle appends a document to a bundle.
func (h *Handlers) AddDocumentToDocumentsBundle(ctx context.Context, id, doc string) error {
	if err := types.ValidateIDs(doc); err != nil {
		return err
	}

	return h.updateBundle(
		ctx,
		"AddDocumentToDocumentsBundle",
		id,
		events.DocumentAddedToDocumentsBundle,
		session.Payload{"doc": doc},
		func(b *bundle.Bundle) error {
			return b.AddDocument(doc)
		},
	)
}

// InsertDocumentToDocumentsBundle inserts a document before the given index
// of a bundle.
func (h *Handlers) InsertDocumentToDocumentsBundle(ctx context.Context, id string, index int, doc string) error {
	if err := types.ValidateIDs(doc); err != nil {
		return err
	}

	return h.updateBundle(
		ctx,
		"InsertDocumentToDocumentsBundle",
		id,
		events.DocumentInsertedToDocumentsBundle,
		session.Payload{"index": index, "doc": doc},
		func(b *bundle.Bundle) error {
			return b.InsertDocument(index, doc)
		},
	)
}

// UpdateDocumentsInDocumentsBundle replaces the documents of a bundle. It
// fails with AlreadyExists, leaving the bundle untouched, if docs holds a
// duplicate.
func (h *Handlers) UpdateDocumentsInDocumentsBundle(ctx context.Context, id string, docs []string) error {
	if err := types.ValidateIDs(docs...); err != nil {
		return err
	}

	return h.updateBundle(
		ctx,
		"UpdateDocumentsInDocumentsBundle",
		id,
		events.DocumentsUpdatedInDocumentsBundle,
		session.Payload{"docs": docs},
		func(b *bundle.Bundle) error {
			return b.UpdateDocuments(docs)
		},
	)
}

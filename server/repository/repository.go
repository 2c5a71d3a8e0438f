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

// Package repository stores the aggregates of the kernel as opaque records
// and appends one change log entry per committed write.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/pkg/bundle"
	"github.com/scieloorg/kernel/pkg/clock"
	"github.com/scieloorg/kernel/pkg/document"
	"github.com/scieloorg/kernel/pkg/journal"
	"github.com/scieloorg/kernel/server/backend/database"
	"github.com/scieloorg/kernel/server/changes"
	"github.com/scieloorg/kernel/server/logging"
)

// Aggregate is an entity stored by a Repository.
type Aggregate interface {
	ID() string

	// Revision is the revision of the record the aggregate was read from.
	Revision() int64
	SetRevision(revision int64)
}

// deletable is implemented by aggregates that can be tombstoned.
type deletable interface {
	IsDeleted() bool
}

// Repository stores aggregates of one kind.
type Repository[T Aggregate] struct {
	db      database.Database
	changes *changes.Log

	col    database.Collection
	entity types.EntityKind
	encode func(T) ([]byte, error)
	decode func([]byte) (T, error)
}

// Add stores a new aggregate.
func (r *Repository[T]) Add(ctx context.Context, aggregate T) error {
	body, err := r.encode(aggregate)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", r.entity, aggregate.ID(), err)
	}

	record := &database.Record{ID: aggregate.ID(), Body: body}
	if err := r.db.InsertRecord(ctx, r.col, record); err != nil {
		if errors.Is(err, database.ErrRecordAlreadyExists) {
			return fmt.Errorf("%s %s: %w", r.entity, aggregate.ID(), types.ErrAlreadyExists)
		}
		return err
	}
	aggregate.SetRevision(record.Revision)

	return r.appendChange(ctx, aggregate)
}

// Fetch returns the aggregate of the given id. Tombstoned documents are
// returned as they are.
func (r *Repository[T]) Fetch(ctx context.Context, id string) (T, error) {
	var zero T

	record, err := r.db.FindRecord(ctx, r.col, id)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return zero, fmt.Errorf("%s %s: %w", r.entity, id, types.ErrDoesNotExist)
		}
		return zero, err
	}

	aggregate, err := r.decode(record.Body)
	if err != nil {
		return zero, fmt.Errorf("decode %s %s: %v: %w", r.entity, id, err, database.ErrCorruptedRecord)
	}
	aggregate.SetRevision(record.Revision)

	return aggregate, nil
}

// Update replaces the stored aggregate. It fails with
// database.ErrConflictOnUpdate when the record was replaced since the
// aggregate was fetched.
func (r *Repository[T]) Update(ctx context.Context, aggregate T) error {
	body, err := r.encode(aggregate)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", r.entity, aggregate.ID(), err)
	}

	record := &database.Record{ID: aggregate.ID(), Body: body}
	if err := r.db.ReplaceRecord(ctx, r.col, record, aggregate.Revision()); err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return fmt.Errorf("%s %s: %w", r.entity, aggregate.ID(), types.ErrDoesNotExist)
		}
		return err
	}
	aggregate.SetRevision(record.Revision)

	return r.appendChange(ctx, aggregate)
}

// appendChange records the committed write. The record is already stored,
// so the entry is appended even if the caller gave up meanwhile. The record
// and its entry are not written atomically: if the entry cannot be
// appended, the record stays committed without it and the failure is
// logged with the record id.
func (r *Repository[T]) appendChange(ctx context.Context, aggregate T) error {
	deleted := false
	if d, ok := any(aggregate).(deletable); ok {
		deleted = d.IsDeleted()
	}

	if _, err := r.changes.Add(context.WithoutCancel(ctx), r.entity, aggregate.ID(), deleted); err != nil {
		logging.From(ctx).Errorf(
			"%s %s committed at revision %d without a change entry: %v",
			r.entity, aggregate.ID(), aggregate.Revision(), err,
		)
		return fmt.Errorf("append change of %s %s: %w", r.entity, aggregate.ID(), err)
	}
	return nil
}

// NewDocuments creates the repository of documents.
func NewDocuments(db database.Database, log *changes.Log, clk clock.Clock) *Repository[*document.Document] {
	return &Repository[*document.Document]{
		db:      db,
		changes: log,
		col:     database.ColDocuments,
		entity:  types.EntityDocument,
		encode: func(d *document.Document) ([]byte, error) {
			return bson.Marshal(d.Manifest())
		},
		decode: func(body []byte) (*document.Document, error) {
			var m document.Manifest
			if err := bson.Unmarshal(body, &m); err != nil {
				return nil, err
			}
			return document.FromManifest(m, clk), nil
		},
	}
}

// NewBundles creates the repository of documents bundles.
func NewBundles(db database.Database, log *changes.Log, clk clock.Clock) *Repository[*bundle.Bundle] {
	return &Repository[*bundle.Bundle]{
		db:      db,
		changes: log,
		col:     database.ColDocumentsBundles,
		entity:  types.EntityBundle,
		encode: func(b *bundle.Bundle) ([]byte, error) {
			return bson.Marshal(b.Manifest())
		},
		decode: func(body []byte) (*bundle.Bundle, error) {
			var m bundle.Manifest
			if err := bson.Unmarshal(body, &m); err != nil {
				return nil, err
			}
			return bundle.FromManifest(m, clk), nil
		},
	}
}

// NewJournals creates the repository of journals.
func NewJournals(db database.Database, log *changes.Log, clk clock.Clock) *Repository[*journal.Journal] {
	return &Repository[*journal.Journal]{
		db:      db,
		changes: log,
		col:     database.ColJournals,
		entity:  types.EntityJournal,
		encode: func(j *journal.Journal) ([]byte, error) {
			return bson.Marshal(j.Manifest())
		},
		decode: func(body []byte) (*journal.Journal, error) {
			var m journal.Manifest
			if err := bson.Unmarshal(body, &m); err != nil {
				return nil, err
			}
			return journal.FromManifest(m, clk), nil
		},
	}
}

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

// Package database provides the contract of the persistence drivers of the
// kernel. A driver keeps one collection of opaque records per aggregate kind
// and the change log.
package database

import (
	"context"

	"github.com/scieloorg/kernel/pkg/errors"
)

var (
	// ErrRecordAlreadyExists is returned when inserting a record whose id is
	// already stored.
	ErrRecordAlreadyExists = errors.AlreadyExists("record already exists").WithCode("ErrRecordAlreadyExists")

	// ErrRecordNotFound is returned when the record could not be found.
	ErrRecordNotFound = errors.NotFound("record not found").WithCode("ErrRecordNotFound")

	// ErrChangeNotFound is returned when the change could not be found.
	ErrChangeNotFound = errors.NotFound("change not found").WithCode("ErrChangeNotFound")

	// ErrConflictOnUpdate is returned when the stored record was replaced
	// since it was read.
	ErrConflictOnUpdate = errors.FailedPrecond("conflict on update").WithCode("ErrConflictOnUpdate")

	// ErrCorruptedRecord is returned when the body of a stored record
	// cannot be decoded.
	ErrCorruptedRecord = errors.Internal("corrupted record").WithCode("ErrCorruptedRecord")
)

// Collection is the name of a collection of records.
type Collection string

// Below are the collections of the kernel.
const (
	ColDocuments        Collection = "documents"
	ColDocumentsBundles Collection = "documents_bundles"
	ColJournals         Collection = "journals"
)

// Collections returns the collections of records.
func Collections() []Collection {
	return []Collection{ColDocuments, ColDocumentsBundles, ColJournals}
}

// Database represents a persistence driver.
type Database interface {
	// Close all resources of this database.
	Close() error

	// InsertRecord stores a new record. Its revision is set to the first
	// revision.
	InsertRecord(ctx context.Context, col Collection, record *Record) error

	// FindRecord returns the record of the given id.
	FindRecord(ctx context.Context, col Collection, id string) (*Record, error)

	// ReplaceRecord replaces the stored record if it is still at the given
	// revision. The revision of the record is advanced.
	ReplaceRecord(ctx context.Context, col Collection, record *Record, revision int64) error

	// AppendChange appends an entry to the change log.
	AppendChange(ctx context.Context, info *ChangeInfo) error

	// FindChanges returns the entries of the change log after the entry
	// carrying the given timestamp, at most limit of them. An empty since
	// starts from the first entry and an unknown one yields nothing.
	FindChanges(ctx context.Context, since string, limit int) ([]*ChangeInfo, error)

	// FindChangeInfo returns the change log entry of the given id.
	FindChangeInfo(ctx context.Context, id string) (*ChangeInfo, error)
}

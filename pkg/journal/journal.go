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

// Package journal provides the Journal aggregate: the ordered issues of a
// journal, its ahead-of-print bundle and its descriptive metadata.
package journal

import (
	"fmt"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/internal/refs"
	"github.com/scieloorg/kernel/pkg/clock"
	"github.com/scieloorg/kernel/pkg/metadata"
)

var (
	// ErrIssueIsAheadOfPrint is returned when an issue being added is the
	// ahead-of-print bundle of the journal.
	ErrIssueIsAheadOfPrint = fmt.Errorf("issue is the ahead of print bundle: %w", types.ErrAlreadyExists)

	// ErrAheadOfPrintIsIssue is returned when the ahead-of-print bundle being
	// set is already an issue of the journal.
	ErrAheadOfPrintIsIssue = fmt.Errorf("ahead of print bundle is an issue: %w", types.ErrAlreadyExists)

	// ErrAheadOfPrintAlreadySet is returned when setting the ahead-of-print
	// bundle the journal already points to.
	ErrAheadOfPrintAlreadySet = fmt.Errorf("ahead of print bundle already set: %w", types.ErrAlreadyExists)
)

// Schema is the metadata accepted by journals.
var Schema = metadata.Schema{
	"title":                       metadata.AsString,
	"title_iso":                   metadata.AsString,
	"short_title":                 metadata.AsString,
	"acronym":                     metadata.AsString,
	"scielo_issn":                 metadata.AsString,
	"print_issn":                  metadata.AsString,
	"electronic_issn":             metadata.AsString,
	"status":                      metadata.AsRecord,
	"subject_areas":               metadata.AsStrings,
	"sponsors":                    metadata.AsRecords,
	"subject_categories":          metadata.AsStrings,
	"institution_responsible_for": metadata.AsRecords,
	"online_submission_url":       metadata.AsString,
	"logo_url":                    metadata.AsString,
	"previous_journal":            metadata.AsRecord,
	"next_journal":                metadata.AsRecord,
	"contact":                     metadata.AsRecord,
	"mission":                     metadata.AsLanguageValues,
}

// Manifest is the serializable state of a journal.
type Manifest struct {
	ID       string            `json:"id" bson:"id"`
	Created  string            `json:"created" bson:"created"`
	Updated  string            `json:"updated" bson:"updated"`
	Issues   []string          `json:"issues" bson:"issues"`
	AOP      string            `json:"aop" bson:"aop"`
	Metadata metadata.Metadata `json:"metadata" bson:"metadata"`
}

// DeepCopy returns a copy of this manifest.
func (m Manifest) DeepCopy() Manifest {
	return Manifest{
		ID:       m.ID,
		Created:  m.Created,
		Updated:  m.Updated,
		Issues:   refs.Clone(m.Issues),
		AOP:      m.AOP,
		Metadata: m.Metadata.DeepCopy(),
	}
}

// Journal is the aggregate of a journal.
type Journal struct {
	manifest Manifest
	clock    clock.Clock
	revision int64
}

// New creates a new journal without issues.
func New(id string, clk clock.Clock) *Journal {
	now := clock.Now(clk)
	return &Journal{
		manifest: Manifest{
			ID:       id,
			Created:  now,
			Updated:  now,
			Issues:   []string{},
			Metadata: metadata.Metadata{},
		},
		clock: clk,
	}
}

// FromManifest restores a journal from its manifest.
func FromManifest(m Manifest, clk clock.Clock) *Journal {
	return &Journal{
		manifest: m.DeepCopy(),
		clock:    clk,
	}
}

// ID returns the id of this journal.
func (j *Journal) ID() string {
	return j.manifest.ID
}

// Revision returns the stored revision this journal was read at.
func (j *Journal) Revision() int64 {
	return j.revision
}

// SetRevision sets the stored revision of this journal.
func (j *Journal) SetRevision(revision int64) {
	j.revision = revision
}

// Manifest returns a copy of the state of this journal.
func (j *Journal) Manifest() Manifest {
	return j.manifest.DeepCopy()
}

// Issues returns the ids of the issues of this journal in order.
func (j *Journal) Issues() []string {
	return refs.Clone(j.manifest.Issues)
}

// AheadOfPrint returns the id of the ahead-of-print bundle, or "" if unset.
func (j *Journal) AheadOfPrint() string {
	return j.manifest.AOP
}

func (j *Journal) checkNewIssue(id string) error {
	if refs.Contains(j.manifest.Issues, id) {
		return types.ErrAlreadyExists
	}
	if j.manifest.AOP != "" && j.manifest.AOP == id {
		return ErrIssueIsAheadOfPrint
	}
	return nil
}

// AddIssue appends an issue to this journal.
func (j *Journal) AddIssue(id string) error {
	if err := j.checkNewIssue(id); err != nil {
		return fmt.Errorf("cannot add issue %q to journal %s: %w", id, j.ID(), err)
	}

	j.manifest.Issues = append(j.manifest.Issues, id)
	j.touch()
	return nil
}

// InsertIssue inserts an issue before the given index.
func (j *Journal) InsertIssue(index int, id string) error {
	if err := j.checkNewIssue(id); err != nil {
		return fmt.Errorf("cannot insert issue %q in journal %s: %w", id, j.ID(), err)
	}

	j.manifest.Issues = refs.Insert(j.manifest.Issues, index, id)
	j.touch()
	return nil
}

// RemoveIssue removes an issue from this journal.
func (j *Journal) RemoveIssue(id string) error {
	issues, ok := refs.Remove(j.manifest.Issues, id)
	if !ok {
		return fmt.Errorf("cannot remove issue %q from journal %s: %w", id, j.ID(), types.ErrDoesNotExist)
	}

	j.manifest.Issues = issues
	j.touch()
	return nil
}

// UpdateIssues replaces the issues of this journal. The journal is left
// untouched if the given ids hold a duplicate or the ahead-of-print bundle.
func (j *Journal) UpdateIssues(ids []string) error {
	if dup, ok := refs.Duplicate(ids); ok {
		return fmt.Errorf("cannot update issues of journal %s with duplicate %q: %w", j.ID(), dup, types.ErrAlreadyExists)
	}
	if j.manifest.AOP != "" && refs.Contains(ids, j.manifest.AOP) {
		return fmt.Errorf("cannot update issues of journal %s: %w", j.ID(), ErrIssueIsAheadOfPrint)
	}

	j.manifest.Issues = refs.Clone(ids)
	j.touch()
	return nil
}

// SetAheadOfPrint sets the ahead-of-print bundle of this journal.
func (j *Journal) SetAheadOfPrint(id string) error {
	if j.manifest.AOP == id {
		return fmt.Errorf("cannot set %q as ahead of print of journal %s: %w", id, j.ID(), ErrAheadOfPrintAlreadySet)
	}
	if refs.Contains(j.manifest.Issues, id) {
		return fmt.Errorf("cannot set %q as ahead of print of journal %s: %w", id, j.ID(), ErrAheadOfPrintIsIssue)
	}

	j.manifest.AOP = id
	j.touch()
	return nil
}

// RemoveAheadOfPrint clears the ahead-of-print bundle of this journal.
func (j *Journal) RemoveAheadOfPrint() error {
	if j.manifest.AOP == "" {
		return fmt.Errorf("cannot remove ahead of print of journal %s: %w", j.ID(), types.ErrDoesNotExist)
	}

	j.manifest.AOP = ""
	j.touch()
	return nil
}

// Metadata returns a copy of the metadata of this journal.
func (j *Journal) Metadata() metadata.Metadata {
	return j.manifest.Metadata.DeepCopy()
}

// SetMetadata sets the value of a metadata key. Keys outside of Schema are
// ignored and false is returned.
func (j *Journal) SetMetadata(key string, value metadata.Value) (bool, error) {
	if j.manifest.Metadata == nil {
		j.manifest.Metadata = metadata.Metadata{}
	}

	applied, err := Schema.Apply(j.manifest.Metadata, key, value)
	if err != nil {
		return false, err
	}
	if applied {
		j.touch()
	}
	return applied, nil
}

func (j *Journal) touch() {
	j.manifest.Updated = clock.Now(j.clock)
}

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

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/pkg/journal"
	"github.com/scieloorg/kernel/pkg/metadata"
	"github.com/scieloorg/kernel/server/backend/sync"
	"github.com/scieloorg/kernel/server/session"
)

func journalKey(id string) sync.Key {
	return sync.NewKey(string(types.EntityJournal), id)
}

// CreateJournal creates a journal. It fails with AlreadyExists if the id is
// taken.
func (h *Handlers) CreateJournal(ctx context.Context, id string, values map[string]metadata.Value) error {
	if err := types.ValidateIDs(id); err != nil {
		return err
	}

	return h.execute(ctx, "CreateJournal", journalKey(id), func(
		ctx context.Context,
		s *session.Session,
	) (events.Type, session.Payload, error) {
		j := journal.New(id, s.Clock)
		if err := applyMetadata(j, values); err != nil {
			return "", nil, err
		}
		if err := s.Journals.Add(ctx, j); err != nil {
			return "", nil, err
		}

		return events.JournalCreated, session.Payload{
			"id":               id,
			"metadata":         values,
			session.JournalKey: j.Manifest(),
		}, nil
	})
}

// FetchJournal returns the manifest of a journal.
func (h *Handlers) FetchJournal(ctx context.Context, id string) (journal.Manifest, error) {
	return query(ctx, h, "FetchJournal", func(ctx context.Context, s *session.Session) (journal.Manifest, error) {
		j, err := s.Journals.Fetch(ctx, id)
		if err != nil {
			return journal.Manifest{}, err
		}
		return j.Manifest(), nil
	})
}

// updateJournal fetches the journal, applies fn and stores the result. The
// notified payload holds the given arguments and the committed journal.
func (h *Handlers) updateJournal(
	ctx context.Context,
	name, id string,
	event events.Type,
	payload session.Payload,
	fn func(j *journal.Journal) error,
) error {
	if err := types.ValidateIDs(id); err != nil {
		return err
	}
	payload["id"] = id

	return h.execute(ctx, name, journalKey(id), func(
		ctx context.Context,
		s *session.Session,
	) (events.Type, session.Payload, error) {
		j, err := s.Journals.Fetch(ctx, id)
		if err != nil {
			return "", nil, err
		}
		if err := fn(j); err != nil {
			return "", nil, err
		}
		if err := s.Journals.Update(ctx, j); err != nil {
			return "", nil, err
		}
		return event, payload.With(session.JournalKey, j.Manifest()), nil
	})
}

// UpdateJournalMetadata sets the given metadata of a journal.
func (h *Handlers) UpdateJournalMetadata(ctx context.Context, id string, values map[string]metadata.Value) error {
	return h.updateJournal(
		ctx,
		"UpdateJournalMetadata",
		id,
		events.JournalMetadataUpdated,
		session.Payload{"metadata": values},
		func(j *journal.Journal) error {
			return applyMetadata(j, values)
		},
	)
}

// AddIssueToJournal appends an issue to a journal.
func (h *Handlers) AddIssueToJournal(ctx context.Context, id, issue string) error {
	if err := types.ValidateIDs(issue); err != nil {
		return err
	}

	return h.updateJournal(
		ctx,
		"AddIssueToJournal",
		id,
		events.IssueAddedToJournal,
		session.Payload{"issue": issue},
		func(j *journal.Journal) error {
			return j.AddIssue(issue)
		},
	)
}

// InsertIssueToJournal inserts an issue before the given index of a
// journal.
func (h *Handlers) InsertIssueToJournal(ctx context.Context, id string, index int, issue string) error {
	if err := types.ValidateIDs(issue); err != nil {
		return err
	}

	return h.updateJournal(
		ctx,
		"InsertIssueToJournal",
		id,
		events.IssueInsertedToJournal,
		session.Payload{"index": index, "issue": issue},
		func(j *journal.Journal) error {
			return j.InsertIssue(index, issue)
		},
	)
}

// RemoveIssueFromJournal removes an issue from a journal.
func (h *Handlers) RemoveIssueFromJournal(ctx context.Context, id, issue string) error {
	return h.updateJournal(
		ctx,
		"RemoveIssueFromJournal",
		id,
		events.IssueRemovedFromJournal,
		session.Payload{"issue": issue},
		func(j *journal.Journal) error {
			return j.RemoveIssue(issue)
		},
	)
}

// UpdateIssuesInJournal replaces the issues of a journal.
func (h *Handlers) UpdateIssuesInJournal(ctx context.Context, id string, issues []string) error {
	if err := types.ValidateIDs(issues...); err != nil {
		return err
	}

	return h.updateJournal(
		ctx,
		"UpdateIssuesInJournal",
		id,
		events.IssuesUpdatedInJournal,
		session.Payload{"issues": issues},
		func(j *journal.Journal) error {
			return j.UpdateIssues(issues)
		},
	)
}

// SetAheadOfPrintBundleInJournal sets the ahead-of-print bundle of a
// journal.
func (h *Handlers) SetAheadOfPrintBundleInJournal(ctx context.Context, id, aop string) error {
	if err := types.ValidateIDs(aop); err != nil {
		return err
	}

	return h.updateJournal(
		ctx,
		"SetAheadOfPrintBundleInJournal",
		id,
		events.AheadOfPrintBundleSet,
		session.Payload{"aop": aop},
		func(j *journal.Journal) error {
			return j.SetAheadOfPrint(aop)
		},
	)
}

// RemoveAheadOfPrintBundleFromJournal clears the ahead-of-print bundle of a
// journal.
func (h *Handlers) RemoveAheadOfPrintBundleFromJournal(ctx context.Context, id string) error {
	return h.updateJournal(
		ctx,
		"RemoveAheadOfPrintBundleFromJournal",
		id,
		events.AheadOfPrintBundleRemoved,
		session.Payload{},
		func(j *journal.Journal) error {
			return j.RemoveAheadOfPrint()
		},
	)
}

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

// Package events defines the events notified after a command committed its
// changes.
package events

// Type represents the type of an event.
type Type string

// Below are the events of documents.
const (
	// DocumentRegistered occurs when a document is registered.
	DocumentRegistered Type = "DOCUMENT_REGISTERED"

	// DocumentVersionRegistered occurs when a new version of a document is
	// registered.
	DocumentVersionRegistered Type = "DOCUMENT_VERSION_REGISTERED"

	// AssetVersionRegistered occurs when a new version of an asset is
	// registered.
	AssetVersionRegistered Type = "ASSET_VERSION_REGISTERED"

	// DocumentRenditionRegistered occurs when a new rendition is registered.
	DocumentRenditionRegistered Type = "DOCUMENT_RENDITION_REGISTERED"

	// DocumentDeleted occurs when a document is tombstoned.
	DocumentDeleted Type = "DOCUMENT_DELETED"
)

// Below are the events of documents bundles.
const (
	DocumentsBundleCreated            Type = "DOCUMENTSBUNDLE_CREATED"
	DocumentsBundleMetadataUpdated    Type = "DOCUMENTSBUNDLE_METADATA_UPDATED"
	DocumentAddedToDocumentsBundle    Type = "DOCUMENT_ADDED_TO_DOCUMENTSBUNDLE"
	DocumentInsertedToDocumentsBundle Type = "DOCUMENT_INSERTED_TO_DOCUMENTSBUNDLE"
	DocumentsUpdatedInDocumentsBundle Type = "DOCUMENTS_UPDATED_IN_DOCUMENTSBUNDLE"
)

// Below are the events of journals.
const (
	JournalCreated            Type = "JOURNAL_CREATED"
	JournalMetadataUpdated    Type = "JOURNAL_METADATA_UPDATED"
	IssueAddedToJournal       Type = "ISSUE_ADDED_TO_JOURNAL"
	IssueInsertedToJournal    Type = "ISSUE_INSERTED_TO_JOURNAL"
	IssueRemovedFromJournal   Type = "ISSUE_REMOVED_FROM_JOURNAL"
	IssuesUpdatedInJournal    Type = "ISSUES_UPDATED_IN_JOURNAL"
	AheadOfPrintBundleSet     Type = "AHEAD_OF_PRINT_BUNDLE_SET"
	AheadOfPrintBundleRemoved Type = "AHEAD_OF_PRINT_BUNDLE_REMOVED"
)

// All returns every event type in a stable order.
func All() []Type {
	return []Type{
		DocumentRegistered,
		DocumentVersionRegistered,
		AssetVersionRegistered,
		DocumentRenditionRegistered,
		DocumentDeleted,
		DocumentsBundleCreated,
		DocumentsBundleMetadataUpdated,
		DocumentAddedToDocumentsBundle,
		DocumentInsertedToDocumentsBundle,
		DocumentsUpdatedInDocumentsBundle,
		JournalCreated,
		JournalMetadataUpdated,
		IssueAddedToJournal,
		IssueInsertedToJournal,
		IssueRemovedFromJournal,
		IssuesUpdatedInJournal,
		AheadOfPrintBundleSet,
		AheadOfPrintBundleRemoved,
	}
}

// String returns the string representation of this type.
func (t Type) String() string {
	return string(t)
}

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

package types

import "fmt"

// EntityKind is the kind of aggregate a change refers to. Its value is the
// path segment under which the aggregate is served.
type EntityKind string

const (
	// EntityDocument is the kind of documents.
	EntityDocument EntityKind = "documents"

	// EntityBundle is the kind of documents bundles.
	EntityBundle EntityKind = "bundles"

	// EntityJournal is the kind of journals.
	EntityJournal EntityKind = "journals"
)

// Path returns the path of the entity with the given id.
func (k EntityKind) Path(id string) string {
	return fmt.Sprintf("/%s/%s", k, id)
}

// Change is an entry of the change feed.
type Change struct {
	// ID is the path of the changed entity, e.g. "/documents/<id>".
	ID string `json:"id"`

	// Timestamp is the time of the change.
	Timestamp string `json:"timestamp"`

	// Deleted is true if the change tombstoned the entity.
	Deleted bool `json:"deleted,omitempty"`
}

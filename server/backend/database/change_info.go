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

package database

import (
	"github.com/scieloorg/kernel/api/types"
)

// ChangeInfo is an entry of the change log.
type ChangeInfo struct {
	ID        string           `bson:"_id"`
	Entity    types.EntityKind `bson:"entity"`
	EntityID  string           `bson:"entity_id"`
	Timestamp string           `bson:"timestamp"`
	Deleted   bool             `bson:"deleted"`

	// Seq orders entries sharing a timestamp by insertion. Drivers that
	// order by their own ids may leave it unset.
	Seq int64 `bson:"seq,omitempty"`
}

// ToChange returns the feed form of this entry.
func (i *ChangeInfo) ToChange() types.Change {
	return types.Change{
		ID:        i.Entity.Path(i.EntityID),
		Timestamp: i.Timestamp,
		Deleted:   i.Deleted,
	}
}

// DeepCopy returns a copy of this entry.
func (i *ChangeInfo) DeepCopy() *ChangeInfo {
	if i == nil {
		return nil
	}

	clone := *i
	return &clone
}

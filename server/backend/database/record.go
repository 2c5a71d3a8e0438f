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

// InitialRevision is the revision of a newly inserted record.
const InitialRevision int64 = 1

// Record is the stored form of an aggregate: its id, its revision and its
// encoded body.
type Record struct {
	ID       string `bson:"_id"`
	Revision int64  `bson:"revision"`
	Body     []byte `bson:"body"`
}

// DeepCopy returns a copy of this record.
func (r *Record) DeepCopy() *Record {
	if r == nil {
		return nil
	}

	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &Record{
		ID:       r.ID,
		Revision: r.Revision,
		Body:     body,
	}
}

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

// Package types provides the types shared by the kernel's packages: ids,
// failure kinds and the shape of the change feed.
package types

import (
	"fmt"
)

// ID represents the id of an entity. It is unique within its entity kind.
type ID string

// String returns a string representation of this ID.
func (id ID) String() string {
	return string(id)
}

// Validate returns an error if this ID is empty or carries characters
// outside of printable ASCII.
func (id ID) Validate() error {
	if len(id) == 0 {
		return fmt.Errorf("empty id: %w", ErrInvalidArgument)
	}

	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return fmt.Errorf("%q has a non-printable character: %w", string(id), ErrInvalidArgument)
		}
	}

	return nil
}

// ValidateIDs validates each of the given ids.
func ValidateIDs(ids ...string) error {
	for _, id := range ids {
		if err := ID(id).Validate(); err != nil {
			return err
		}
	}

	return nil
}

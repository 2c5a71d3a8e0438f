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

package document

import (
	"fmt"

	"github.com/scieloorg/kernel/api/types"
)

// Below are the failures specific to documents.
var (
	// ErrDocumentDeleted is returned when reading or changing a tombstoned
	// document.
	ErrDocumentDeleted = fmt.Errorf("document is deleted: %w", types.ErrDoesNotExist)

	// ErrDocumentAlreadyDeleted is returned when deleting a tombstoned
	// document. It is a kind of ErrVersionAlreadySet.
	ErrDocumentAlreadyDeleted = fmt.Errorf("document is already deleted: %w", types.ErrVersionAlreadySet)

	// ErrAssetNotDeclared is returned when registering a version of an asset
	// the latest version of the document does not declare.
	ErrAssetNotDeclared = fmt.Errorf("asset is not declared: %w", types.ErrDoesNotExist)

	// ErrNoVersions is returned when the document has no version yet.
	ErrNoVersions = fmt.Errorf("document has no versions: %w", types.ErrDoesNotExist)
)

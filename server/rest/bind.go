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

package rest

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/internal/validation"
	"github.com/scieloorg/kernel/pkg/metadata"
)

// bindJSON decodes the body of the request into req and validates it.
func bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("decode body: %s: %w", err.Error(), types.ErrInvalidArgument)
	}
	return validation.ValidateStruct(req)
}

// bindJSONList decodes a body holding a list and validates every item.
func bindJSONList[T any](c *gin.Context) ([]T, error) {
	var items []T
	if err := c.ShouldBindJSON(&items); err != nil {
		return nil, fmt.Errorf("decode body: %s: %w", err.Error(), types.ErrInvalidArgument)
	}
	for i := range items {
		if err := validation.ValidateStruct(&items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return items, nil
}

// bindMetadata decodes a body of metadata. An empty body carries no
// metadata.
func bindMetadata(c *gin.Context) (map[string]metadata.Value, error) {
	fields := map[string]interface{}{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&fields); err != nil {
			return nil, fmt.Errorf("decode body: %s: %w", err.Error(), types.ErrInvalidArgument)
		}
	}

	values, err := metadata.FromMap(fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), types.ErrInvalidArgument)
	}
	return values, nil
}

// reference is the id of an entity given either as a string or as an
// object with an id, e.g. {"id": "...", "year": "2019"}.
type reference string

// UnmarshalJSON accepts both forms of a reference.
func (r *reference) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = reference(id)
		return nil
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("reference must be a string or an object with an id: %w", err)
	}
	*r = reference(obj.ID)
	return nil
}

// referenceItem is an item of a list of references.
type referenceItem struct {
	ID reference `json:"id" validate:"required"`
}

// UnmarshalJSON accepts an item given as a bare reference too.
func (i *referenceItem) UnmarshalJSON(data []byte) error {
	return i.ID.UnmarshalJSON(data)
}

func idsOf(items []referenceItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, string(item.ID))
	}
	return ids
}

// slugify returns the form of an asset id used in paths: lower case ASCII
// letters and digits separated by single dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

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

package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/internal/validation"
)

func TestValidation(t *testing.T) {
	t.Run("ValidateValue test", func(t *testing.T) {
		assert.NoError(t, validation.ValidateValue("S0034-89102014000200347", "required,id"))

		err := validation.ValidateValue("with space", "required,id")
		assert.Equal(t, "id", err.(validation.Violation).Tag)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)

		assert.NoError(t, validation.ValidateValue("2018-08-05", "timestamp"))
		assert.NoError(t, validation.ValidateValue("2018-08-05T23:03:44.971230Z", "timestamp"))
		err = validation.ValidateValue("yesterday", "timestamp")
		assert.Equal(t, "timestamp", err.(validation.Violation).Tag)

		assert.NoError(t, validation.ValidateValue("application/pdf", "mimetype"))
		err = validation.ValidateValue("pdf", "mimetype")
		assert.Equal(t, "mimetype", err.(validation.Violation).Tag)
	})

	t.Run("ValidateStruct test", func(t *testing.T) {
		type rendition struct {
			Filename  string `json:"filename" validate:"required"`
			MimeType  string `json:"mimetype" validate:"required,mimetype"`
			SizeBytes int64  `json:"size_bytes" validate:"gte=0"`
		}

		assert.NoError(t, validation.ValidateStruct(rendition{
			Filename: "0034-8910-rsp-48-2-0275.pdf",
			MimeType: "application/pdf",
		}))

		err := validation.ValidateStruct(rendition{MimeType: "pdf", SizeBytes: -1})
		structError := &validation.StructError{}
		assert.True(t, errors.As(err, &structError))
		assert.Len(t, structError.Violations, 3)
		assert.Equal(t, "filename", structError.Violations[0].Field)
		assert.Contains(t, err.Error(), "filename")
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("custom rule test", func(t *testing.T) {
		assert.NoError(t, validation.RegisterValidation("lang", func(v validation.FieldLevel) bool {
			return len(v.Field().String()) == 2
		}))
		assert.NoError(t, validation.RegisterTranslation("lang", "{0} must be a two letter code"))

		err := validation.ValidateValue("english", "required,lang")
		assert.Equal(t, "lang", err.(validation.Violation).Tag)
		assert.Contains(t, err.Error(), "two letter code")
	})
}

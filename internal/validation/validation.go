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

// Package validation provides the validation of the bodies and parameters the
// kernel receives.
package validation

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/pkg/clock"
)

// mimetypeRegex accepts type/subtype pairs such as application/pdf.
var mimetypeRegex = regexp.MustCompile(`^[a-z]+/[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*$`)

var (
	defaultValidator = validator.New()
	defaultEn        = en.New()
	uni              = ut.New(defaultEn, defaultEn)
	trans, _         = uni.GetTranslator(defaultEn.Locale())
)

// FieldLevel is the field level interface.
type FieldLevel = validator.FieldLevel

// Violation is the error returned by the validation.
type Violation struct {
	Tag         string
	Field       string
	Err         error
	Description string
}

// Error returns the error message.
func (e Violation) Error() string {
	return e.Description
}

// Unwrap reports a violation as an invalid argument.
func (e Violation) Unwrap() error {
	return types.ErrInvalidArgument
}

// StructError is the error returned by the validation of struct.
type StructError struct {
	Violations []Violation
}

// Error returns the error message.
func (s *StructError) Error() string {
	descriptions := make([]string, 0, len(s.Violations))
	for _, v := range s.Violations {
		descriptions = append(descriptions, v.Description)
	}

	return strings.Join(descriptions, "; ")
}

// Unwrap reports a struct violation as an invalid argument.
func (s *StructError) Unwrap() error {
	return types.ErrInvalidArgument
}

// RegisterValidation registers a custom validation with the given tag.
func RegisterValidation(tag string, fn validator.Func) error {
	if err := defaultValidator.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("register validation: %w", err)
	}
	return nil
}

// RegisterTranslation registers the message reported for the given tag.
func RegisterTranslation(tag, msg string) error {
	if err := defaultValidator.RegisterTranslation(
		tag,
		trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	); err != nil {
		return fmt.Errorf("register translation: %w", err)
	}
	return nil
}

// ValidateValue validates the value with the tag.
func ValidateValue(v interface{}, tag string) error {
	if err := defaultValidator.Var(v, tag); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok || len(errs) == 0 {
			return fmt.Errorf("validate value: %w", err)
		}

		return Violation{
			Tag:         errs[0].Tag(),
			Err:         errs[0],
			Description: errs[0].Translate(trans),
		}
	}
	return nil
}

// ValidateStruct validates the given struct by its `validate` tags.
func ValidateStruct(s interface{}) error {
	if err := defaultValidator.Struct(s); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validate struct: %w", err)
		}

		structError := &StructError{}
		for _, e := range errs {
			structError.Violations = append(structError.Violations, Violation{
				Tag:         e.Tag(),
				Field:       e.Field(),
				Err:         e,
				Description: e.Translate(trans),
			})
		}
		return structError
	}

	return nil
}

// jsonName names fields by their json key in violations.
func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func mustRegister(tag, msg string, fn validator.Func) {
	if err := RegisterValidation(tag, fn); err != nil {
		fmt.Fprintf(os.Stderr, "validation %s: %v\n", tag, err)
		os.Exit(1)
	}
	if err := RegisterTranslation(tag, msg); err != nil {
		fmt.Fprintf(os.Stderr, "validation %s: %v\n", tag, err)
		os.Exit(1)
	}
}

func init() {
	defaultValidator.RegisterTagNameFunc(jsonName)

	if err := entranslations.RegisterDefaultTranslations(defaultValidator, trans); err != nil {
		fmt.Fprintf(os.Stderr, "validation register default translations: %v\n", err)
		os.Exit(1)
	}

	mustRegister("id", "{0} must be non-empty printable ASCII", func(level validator.FieldLevel) bool {
		return types.ID(level.Field().String()).Validate() == nil
	})

	mustRegister("timestamp", "{0} must be a date or a UTC timestamp", func(level validator.FieldLevel) bool {
		_, err := clock.Parse(level.Field().String())
		return err == nil
	})

	mustRegister("mimetype", "{0} must be a media type such as application/pdf", func(level validator.FieldLevel) bool {
		return mimetypeRegex.MatchString(level.Field().String())
	})
}

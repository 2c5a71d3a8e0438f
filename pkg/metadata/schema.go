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

package metadata

import (
	"fmt"
	"strconv"

	"github.com/scieloorg/kernel/api/types"
)

// Field coerces a value given for a metadata key into the shape stored for
// that key.
type Field func(Value) (Value, error)

// Schema maps the metadata keys accepted by an aggregate to their fields.
type Schema map[string]Field

// Apply coerces the value and stores it under the key. Keys outside of the
// schema are ignored and Apply returns false.
func (s Schema) Apply(m Metadata, key string, value Value) (bool, error) {
	field, ok := s[key]
	if !ok {
		return false, nil
	}

	coerced, err := field(value)
	if err != nil {
		return false, fmt.Errorf("metadata %q: %w", key, err)
	}

	m[key] = coerced
	return true, nil
}

// Keys returns the keys of this schema.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, types.ErrInvalidArgument)...)
}

// AsString accepts a string, or a number which is converted to its shortest
// decimal form, e.g. 2018 becomes "2018".
func AsString(v Value) (Value, error) {
	switch v.Kind() {
	case KindString:
		return v, nil
	case KindNumber:
		return String(strconv.FormatFloat(v.Num(), 'f', -1, 64)), nil
	default:
		return Value{}, invalid("expected a string, got a %s", v.Kind())
	}
}

// AsStrings accepts a list of strings.
func AsStrings(v Value) (Value, error) {
	if v.Kind() != KindList {
		return Value{}, invalid("expected a list, got a %s", v.Kind())
	}

	for i, item := range v.Items() {
		if item.Kind() != KindString {
			return Value{}, invalid("item %d: expected a string, got a %s", i, item.Kind())
		}
	}
	return v, nil
}

// AsRecord accepts any record.
func AsRecord(v Value) (Value, error) {
	if v.Kind() != KindRecord {
		return Value{}, invalid("expected a record, got a %s", v.Kind())
	}
	return v, nil
}

// AsRecords accepts a list of records.
func AsRecords(v Value) (Value, error) {
	if v.Kind() != KindList {
		return Value{}, invalid("expected a list, got a %s", v.Kind())
	}

	for i, item := range v.Items() {
		if item.Kind() != KindRecord {
			return Value{}, invalid("item %d: expected a record, got a %s", i, item.Kind())
		}
	}
	return v, nil
}

// AsLanguageValues accepts a list of {language, value} records, the shape of
// titles and missions.
func AsLanguageValues(v Value) (Value, error) {
	if _, err := AsRecords(v); err != nil {
		return Value{}, err
	}

	for i, item := range v.Items() {
		for _, name := range []string{"language", "value"} {
			field, ok := item.Field(name)
			if !ok || field.Kind() != KindString {
				return Value{}, invalid("item %d: %q must be a string", i, name)
			}
		}
	}
	return v, nil
}

// AsPublicationMonths accepts a record carrying either a "month" number or a
// "range" of two numbers, never both.
func AsPublicationMonths(v Value) (Value, error) {
	if v.Kind() != KindRecord {
		return Value{}, invalid("expected a record, got a %s", v.Kind())
	}

	month, hasMonth := v.Field("month")
	rng, hasRange := v.Field("range")
	switch {
	case hasMonth && hasRange:
		return Value{}, invalid("month and range are mutually exclusive")
	case hasMonth:
		if month.Kind() != KindNumber {
			return Value{}, invalid("month must be a number")
		}
		return Record(map[string]Value{"month": month}), nil
	case hasRange:
		if rng.Kind() != KindList || len(rng.Items()) != 2 {
			return Value{}, invalid("range must be a list of two numbers")
		}
		for _, item := range rng.Items() {
			if item.Kind() != KindNumber {
				return Value{}, invalid("range must be a list of two numbers")
			}
		}
		return Record(map[string]Value{"range": rng}), nil
	default:
		return Value{}, invalid("either month or range is required")
	}
}

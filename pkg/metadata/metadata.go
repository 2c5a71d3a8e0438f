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

// Package metadata provides the descriptive metadata of bundles and journals:
// a mapping from a key to a tagged value, and the schemas that decide which
// keys an aggregate accepts and how their values are coerced.
package metadata

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/scieloorg/kernel/api/types"
)

// Kind is the tag of a Value.
type Kind int

// Below are the kinds of Value.
const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindList
	KindRecord
)

// String returns the string representation of this kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "invalid"
	}
}

// Value is a tagged metadata value. It is a string, a number, a list of
// values or a record of named values.
type Value struct {
	kind   Kind
	str    string
	num    float64
	list   []Value
	record map[string]Value
}

// String creates a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number creates a number value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// List creates a list value.
func List(values ...Value) Value {
	list := make([]Value, len(values))
	copy(list, values)
	return Value{kind: KindList, list: list}
}

// Strings creates a list value of strings.
func Strings(values ...string) Value {
	list := make([]Value, 0, len(values))
	for _, s := range values {
		list = append(list, String(s))
	}
	return Value{kind: KindList, list: list}
}

// Record creates a record value.
func Record(fields map[string]Value) Value {
	record := make(map[string]Value, len(fields))
	for k, v := range fields {
		record[k] = v
	}
	return Value{kind: KindRecord, record: record}
}

// Kind returns the kind of this value.
func (v Value) Kind() Kind {
	return v.kind
}

// Str returns the string of a string value.
func (v Value) Str() string {
	return v.str
}

// Num returns the number of a number value.
func (v Value) Num() float64 {
	return v.num
}

// Items returns the elements of a list value.
func (v Value) Items() []Value {
	return v.list
}

// Field returns the named field of a record value.
func (v Value) Field(name string) (Value, bool) {
	field, ok := v.record[name]
	return field, ok
}

// FieldNames returns the sorted field names of a record value.
func (v Value) FieldNames() []string {
	names := make([]string, 0, len(v.record))
	for name := range v.record {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Interface returns the plain Go representation of this value: a string, a
// float64, a []interface{} or a map[string]interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindList:
		list := make([]interface{}, 0, len(v.list))
		for _, item := range v.list {
			list = append(list, item.Interface())
		}
		return list
	case KindRecord:
		record := make(map[string]interface{}, len(v.record))
		for k, item := range v.record {
			record[k] = item.Interface()
		}
		return record
	default:
		return nil
	}
}

// FromInterface converts a decoded JSON or BSON value into a Value.
func FromInterface(x interface{}) (Value, error) {
	switch x := x.(type) {
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("number %q: %w", x.String(), types.ErrInvalidArgument)
		}
		return Number(n), nil
	case []string:
		return Strings(x...), nil
	case []interface{}:
		return listFrom(x)
	case primitive.A:
		return listFrom(x)
	case map[string]interface{}:
		return recordFrom(x)
	case primitive.M:
		return recordFrom(x)
	case primitive.D:
		return recordFrom(x.Map())
	default:
		return Value{}, fmt.Errorf("unsupported metadata value %v (%T): %w", x, x, types.ErrInvalidArgument)
	}
}

func listFrom(items []interface{}) (Value, error) {
	list := make([]Value, 0, len(items))
	for _, item := range items {
		value, err := FromInterface(item)
		if err != nil {
			return Value{}, err
		}
		list = append(list, value)
	}
	return Value{kind: KindList, list: list}, nil
}

func recordFrom(fields map[string]interface{}) (Value, error) {
	record := make(map[string]Value, len(fields))
	for k, item := range fields {
		value, err := FromInterface(item)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", k, err)
		}
		record[k] = value
	}
	return Value{kind: KindRecord, record: record}, nil
}

// MarshalJSON encodes this value as its plain JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes the plain JSON form of a value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var x interface{}
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}

	value, err := FromInterface(x)
	if err != nil {
		return err
	}
	*v = value
	return nil
}

// MarshalBSONValue encodes this value as its plain BSON form.
func (v Value) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(v.Interface())
}

// UnmarshalBSONValue decodes the plain BSON form of a value.
func (v *Value) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var x interface{}
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&x); err != nil {
		return fmt.Errorf("unmarshal metadata value: %w", err)
	}

	value, err := FromInterface(x)
	if err != nil {
		return err
	}
	*v = value
	return nil
}

// Metadata is the descriptive metadata of an aggregate.
type Metadata map[string]Value

// DeepCopy returns a copy of this metadata.
func (m Metadata) DeepCopy() Metadata {
	clone := make(Metadata, len(m))
	for k, v := range m {
		clone[k] = v.deepCopy()
	}
	return clone
}

func (v Value) deepCopy() Value {
	switch v.kind {
	case KindList:
		list := make([]Value, 0, len(v.list))
		for _, item := range v.list {
			list = append(list, item.deepCopy())
		}
		return Value{kind: KindList, list: list}
	case KindRecord:
		record := make(map[string]Value, len(v.record))
		for k, item := range v.record {
			record[k] = item.deepCopy()
		}
		return Value{kind: KindRecord, record: record}
	default:
		return v
	}
}

// FromMap converts the decoded body of a request into values. The keys are
// not checked against any schema.
func FromMap(fields map[string]interface{}) (map[string]Value, error) {
	values := make(map[string]Value, len(fields))
	for k, x := range fields {
		value, err := FromInterface(x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		values[k] = value
	}
	return values, nil
}

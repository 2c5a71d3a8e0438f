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

// Package settings resolves the runtime settings of the kernel from the
// environment, the values given by the caller and the defaults.
package settings

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/scieloorg/kernel/api/types"
)

// Kind is the type a setting is coerced to.
type Kind int

// Below are the kinds of settings.
const (
	String Kind = iota
	Int
	Bool
	Duration
)

// String returns the name of this kind.
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Duration:
		return "duration"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Setting describes one setting.
type Setting struct {
	// Key is the dotted name of the setting, e.g. "kernel.app.http.port".
	Key string

	// Env is the environment variable that overrides the setting.
	Env string

	Kind    Kind
	Default interface{}
}

// Values is the resolved settings keyed by Setting.Key.
type Values map[string]interface{}

// Parse resolves the given settings. A value is taken from the environment
// first, then from supplied and finally from the default of the setting.
func Parse(supplied map[string]string, defs []Setting) (Values, error) {
	// keys contain dots, which viper would read as nesting.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))

	for _, def := range defs {
		v.SetDefault(def.Key, def.Default)
		if def.Env == "" {
			continue
		}
		if err := v.BindEnv(def.Key, def.Env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", def.Env, err)
		}
	}

	if len(supplied) > 0 {
		given := make(map[string]interface{}, len(supplied))
		for key, value := range supplied {
			given[key] = value
		}
		if err := v.MergeConfigMap(given); err != nil {
			return nil, fmt.Errorf("merge supplied settings: %w", err)
		}
	}

	values := make(Values, len(defs))
	for _, def := range defs {
		value, err := coerce(def.Kind, v.Get(def.Key))
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", def.Key, err.Error(), types.ErrInvalidArgument)
		}
		values[def.Key] = value
	}

	return values, nil
}

func coerce(kind Kind, value interface{}) (interface{}, error) {
	switch kind {
	case String:
		return cast.ToStringE(value)
	case Int:
		return cast.ToIntE(value)
	case Bool:
		return cast.ToBoolE(value)
	case Duration:
		return cast.ToDurationE(value)
	default:
		return nil, fmt.Errorf("unknown kind %s", kind)
	}
}

// String returns the string value of the given key.
func (v Values) String(key string) string {
	return cast.ToString(v[key])
}

// Int returns the int value of the given key.
func (v Values) Int(key string) int {
	return cast.ToInt(v[key])
}

// Bool returns the bool value of the given key.
func (v Values) Bool(key string) bool {
	return cast.ToBool(v[key])
}

// Duration returns the duration value of the given key.
func (v Values) Duration(key string) time.Duration {
	return cast.ToDuration(v[key])
}

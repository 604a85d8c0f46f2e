/*
 * Copyright 2025 NetNynja Corporation.
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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/netnynja/netnynja/pkg/logger"
)

var (
	errConfigMustBePointer = errors.New("config destination must be a non-nil pointer to a struct")
	errUnsupportedKind     = errors.New("unsupported config field kind")
)

// EnvConfigLoader loads configuration from environment variables. Field
// names are derived from json tags: prefix + uppercased tag, with nested
// structs joined by underscores (e.g. NETNYNJA_DATABASE_HOST).
//
// If CONFIG_JSON names a file, that file is loaded first and environment
// variables override individual fields afterwards.
type EnvConfigLoader struct {
	prefix string
	logger logger.Logger
}

// NewEnvConfigLoader creates an environment-based loader with the given
// variable prefix.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		prefix: prefix,
		logger: log,
	}
}

// Load populates dst from the environment. The path argument is ignored;
// it exists to satisfy ConfigLoader.
func (e *EnvConfigLoader) Load(ctx context.Context, _ string, dst interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("config load canceled: %w", err)
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errConfigMustBePointer
	}

	if jsonPath := os.Getenv("CONFIG_JSON"); jsonPath != "" {
		e.logger.Debug().Str("path", jsonPath).Msg("Loading base configuration from CONFIG_JSON")

		fileLoader := &FileConfigLoader{}
		if err := fileLoader.Load(ctx, jsonPath, dst); err != nil {
			return fmt.Errorf("failed to load CONFIG_JSON base config: %w", err)
		}
	}

	return e.populateStruct(rv.Elem(), e.prefix)
}

func (e *EnvConfigLoader) populateStruct(rv reflect.Value, prefix string) error {
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		if !value.CanSet() {
			continue
		}

		tag := jsonFieldName(field)
		if tag == "-" {
			continue
		}

		envName := buildEnvName(prefix, tag)

		// Pointers to structs are allocated only when one of their
		// fields is present in the environment.
		if value.Kind() == reflect.Ptr && value.Type().Elem().Kind() == reflect.Struct {
			if !hasEnvWithPrefix(envName + "_") {
				continue
			}

			if value.IsNil() {
				value.Set(reflect.New(value.Type().Elem()))
			}

			if err := e.populateStruct(value.Elem(), envName+"_"); err != nil {
				return err
			}

			continue
		}

		if value.Kind() == reflect.Struct && !isDirectlySettable(value.Type()) {
			if err := e.populateStruct(value, envName+"_"); err != nil {
				return err
			}

			continue
		}

		raw, ok := os.LookupEnv(envName)
		if !ok {
			continue
		}

		if err := setFieldValue(value, raw); err != nil {
			return fmt.Errorf("failed to set %s from %s: %w", field.Name, envName, err)
		}
	}

	return nil
}

// jsonFieldName returns the effective json tag for a struct field, falling
// back to the lowercased field name when no tag is present.
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return strings.ToLower(field.Name)
	}

	name := strings.Split(tag, ",")[0]
	if name == "" {
		return strings.ToLower(field.Name)
	}

	return name
}

func buildEnvName(prefix, tag string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(tag, "-", "_"))
}

func hasEnvWithPrefix(prefix string) bool {
	for _, entry := range os.Environ() {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}

	return false
}

// isDirectlySettable reports whether a struct type is parsed from a single
// env value instead of being recursed into (time.Time and json.Unmarshaler
// implementations such as logger.Duration wrappers).
func isDirectlySettable(t reflect.Type) bool {
	if t == reflect.TypeOf(time.Time{}) {
		return true
	}

	unmarshaler := reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

	return t.Implements(unmarshaler) || reflect.PtrTo(t).Implements(unmarshaler)
}

func setFieldValue(value reflect.Value, raw string) error {
	// Types with their own JSON semantics (Duration, time.Time) take the
	// raw value through UnmarshalJSON so "30s" and RFC3339 both work.
	if um, ok := value.Addr().Interface().(json.Unmarshaler); ok && value.Kind() != reflect.String {
		quoted, err := json.Marshal(raw)
		if err != nil {
			return err
		}

		if err := um.UnmarshalJSON(quoted); err == nil {
			return nil
		}
		// Fall through to kind-based parsing for plain numeric values.
	}

	switch value.Kind() {
	case reflect.String:
		value.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}

		value.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if value.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return err
			}

			value.SetInt(int64(d))

			return nil
		}

		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}

		value.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}

		value.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}

		value.SetFloat(f)
	case reflect.Slice:
		return setSliceValue(value, raw)
	case reflect.Map:
		return json.Unmarshal([]byte(raw), value.Addr().Interface())
	default:
		return fmt.Errorf("%w: %s", errUnsupportedKind, value.Kind())
	}

	return nil
}

// setSliceValue parses comma-separated values into string or numeric
// slices; anything else must be provided as JSON.
func setSliceValue(value reflect.Value, raw string) error {
	if strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return json.Unmarshal([]byte(raw), value.Addr().Interface())
	}

	parts := strings.Split(raw, ",")
	slice := reflect.MakeSlice(value.Type(), len(parts), len(parts))

	for i, part := range parts {
		if err := setFieldValue(slice.Index(i), strings.TrimSpace(part)); err != nil {
			return err
		}
	}

	value.Set(slice)

	return nil
}

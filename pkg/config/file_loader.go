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
)

var errNilConfigDestination = errors.New("config destination must not be nil")

// FileConfigLoader loads configuration from a JSON file on disk.
type FileConfigLoader struct{}

// Load reads and unmarshals the JSON file at path into dst.
func (*FileConfigLoader) Load(ctx context.Context, path string, dst interface{}) error {
	if dst == nil {
		return errNilConfigDestination
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("config load canceled: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

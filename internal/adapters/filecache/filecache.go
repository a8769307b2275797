// Package filecache provides JSON cache files for the ingestion
// pipeline. Every write goes through a temp-file-then-rename replace so
// a crashed process never leaves a partially written cache behind.
package filecache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// indent matches the cache format the rest of the tooling expects.
const indent = "    "

// Read decodes the JSON document at path into v.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cache %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode cache %s: %w", path, err)
	}
	return nil
}

// Write encodes v as 4-space indented JSON and atomically replaces the
// document at path, creating parent directories as needed.
func Write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", path, err)
	}
	return WriteRaw(path, data)
}

// WriteRaw atomically replaces the document at path with data.
func WriteRaw(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace cache %s: %w", path, err)
	}
	return nil
}

package project

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// isTOML reports whether a file is read and written as TOML rather than JSON.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// writeFile encodes v by file extension, creating missing parent directories.
func writeFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if isTOML(path) {
		if err := toml.NewEncoder(&buf).Encode(v); err != nil {
			return err
		}
	} else {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// readFile decodes a file into v by extension. Fields missing from the file
// keep the values v already holds.
func readFile(path string, v any) error {
	if isTOML(path) {
		_, err := toml.DecodeFile(path, v)
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

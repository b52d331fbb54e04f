package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// resolveVarsPath expands a leading ~/ and anchors relative paths at the
// config file's directory.
func resolveVarsPath(configDir, file string) string {
	if rest, ok := strings.CutPrefix(file, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(configDir, file)
}

// loadVarsFiles reads the YAML vars files in order. A key set by a later
// file replaces the same key from an earlier one; nested maps are merged.
// Empty files contribute nothing.
func loadVarsFiles(configDir string, files []string) (map[string]any, error) {
	vars := map[string]any{}

	for _, file := range files {
		data, err := os.ReadFile(resolveVarsPath(configDir, file))
		if err != nil {
			return nil, fmt.Errorf("read vars file %q: %w", file, err)
		}

		var fileVars map[string]any
		if err := yaml.Unmarshal(data, &fileVars); err != nil {
			return nil, fmt.Errorf("parse vars file %q: %w", file, err)
		}
		mergeMaps(vars, fileVars)
	}

	return vars, nil
}

// mergeMaps merges src into dst in place. Maps present on both sides merge
// key by key; any other src value replaces what dst held.
func mergeMaps(dst, src map[string]any) {
	for key, val := range src {
		nested, ok := val.(map[string]any)
		existing, dstOK := dst[key].(map[string]any)
		switch {
		case ok && dstOK:
			mergeMaps(existing, nested)
		default:
			dst[key] = val
		}
	}
}

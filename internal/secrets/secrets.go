// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory is one secret: the filename is the key name
// and the file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, llm-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// Key files recognized by Apply. openai-api-key wins when both are present.
const (
	KeyOpenAI = "openai-api-key"
	KeyLLM    = "llm-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply merges loaded secrets into the config. Values already present in
// the config (from flags, environment, or file) are never overwritten, so
// key files are the lowest-precedence source.
func Apply(secrets map[string]string, cfg *types.EngineConfig) {
	if cfg.LLM.APIKey == "" {
		if v, ok := secrets[KeyOpenAI]; ok {
			cfg.LLM.APIKey = v
		} else if v, ok := secrets[KeyLLM]; ok {
			cfg.LLM.APIKey = v
		}
	}
}

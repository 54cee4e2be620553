// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Fingerprint derives the content-addressed cache key for an operation call.
// The key is the operation id, a colon, and the hex SHA-256 of the operation
// id plus the canonical JSON encoding of the arguments. encoding/json writes
// map keys in sorted order, so argument order never changes the key, and the
// operation id inside the hash preimage keeps identical arguments to
// different operations from colliding. Per prd002-caching R1.1-R1.3.
func Fingerprint(operation string, args map[string]any) (string, error) {
	canonical, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("canonicalizing arguments for %s: %w", operation, err)
	}
	sum := sha256.Sum256([]byte(operation + ":" + string(canonical)))
	return fmt.Sprintf("%s:%x", operation, sum), nil
}

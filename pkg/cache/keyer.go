package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// memoKeyPrefix namespaces memoized function results away from strategy keys
const memoKeyPrefix = "memo"

// FunctionKey derives a deterministic cache key from a function's name and
// its arguments.
//
// Determinism: arguments are serialized to JSON, which encodes map keys in
// sorted order at every nesting level, so keyword-style argument maps hash
// identically regardless of insertion order. The key carries the first 16
// hex characters of the SHA-256 of that canonical form.
func FunctionKey(name string, args any) (string, error) {
	canonical, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize arguments: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%s:%s:%s", memoKeyPrefix, name, hex.EncodeToString(sum[:8])), nil
}

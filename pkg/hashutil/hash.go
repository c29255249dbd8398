// Package hashutil provides content fingerprints for dedup decisions.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// SumHex returns the lowercase hex SHA-256 digest of data. It is the
// canonical content fingerprint used by the clipboard snapshot and the
// coordinator dedup window.
func SumHex(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// SumHexString is SumHex for string payloads.
func SumHexString(s string) string {
	return SumHex([]byte(s))
}
